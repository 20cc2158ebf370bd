package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"classreg/internal/registry/models"
)

const DefaultNATSSubject = "classreg.student.updated"

// NATS publishes core NATS messages. Publish is buffered by the client, so
// a nil error means the message was queued, not that anyone received it.
type NATS struct {
	conn    *nats.Conn
	subject string
}

func NewNATS(conn *nats.Conn, subject string) (*NATS, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATS{conn: conn, subject: subject}, nil
}

func (p *NATS) Notify(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	payload, err := Encode(n)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.subject)
	msg.Data = payload
	msg.Header.Set(HeaderEventID, n.EventID)
	msg.Header.Set(HeaderStudentID, n.StudentID.String())
	msg.Header.Set(HeaderOccurredAt, n.OccurredAt.UTC().Format(time.RFC3339Nano))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

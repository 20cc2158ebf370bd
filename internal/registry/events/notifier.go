// Package events delivers UpdateStudent notifications to external observers.
// Every sink implements ports.Notifier; the service fires them after commit
// and never lets a delivery failure reach the caller.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
)

// Header keys attached to brokered messages.
const (
	HeaderEventID    = "classreg-event-id"
	HeaderStudentID  = "classreg-student-id"
	HeaderOccurredAt = "classreg-occurred-at"
)

// Encode renders the wire payload: {"student": ..., "point": ...}.
func Encode(n models.Notification) ([]byte, error) {
	payload, err := json.Marshal(n.Event)
	if err != nil {
		return nil, fmt.Errorf("encode update notification: %w", err)
	}
	return payload, nil
}

// Log writes each notification to a structured logger. It is the default
// sink when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n models.Notification) error {
	attrs := []any{
		"event_id", n.EventID,
		"student_id", n.StudentID.String(),
		"occurred_at", n.OccurredAt,
	}
	if n.Event.Student != nil {
		attrs = append(attrs, "student", *n.Event.Student)
	}
	if n.Event.Point != nil {
		attrs = append(attrs, "point", *n.Event.Point)
	}
	l.logger.InfoContext(ctx, "student updated", attrs...)
	return nil
}

// Fanout delivers to every sink and joins their errors. One failing sink
// does not stop the others.
type Fanout []ports.Notifier

func (f Fanout) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every notification in memory. Used by tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	events []models.Notification
	err    error
}

func (r *Recorder) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, n)
	return nil
}

// FailWith makes subsequent Notify calls return err without recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Events() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

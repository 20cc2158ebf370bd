package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"classreg/internal/registry/models"
)

const (
	DefaultKafkaTopic     = "classreg.student.updated"
	defaultProduceTimeout = 5 * time.Second
)

// Kafka produces one record per update, keyed by the decimal student id so
// every update for a student lands on the same partition in order.
type Kafka struct {
	client  *kgo.Client
	topic   string
	timeout time.Duration
}

type KafkaOption func(*Kafka)

// WithProduceTimeout bounds how long Notify waits for the broker ack.
func WithProduceTimeout(d time.Duration) KafkaOption {
	return func(k *Kafka) {
		if d > 0 {
			k.timeout = d
		}
	}
}

func NewKafka(client *kgo.Client, topic string, opts ...KafkaOption) (*Kafka, error) {
	if client == nil {
		return nil, errors.New("kafka client is required")
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	k := &Kafka{client: client, topic: topic, timeout: defaultProduceTimeout}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

func (k *Kafka) Notify(ctx context.Context, n models.Notification) error {
	payload, err := Encode(n)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic:     k.topic,
		Key:       []byte(n.StudentID.String()),
		Value:     payload,
		Timestamp: n.OccurredAt,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventID, Value: []byte(n.EventID)},
			{Key: HeaderStudentID, Value: []byte(n.StudentID.String())},
			{Key: HeaderOccurredAt, Value: []byte(n.OccurredAt.UTC().Format(time.RFC3339Nano))},
		},
	}

	// The write has already committed; a cancelled request must not abort
	// delivery, only the produce timeout may.
	produceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()
	if err := k.client.ProduceSync(produceCtx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", k.topic, err)
	}
	return nil
}

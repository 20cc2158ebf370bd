package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
)

func sampleNotification() models.Notification {
	return models.Notification{
		EventID:    "7f0c7a4e-1b0e-4a8e-9d43-2f8d0f6f9d11",
		StudentID:  42,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Event:      models.NewUpdateStudent("Alice", 9),
	}
}

func TestEncode(t *testing.T) {
	t.Run("populated event", func(t *testing.T) {
		payload, err := Encode(sampleNotification())
		require.NoError(t, err)
		assert.JSONEq(t, `{"student":"Alice","point":9}`, string(payload))
	})

	t.Run("absent fields encode as null", func(t *testing.T) {
		payload, err := Encode(models.Notification{StudentID: 1})
		require.NoError(t, err)
		assert.JSONEq(t, `{"student":null,"point":null}`, string(payload))
	})
}

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Notify(context.Background(), sampleNotification()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "student updated", entry["msg"])
	assert.Equal(t, "42", entry["student_id"])
	assert.Equal(t, "Alice", entry["student"])
	assert.EqualValues(t, 9, entry["point"])
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, models.Notification) error { return f.err }

func TestFanout_Notify(t *testing.T) {
	t.Run("delivers to every sink", func(t *testing.T) {
		a, b := &Recorder{}, &Recorder{}
		require.NoError(t, Fanout{a, nil, b}.Notify(context.Background(), sampleNotification()))
		assert.Equal(t, 1, a.Len())
		assert.Equal(t, 1, b.Len())
	})

	t.Run("failing sink does not stop the rest", func(t *testing.T) {
		boom := errors.New("broker down")
		after := &Recorder{}
		err := Fanout{failingNotifier{err: boom}, after}.Notify(context.Background(), sampleNotification())
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, after.Len())
	})

	t.Run("empty fanout is a no-op", func(t *testing.T) {
		assert.NoError(t, Fanout(nil).Notify(context.Background(), sampleNotification()))
	})
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	var _ ports.Notifier = rec

	require.NoError(t, rec.Notify(context.Background(), sampleNotification()))
	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", *events[0].Event.Student)

	boom := errors.New("nope")
	rec.FailWith(boom)
	assert.ErrorIs(t, rec.Notify(context.Background(), sampleNotification()), boom)
	assert.Equal(t, 1, rec.Len())
}

package models

import (
	"time"

	id "classreg/pkg/domain"
)

// UpdateStudent is the notification emitted after a committed update. Both
// fields are optional on the wire; successful updates always populate them.
type UpdateStudent struct {
	Student *string `json:"student"`
	Point   *uint32 `json:"point"`
}

// NewUpdateStudent builds a fully populated notification.
func NewUpdateStudent(name string, score uint32) UpdateStudent {
	return UpdateStudent{Student: &name, Point: &score}
}

// Notification wraps the event with delivery metadata that sinks use for
// keys, dedupe and ordering. The payload itself is UpdateStudent.
type Notification struct {
	EventID    string
	StudentID  id.StudentID
	OccurredAt time.Time
	Event      UpdateStudent
}

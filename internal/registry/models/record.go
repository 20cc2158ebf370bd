package models

import id "classreg/pkg/domain"

// StudentRecord is the read view over both mappings for one id. It is never
// stored as a unit.
type StudentRecord struct {
	ID    id.StudentID `json:"id"`
	Name  string       `json:"name"`
	Level Tier         `json:"level"`
}

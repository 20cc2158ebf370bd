package handler

import (
	"classreg/internal/registry/models"
	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
)

// UpdateStudentRequest is the PUT /students/{id} body. Both fields are
// required; range checks on score belong to the service.
type UpdateStudentRequest struct {
	Name  *string `json:"name"`
	Score *uint32 `json:"score"`
}

func (r *UpdateStudentRequest) Validate() error {
	if r.Name == nil {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if r.Score == nil {
		return dErrors.New(dErrors.CodeBadRequest, "score is required")
	}
	return nil
}

type NameResponse struct {
	ID   id.StudentID `json:"id"`
	Name string       `json:"name"`
}

type LevelResponse struct {
	ID    id.StudentID `json:"id"`
	Level models.Tier  `json:"level"`
}

type OwnerResponse struct {
	Owner string `json:"owner"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

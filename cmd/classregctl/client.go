package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"classreg/internal/registry/models"
	id "classreg/pkg/domain"
	"classreg/pkg/platform/httputil"
)

// client talks to the registry HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx response decoded from the error envelope.
type apiError struct {
	Status      int
	Code        string
	Description string
}

func (e *apiError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Description)
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.Status)
}

func (c *client) GetStudent(ctx context.Context, studentID id.StudentID) (models.StudentRecord, error) {
	var record models.StudentRecord
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.studentURL(studentID), nil)
	if err != nil {
		return record, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return record, fmt.Errorf("get student %s: %w", studentID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return record, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return record, fmt.Errorf("decode student %s: %w", studentID, err)
	}
	return record, nil
}

func (c *client) UpdateStudent(ctx context.Context, token string, studentID id.StudentID, name string, score uint32) error {
	body, err := json.Marshal(map[string]any{"name": name, "score": score})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.studentURL(studentID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update student %s: %w", studentID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *client) studentURL(studentID id.StudentID) string {
	return c.base + "/students/" + url.PathEscape(studentID.String())
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &apiError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	var envelope httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		apiErr.Code = envelope.Error
		apiErr.Description = envelope.ErrorDescription
	}
	return apiErr
}

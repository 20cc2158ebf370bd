package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"classreg/internal/registry/models"
	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
	"classreg/pkg/platform/httputil"
	"classreg/pkg/requestcontext"
)

const maxBodyBytes = 1 << 16

// Service defines the registry operations the handler serves.
type Service interface {
	UpdateStudent(ctx context.Context, caller id.AccountID, studentID id.StudentID, name string, score uint32) error
	GetStudentName(ctx context.Context, studentID id.StudentID) (string, error)
	GetStudentLevel(ctx context.Context, studentID id.StudentID) (models.Tier, error)
	GetStudent(ctx context.Context, studentID id.StudentID) (models.StudentRecord, error)
	Owner() id.AccountID
	Ping(ctx context.Context) error
}

// Handler serves the registry HTTP API.
type Handler struct {
	registry    Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
	readLimit   func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithAuth sets the middleware guarding writes. Without it every write is
// rejected as unauthenticated.
func WithAuth(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.requireAuth = mw
	}
}

// WithReadLimit sets the middleware applied to read routes.
func WithReadLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.readLimit = mw
	}
}

func New(registry Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		registry:    registry,
		logger:      logger,
		requireAuth: denyAll,
		readLimit:   passThrough,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.requireAuth).Put("/students/{id}", h.handleUpdateStudent)

	r.Group(func(r chi.Router) {
		r.Use(h.readLimit)
		r.Get("/students/{id}", h.handleGetStudent)
		r.Get("/students/{id}/name", h.handleGetStudentName)
		r.Get("/students/{id}/level", h.handleGetStudentLevel)
		r.Get("/owner", h.handleGetOwner)
	})

	r.Get("/healthz", h.handleHealth)
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	studentID, err := parseStudentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		// RequireAuth always sets a caller; reaching here means it was not mounted.
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req UpdateStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid update student request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	if err := h.registry.UpdateStudent(ctx, caller, studentID, *req.Name, *req.Score); err != nil {
		h.writeServiceError(ctx, w, err, "failed to update student")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetStudentName(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseStudentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	name, err := h.registry.GetStudentName(r.Context(), studentID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to read student name")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NameResponse{ID: studentID, Name: name})
}

func (h *Handler) handleGetStudentLevel(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseStudentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	level, err := h.registry.GetStudentLevel(r.Context(), studentID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to read student level")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LevelResponse{ID: studentID, Level: level})
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseStudentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.registry.GetStudent(r.Context(), studentID)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "failed to read student")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, OwnerResponse{Owner: h.registry.Owner().String()})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// writeServiceError logs server-side failures and writes the envelope.
// Client errors pass through with their own code and message.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func parseStudentID(r *http.Request) (id.StudentID, error) {
	studentID, err := id.ParseStudentID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "student id must be an unsigned 32-bit integer")
	}
	return studentID, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, req *UpdateStudentRequest) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "request body too large")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return req.Validate()
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication is not configured"))
	})
}

func passThrough(next http.Handler) http.Handler { return next }

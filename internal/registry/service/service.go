// Package service implements the student registry: owner-gated writes that
// classify a score and store name and tier together, and open reads that
// fall back to "" and Unrated for unknown students.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"classreg/internal/registry/access"
	"classreg/internal/registry/events"
	"classreg/internal/registry/metrics"
	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
	"classreg/pkg/platform/sentinel"
	"classreg/pkg/requestcontext"
)

const tracerName = "classreg/internal/registry/service"

// Type aliases for interfaces from ports package.
type (
	Store    = ports.Store
	Notifier = ports.Notifier
)

// Service is safe for concurrent use. The owner is fixed at construction
// and has no setter.
type Service struct {
	owner    id.AccountID
	store    Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNotifier sets the sink fired after each committed update.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New builds a registry administered by owner. A zero owner is rejected:
// there is no ownerless registry.
func New(owner id.AccountID, store Store, opts ...Option) (*Service, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "registry owner is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}

	svc := &Service{
		owner:  owner,
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// NewFromCaller makes the authenticated caller in ctx the owner.
func NewFromCaller(ctx context.Context, store Store, opts ...Option) (*Service, error) {
	return New(requestcontext.Caller(ctx), store, opts...)
}

// Open is New plus a claim on the store's owner slot. It fails with
// CodeConflict when the store already belongs to another account.
func Open(ctx context.Context, owner id.AccountID, store Store, opts ...Option) (*Service, error) {
	svc, err := New(owner, store, opts...)
	if err != nil {
		return nil, err
	}

	stored, err := store.ClaimOwner(ctx, owner)
	if err != nil {
		return nil, storeError(err, "failed to claim registry owner")
	}
	if stored != owner {
		svc.logger.ErrorContext(ctx, "registry owner mismatch",
			"configured_owner", owner.String(),
			"stored_owner", stored.String(),
		)
		return nil, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "registry is owned by another account")
	}
	return svc, nil
}

// Owner returns the account allowed to update students.
func (s *Service) Owner() id.AccountID {
	return s.owner
}

// UpdateStudent authorizes caller, validates and classifies score, then
// writes name and tier in one transaction and emits an UpdateStudent
// notification. Nothing is written when authorization or validation fails.
func (s *Service) UpdateStudent(ctx context.Context, caller id.AccountID, studentID id.StudentID, name string, score uint32) error {
	ctx, span := s.tracer.Start(ctx, "registry.UpdateStudent",
		trace.WithAttributes(attribute.Int64("student.id", int64(studentID))),
	)
	defer span.End()

	if err := access.Authorize(caller, s.owner); err != nil {
		s.reject(span, metrics.ReasonUnauthorized, err)
		s.logger.WarnContext(ctx, "student update rejected",
			"reason", metrics.ReasonUnauthorized,
			"student_id", studentID.String(),
			"caller", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeForbidden, "only the registry owner may update students")
	}

	if err := models.ValidateScore(score); err != nil {
		s.reject(span, metrics.ReasonInvalidScore, err)
		return dErrors.Wrap(err, dErrors.CodeValidation, "score must be between 1 and 10")
	}
	if err := models.ValidateName(name); err != nil {
		s.reject(span, metrics.ReasonInvalidName, err)
		return dErrors.Wrap(err, dErrors.CodeValidation, "name must be valid UTF-8 without NUL bytes")
	}

	tier := models.Classify(score)
	span.SetAttributes(attribute.String("student.tier", tier.String()))

	start := time.Now()
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx ports.Slots) error {
		if err := tx.Names().Set(ctx, studentID, name); err != nil {
			return err
		}
		return tx.Tiers().Set(ctx, studentID, tier)
	})
	s.observeStore("update", start)
	if err != nil {
		s.reject(span, metrics.ReasonStoreFailure, err)
		s.logger.ErrorContext(ctx, "student update failed",
			"student_id", studentID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return storeError(err, "failed to update student")
	}

	if s.metrics != nil {
		s.metrics.IncUpdate(tier.String())
	}
	s.logger.InfoContext(ctx, "student updated",
		"student_id", studentID.String(),
		"tier", tier.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	s.notify(ctx, studentID, name, score)
	return nil
}

// GetStudentName returns "" for an unknown student.
func (s *Service) GetStudentName(ctx context.Context, studentID id.StudentID) (string, error) {
	ctx, span := s.tracer.Start(ctx, "registry.GetStudentName",
		trace.WithAttributes(attribute.Int64("student.id", int64(studentID))),
	)
	defer span.End()

	start := time.Now()
	name, ok, err := s.store.Names().Get(ctx, studentID)
	s.observeStore("get_name", start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return "", storeError(err, "failed to read student name")
	}
	if s.metrics != nil {
		s.metrics.IncRead("name", ok)
	}
	if !ok {
		return "", nil
	}
	return name, nil
}

// GetStudentLevel returns TierUnrated for an unknown student.
func (s *Service) GetStudentLevel(ctx context.Context, studentID id.StudentID) (models.Tier, error) {
	ctx, span := s.tracer.Start(ctx, "registry.GetStudentLevel",
		trace.WithAttributes(attribute.Int64("student.id", int64(studentID))),
	)
	defer span.End()

	start := time.Now()
	tier, ok, err := s.store.Tiers().Get(ctx, studentID)
	s.observeStore("get_level", start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return models.TierUnrated, storeError(err, "failed to read student level")
	}
	if s.metrics != nil {
		s.metrics.IncRead("level", ok)
	}
	if !ok {
		return models.TierUnrated, nil
	}
	return tier, nil
}

// GetStudent reads name and level concurrently. The two reads are not a
// snapshot: a concurrent update may land between them.
func (s *Service) GetStudent(ctx context.Context, studentID id.StudentID) (models.StudentRecord, error) {
	record := models.StudentRecord{ID: studentID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name, err := s.GetStudentName(gctx, studentID)
		record.Name = name
		return err
	})
	g.Go(func() error {
		level, err := s.GetStudentLevel(gctx, studentID)
		record.Level = level
		return err
	})
	if err := g.Wait(); err != nil {
		return models.StudentRecord{}, err
	}
	return record, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storeError(err, "store unreachable")
	}
	return nil
}

// notify is fire-and-forget: the write has committed, so delivery problems
// are logged and counted and never reach the caller.
func (s *Service) notify(ctx context.Context, studentID id.StudentID, name string, score uint32) {
	if s.notifier == nil {
		return
	}

	n := models.Notification{
		EventID:    uuid.NewString(),
		StudentID:  studentID,
		OccurredAt: requestcontext.Now(ctx),
		Event:      models.NewUpdateStudent(name, score),
	}

	err := s.notifier.Notify(context.WithoutCancel(ctx), n)
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.IncNotificationSent()
		}
	case errors.Is(err, events.ErrCircuitOpen):
		if s.metrics != nil {
			s.metrics.IncNotificationDropped()
		}
		s.logger.WarnContext(ctx, "update notification dropped",
			"event_id", n.EventID,
			"student_id", studentID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		if s.metrics != nil {
			s.metrics.IncNotificationFailure()
		}
		s.logger.ErrorContext(ctx, "update notification failed",
			"event_id", n.EventID,
			"student_id", studentID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) reject(span trace.Span, reason string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	if s.metrics != nil {
		s.metrics.IncRejection(reason)
	}
}

func (s *Service) observeStore(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStore(op, start)
	}
}

// storeError keeps the cause reachable for errors.Is while choosing the code
// the transport shows.
func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

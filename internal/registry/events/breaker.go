package events

import (
	"context"
	"errors"
	"log/slog"

	"classreg/internal/registry/metrics"
	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
	"classreg/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the guarded sink is considered down. The
// notification is dropped, not queued.
var ErrCircuitOpen = errors.New("notifier circuit open")

// Guarded wraps a single sink with its own circuit breaker. A dead broker
// costs one trial call per cooldown instead of a timeout on every write,
// and sinks guarded separately trip independently.
type Guarded struct {
	next    ports.Notifier
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type GuardOption func(*Guarded)

func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guarded) {
		g.logger = logger
	}
}

func WithGuardMetrics(m *metrics.Metrics) GuardOption {
	return func(g *Guarded) {
		g.metrics = m
	}
}

func NewGuarded(next ports.Notifier, breaker *circuit.Breaker, opts ...GuardOption) (*Guarded, error) {
	if next == nil {
		return nil, errors.New("notifier is required")
	}
	if breaker == nil {
		return nil, errors.New("circuit breaker is required")
	}
	g := &Guarded{
		next:    next,
		breaker: breaker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Guarded) Notify(ctx context.Context, n models.Notification) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}

	if err := g.next.Notify(ctx, n); err != nil {
		_, change := g.breaker.RecordFailure()
		if change.Opened {
			g.logger.WarnContext(ctx, "notifier circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
			g.setCircuitGauge(true)
		}
		return err
	}

	_, change := g.breaker.RecordSuccess()
	if change.Closed {
		g.logger.InfoContext(ctx, "notifier circuit closed", "breaker", g.breaker.Name())
		g.setCircuitGauge(false)
	}
	return nil
}

func (g *Guarded) setCircuitGauge(open bool) {
	if g.metrics != nil {
		g.metrics.SetNotifierCircuitOpen(g.breaker.Name(), open)
	}
}

// Package ports defines the interfaces the registry service consumes. Store
// backends and notification sinks implement them.
package ports

import (
	"context"

	"classreg/internal/registry/models"
	id "classreg/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=../service/mocks/mocks.go -package=mocks Store,Notifier

// Mapping is a persistent key-value slot addressed by student id. Get reports
// a miss with ok=false and a nil error; the caller decides the default.
// There is no delete.
type Mapping[V any] interface {
	Get(ctx context.Context, key id.StudentID) (value V, ok bool, err error)
	Set(ctx context.Context, key id.StudentID, value V) error
}

// Slots exposes the two mappings that together form a student record.
type Slots interface {
	Names() Mapping[string]
	Tiers() Mapping[models.Tier]
}

// Store is the registry's durable state: both mappings plus the owner slot.
type Store interface {
	Slots

	// RunInTx runs fn with mappings whose writes commit together or not at
	// all. A non-nil error from fn discards every write made through tx.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Slots) error) error

	// ClaimOwner stores owner if the slot is empty and returns whatever the
	// slot holds afterwards. It never overwrites an existing owner.
	ClaimOwner(ctx context.Context, owner id.AccountID) (id.AccountID, error)

	// Ping checks backend reachability.
	Ping(ctx context.Context) error
}

// Notifier delivers update notifications to external observers.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

package store

import (
	"context"
	"sync"

	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
	id "classreg/pkg/domain"
)

// InMemory keeps registry state in process memory. A single RWMutex gives
// the same single-writer, many-reader discipline a hosted registry has:
// transactions are exclusive, reads are shared.
type InMemory struct {
	mu     sync.RWMutex
	owner  id.AccountID
	names  map[id.StudentID]string
	levels map[id.StudentID]models.Tier
}

// NewInMemory returns an empty store with no owner claimed.
func NewInMemory() *InMemory {
	return &InMemory{
		names:  make(map[id.StudentID]string),
		levels: make(map[id.StudentID]models.Tier),
	}
}

func (s *InMemory) Names() ports.Mapping[string] {
	return memoryMapping[string]{mu: &s.mu, data: s.names}
}

func (s *InMemory) Tiers() ports.Mapping[models.Tier] {
	return memoryMapping[models.Tier]{mu: &s.mu, data: s.levels, check: checkStorableTier}
}

// RunInTx holds the write lock for the duration of fn and stages every write.
// Staged writes are applied only when fn returns nil.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ports.Slots) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memoryTx{
		names:  stagedMapping[string]{base: s.names, pending: map[id.StudentID]string{}},
		levels: stagedMapping[models.Tier]{base: s.levels, pending: map[id.StudentID]models.Tier{}, check: checkStorableTier},
	}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	staged.names.commit()
	staged.levels.commit()
	return nil
}

func (s *InMemory) ClaimOwner(_ context.Context, owner id.AccountID) (id.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner.IsZero() {
		s.owner = owner
	}
	return s.owner, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

// Len returns the number of names stored. Tests use it to prove that
// rejected updates leave the state untouched.
func (s *InMemory) Len() (names, levels int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names), len(s.levels)
}

func checkStorableTier(t models.Tier) error {
	_, err := models.EncodeTier(t)
	return err
}

// memoryMapping reads and writes outside a transaction. Set takes the write
// lock itself, so it must not be used while RunInTx holds it.
type memoryMapping[V any] struct {
	mu    *sync.RWMutex
	data  map[id.StudentID]V
	check func(V) error
}

func (m memoryMapping[V]) Get(_ context.Context, key id.StudentID) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m memoryMapping[V]) Set(_ context.Context, key id.StudentID, value V) error {
	if m.check != nil {
		if err := m.check(value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type memoryTx struct {
	names  stagedMapping[string]
	levels stagedMapping[models.Tier]
}

func (t *memoryTx) Names() ports.Mapping[string]      { return &t.names }
func (t *memoryTx) Tiers() ports.Mapping[models.Tier] { return &t.levels }

// stagedMapping overlays pending writes on the committed map. The caller
// already holds the store lock.
type stagedMapping[V any] struct {
	base    map[id.StudentID]V
	pending map[id.StudentID]V
	check   func(V) error
}

func (m *stagedMapping[V]) Get(_ context.Context, key id.StudentID) (V, bool, error) {
	if v, ok := m.pending[key]; ok {
		return v, true, nil
	}
	v, ok := m.base[key]
	return v, ok, nil
}

func (m *stagedMapping[V]) Set(_ context.Context, key id.StudentID, value V) error {
	if m.check != nil {
		if err := m.check(value); err != nil {
			return err
		}
	}
	m.pending[key] = value
	return nil
}

func (m *stagedMapping[V]) commit() {
	for k, v := range m.pending {
		m.base[k] = v
	}
}

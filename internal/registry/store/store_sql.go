package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
	id "classreg/pkg/domain"
	"classreg/pkg/platform/tx"
)

// ownerSlot is the single row key of registry_owner.
const ownerSlot = 1

// dialect captures the differences between the SQL engines we support.
type dialect struct {
	name     string
	schema   []string
	rebind   func(query string) string
	classify func(err error) error
}

// SQLStore persists the registry in three tables sharing one database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

// Migrate creates the registry tables when they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s schema: %w", s.dialect.name, s.dialect.classify(err))
		}
	}
	return nil
}

func (s *SQLStore) Names() ports.Mapping[string] {
	return sqlNames{s: s}
}

func (s *SQLStore) Tiers() ports.Mapping[models.Tier] {
	return sqlTiers{s: s}
}

// RunInTx opens a transaction and hands fn the same mappings; they pick the
// transaction up from the context.
func (s *SQLStore) RunInTx(ctx context.Context, fn func(ctx context.Context, slots ports.Slots) error) error {
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		return fn(ctx, s)
	})
	if err != nil {
		return s.dialect.classify(err)
	}
	return nil
}

func (s *SQLStore) ClaimOwner(ctx context.Context, owner id.AccountID) (id.AccountID, error) {
	var stored []byte
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecutorFrom(ctx, s.db)
		insert := s.dialect.rebind(`INSERT INTO registry_owner (slot, account_id) VALUES (?, ?) ON CONFLICT (slot) DO NOTHING`)
		if _, err := exec.ExecContext(ctx, insert, ownerSlot, owner.Bytes()); err != nil {
			return fmt.Errorf("claim owner: %w", err)
		}
		query := s.dialect.rebind(`SELECT account_id FROM registry_owner WHERE slot = ?`)
		if err := exec.QueryRowContext(ctx, query, ownerSlot).Scan(&stored); err != nil {
			return fmt.Errorf("load owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return id.AccountID{}, s.dialect.classify(err)
	}
	account, err := id.AccountIDFromBytes(stored)
	if err != nil {
		return id.AccountID{}, fmt.Errorf("%w: owner slot holds %d bytes", ErrCorrupt, len(stored))
	}
	return account, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.dialect.classify(err)
	}
	return nil
}

type sqlNames struct{ s *SQLStore }

func (m sqlNames) Get(ctx context.Context, key id.StudentID) (string, bool, error) {
	var name string
	query := m.s.dialect.rebind(`SELECT name FROM student_names WHERE id = ?`)
	err := tx.ExecutorFrom(ctx, m.s.db).QueryRowContext(ctx, query, int64(key)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find student name: %w", m.s.dialect.classify(err))
	}
	return name, true, nil
}

func (m sqlNames) Set(ctx context.Context, key id.StudentID, name string) error {
	query := m.s.dialect.rebind(`
		INSERT INTO student_names (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`)
	if _, err := tx.ExecutorFrom(ctx, m.s.db).ExecContext(ctx, query, int64(key), name); err != nil {
		return fmt.Errorf("save student name: %w", m.s.dialect.classify(err))
	}
	return nil
}

type sqlTiers struct{ s *SQLStore }

func (m sqlTiers) Get(ctx context.Context, key id.StudentID) (models.Tier, bool, error) {
	var code int64
	query := m.s.dialect.rebind(`SELECT level FROM student_levels WHERE id = ?`)
	err := tx.ExecutorFrom(ctx, m.s.db).QueryRowContext(ctx, query, int64(key)).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TierUnrated, false, nil
	}
	if err != nil {
		return models.TierUnrated, false, fmt.Errorf("find student level: %w", m.s.dialect.classify(err))
	}
	if code < 0 || code > 255 {
		return models.TierUnrated, false, fmt.Errorf("%w: student level %d", ErrCorrupt, code)
	}
	tier, err := models.DecodeTier(uint8(code))
	if err != nil {
		return models.TierUnrated, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return tier, true, nil
}

func (m sqlTiers) Set(ctx context.Context, key id.StudentID, tier models.Tier) error {
	code, err := models.EncodeTier(tier)
	if err != nil {
		return err
	}
	query := m.s.dialect.rebind(`
		INSERT INTO student_levels (id, level) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET level = excluded.level`)
	if _, err := tx.ExecutorFrom(ctx, m.s.db).ExecContext(ctx, query, int64(key), int64(code)); err != nil {
		return fmt.Errorf("save student level: %w", m.s.dialect.classify(err))
	}
	return nil
}

// rebindDollar rewrites ? placeholders as $1, $2, ... for Postgres.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func rebindNone(query string) string { return query }

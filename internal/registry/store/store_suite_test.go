package store

import (
	"context"
	"errors"

	"github.com/stretchr/testify/suite"

	"classreg/internal/registry/models"
	"classreg/internal/registry/ports"
	id "classreg/pkg/domain"
)

// StoreSuite is the behaviour every backend must share. Backend specific
// test files embed it and provide newStore.
type StoreSuite struct {
	suite.Suite
	ctx      context.Context
	store    ports.Store
	newStore func() ports.Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

// TestMissesAreNotErrors verifies the default-on-miss contract of Mapping.
func (s *StoreSuite) TestMissesAreNotErrors() {
	name, ok, err := s.store.Names().Get(s.ctx, 999)
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(name)

	_, ok, err = s.store.Tiers().Get(s.ctx, 999)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreSuite) TestTransactionCommitsBothMappings() {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx ports.Slots) error {
		if err := tx.Names().Set(ctx, 1, "Alice"); err != nil {
			return err
		}
		return tx.Tiers().Set(ctx, 1, models.TierExcellent)
	})
	s.Require().NoError(err)

	name, ok, err := s.store.Names().Get(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Alice", name)

	tier, ok, err := s.store.Tiers().Get(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(models.TierExcellent, tier)
}

func (s *StoreSuite) TestTransactionOverwrites() {
	for _, rec := range []struct {
		name string
		tier models.Tier
	}{{"Alice", models.TierExcellent}, {"Alicia", models.TierFail}} {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx ports.Slots) error {
			if err := tx.Names().Set(ctx, 1, rec.name); err != nil {
				return err
			}
			return tx.Tiers().Set(ctx, 1, rec.tier)
		})
		s.Require().NoError(err)
	}

	name, _, err := s.store.Names().Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Alicia", name)

	tier, _, err := s.store.Tiers().Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.TierFail, tier)
}

func (s *StoreSuite) TestFailedTransactionWritesNothing() {
	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx ports.Slots) error {
		if err := tx.Names().Set(ctx, 7, "Bob"); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, ok, err := s.store.Names().Get(s.ctx, 7)
	s.Require().NoError(err)
	s.False(ok, "name must not survive a rolled back transaction")
}

func (s *StoreSuite) TestUnratedIsNeverStored() {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx ports.Slots) error {
		return tx.Tiers().Set(ctx, 3, models.TierUnrated)
	})
	s.Require().Error(err)

	_, ok, err := s.store.Tiers().Get(s.ctx, 3)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StoreSuite) TestMaxStudentID() {
	const maxID = id.StudentID(^uint32(0))
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx ports.Slots) error {
		if err := tx.Names().Set(ctx, maxID, "Last"); err != nil {
			return err
		}
		return tx.Tiers().Set(ctx, maxID, models.TierGood)
	})
	s.Require().NoError(err)

	name, ok, err := s.store.Names().Get(s.ctx, maxID)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Last", name)
}

func (s *StoreSuite) TestClaimOwnerIsOnce() {
	first := id.DeriveAccountID("first-owner")
	second := id.DeriveAccountID("second-owner")

	got, err := s.store.ClaimOwner(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(first, got)

	got, err = s.store.ClaimOwner(s.ctx, second)
	s.Require().NoError(err)
	s.Equal(first, got, "an existing owner is never replaced")
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

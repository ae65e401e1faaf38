package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

type MemoryStateSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStateSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStateSuite) seed() *models.ValidatorState {
	st := &models.ValidatorState{
		Owner:               id.Address("0x00000000000000000000000000000000000000aa"),
		JurisdictionAddress: id.Address("0x00000000000000000000000000000000000000bb"),
		AttributeID:         19,
	}
	s.Require().NoError(s.store.Initialize(s.ctx, st))
	return st
}

func (s *MemoryStateSuite) TestGetBeforeInitialize() {
	_, err := s.store.Get(s.ctx)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStateSuite) TestInitializeOnce() {
	st := s.seed()

	err := s.store.Initialize(s.ctx, st)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(st.Owner, got.Owner)
	s.Equal(st.AttributeID, got.AttributeID)
}

func (s *MemoryStateSuite) TestExecuteMutates() {
	s.seed()

	got, err := s.store.Execute(s.ctx,
		func(st *models.ValidatorState) error {
			if st.Paused {
				return errors.New("already paused")
			}
			return nil
		},
		func(st *models.ValidatorState) { st.Paused = true },
	)
	s.Require().NoError(err)
	s.True(got.Paused)

	reread, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.True(reread.Paused)
}

func (s *MemoryStateSuite) TestExecuteValidationFailureLeavesStateUntouched() {
	s.seed()

	wantErr := errors.New("rejected")
	_, err := s.store.Execute(s.ctx,
		func(*models.ValidatorState) error { return wantErr },
		func(st *models.ValidatorState) { st.Paused = true },
	)
	s.Require().ErrorIs(err, wantErr)

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.False(got.Paused)
}

func (s *MemoryStateSuite) TestGetReturnsCopy() {
	s.seed()

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	got.Paused = true

	reread, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.False(reread.Paused)
}

func TestMemoryStateSuite(t *testing.T) {
	suite.Run(t, new(MemoryStateSuite))
}

package organization

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

type OrganizationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestOrganizationStoreSuite(t *testing.T) {
	suite.Run(t, new(OrganizationStoreSuite))
}

func (s *OrganizationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *OrganizationStoreSuite) newOrg(addr id.Address, capacity uint64) *models.Organization {
	org, err := models.NewOrganization(addr, capacity, "Test Organization", s.now)
	s.Require().NoError(err)
	return org
}

func (s *OrganizationStoreSuite) addr(last byte) id.Address {
	hex := "0123456789abcdef"
	return id.Address("0x00000000000000000000000000000000000000" + string(hex[last>>4]) + string(hex[last&0xf]))
}

func (s *OrganizationStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds by address", func() {
		org := s.newOrg(s.addr(0x01), 20)
		s.Require().NoError(s.store.Create(s.ctx, org))

		found, err := s.store.Find(s.ctx, org.Address)
		s.Require().NoError(err)
		s.Equal("Test Organization", found.Name)
		s.Equal(uint64(20), found.MaxAddresses)
	})

	s.Run("returns ErrNotFound for unknown address", func() {
		_, err := s.store.Find(s.ctx, s.addr(0x7f))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate registration", func() {
		org := s.newOrg(s.addr(0x02), 5)
		s.Require().NoError(s.store.Create(s.ctx, org))

		err := s.store.Create(s.ctx, s.newOrg(s.addr(0x02), 99))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *OrganizationStoreSuite) TestListEnumeration() {
	s.Run("preserves registration order", func() {
		a, b, c := s.addr(0x0a), s.addr(0x0b), s.addr(0x0c)
		for _, addr := range []id.Address{a, b, c} {
			s.Require().NoError(s.store.Create(s.ctx, s.newOrg(addr, 1)))
		}

		list, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Equal([]id.Address{a, b, c}, list)
	})

	s.Run("failed registration does not grow the enumeration", func() {
		a := s.addr(0x0d)
		s.Require().NoError(s.store.Create(s.ctx, s.newOrg(a, 1)))
		before, err := s.store.List(s.ctx)
		s.Require().NoError(err)

		s.Require().Error(s.store.Create(s.ctx, s.newOrg(a, 2)))
		after, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Equal(before, after)
	})
}

func (s *OrganizationStoreSuite) TestExecute() {
	s.Run("validate failure leaves state untouched", func() {
		a := s.addr(0x21)
		s.Require().NoError(s.store.Create(s.ctx, s.newOrg(a, 1)))

		_, err := s.store.Execute(s.ctx, a,
			func(o *models.Organization) error { return models.ErrCapacityExceeded },
			func(o *models.Organization) { o.ApplyIssue(s.addr(0x22), s.now) },
		)
		s.Require().ErrorIs(err, models.ErrCapacityExceeded)

		found, err := s.store.Find(s.ctx, a)
		s.Require().NoError(err)
		s.Zero(found.IssuedCount())
	})

	s.Run("mutation persists and returns a copy", func() {
		a, target := s.addr(0x23), s.addr(0x24)
		s.Require().NoError(s.store.Create(s.ctx, s.newOrg(a, 2)))

		updated, err := s.store.Execute(s.ctx, a,
			func(o *models.Organization) error { return o.CanIssue(target) },
			func(o *models.Organization) { o.ApplyIssue(target, s.now) },
		)
		s.Require().NoError(err)
		s.True(updated.HasIssued(target))

		// mutating the returned copy must not leak back into the store
		updated.ApplyRevoke(target, s.now)
		found, err := s.store.Find(s.ctx, a)
		s.Require().NoError(err)
		s.True(found.HasIssued(target))
	})

	s.Run("unknown organization yields ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, s.addr(0x25),
			func(o *models.Organization) error { return nil },
			func(o *models.Organization) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestAggregateIsolation verifies Create stores a copy: mutating the caller's
// aggregate after Create must not alter the stored record.
func (s *OrganizationStoreSuite) TestAggregateIsolation() {
	a := s.addr(0x31)
	org := s.newOrg(a, 5)
	s.Require().NoError(s.store.Create(s.ctx, org))

	org.ApplyIssue(s.addr(0x32), s.now)

	found, err := s.store.Find(s.ctx, a)
	s.Require().NoError(err)
	s.Zero(found.IssuedCount())
}

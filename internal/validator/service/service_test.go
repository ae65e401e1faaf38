package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"attestor/internal/jurisdiction"
	jurisdictionmocks "attestor/internal/jurisdiction/mocks"
	"attestor/internal/validator/models"
	"attestor/internal/validator/service"
	orgstore "attestor/internal/validator/store/organization"
	statestore "attestor/internal/validator/store/state"
	id "attestor/pkg/domain"
	dErrors "attestor/pkg/domain-errors"
	"attestor/pkg/platform/audit"
	auditmemory "attestor/pkg/platform/audit/store/memory"
	"attestor/pkg/requestcontext"
)

const attributeID = 19

var (
	owner     = addr(0x01)
	orgAddr   = addr(0x02)
	otherAddr = addr(0x03)
)

func addr(last byte) id.Address {
	return id.Address(fmt.Sprintf("0x%038x%02x", 0, last))
}

type ServiceSuite struct {
	suite.Suite
	states   *statestore.InMemory
	orgs     *orgstore.InMemory
	registry *jurisdiction.MockClient
	audits   *auditmemory.Store
	svc      *service.ValidatorService
	now      time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.states = statestore.NewInMemory()
	s.orgs = orgstore.NewInMemory()
	s.registry = jurisdiction.NewMockClient(0)
	s.audits = auditmemory.New()
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.svc = s.newService(s.registry)
}

func (s *ServiceSuite) newService(registry jurisdiction.Client) *service.ValidatorService {
	return service.New(s.states, s.orgs, registry,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(recordingPublisher{store: s.audits}),
	)
}

func (s *ServiceSuite) as(actor id.Address) context.Context {
	ctx := requestcontext.WithActor(context.Background(), actor)
	ctx = requestcontext.WithTime(ctx, s.now)
	return requestcontext.WithRequestID(ctx, "req-test")
}

func (s *ServiceSuite) initialize() {
	s.Require().NoError(s.svc.Initialize(s.as(owner), addr(0xf0), attributeID))
}

func (s *ServiceSuite) register(org id.Address, capacity uint64, name string) {
	s.Require().NoError(s.svc.AddOrganization(s.as(owner), org, capacity, name))
}

func (s *ServiceSuite) auditActions() []string {
	var actions []string
	for _, event := range s.audits.All() {
		actions = append(actions, event.Action)
	}
	return actions
}

func (s *ServiceSuite) TestInitializeOnce() {
	s.initialize()

	err := s.svc.Initialize(s.as(owner), addr(0xf0), attributeID)
	s.Require().ErrorIs(err, models.ErrAlreadyInitialized)

	got, err := s.svc.AttributeID(s.as(owner))
	s.Require().NoError(err)
	s.Equal(uint64(attributeID), got)
	s.Contains(s.auditActions(), string(audit.EventValidatorInitialized))
}

func (s *ServiceSuite) TestInitializeRejectsZeroJurisdiction() {
	err := s.svc.Initialize(s.as(owner), id.ZeroAddress, attributeID)
	s.Require().ErrorIs(err, models.ErrInvalidAddress)
}

func (s *ServiceSuite) TestOperationsBeforeInitialize() {
	s.Require().ErrorIs(s.svc.AddOrganization(s.as(owner), orgAddr, 5, "org"), models.ErrNotInitialized)
	s.Require().ErrorIs(s.svc.IssueAttribute(s.as(orgAddr), otherAddr), models.ErrNotInitialized)
	s.Require().ErrorIs(s.svc.Pause(s.as(owner)), models.ErrNotInitialized)
	_, err := s.svc.Paused(s.as(owner))
	s.Require().ErrorIs(err, models.ErrNotInitialized)
}

func (s *ServiceSuite) TestAddOrganization() {
	s.initialize()
	s.register(orgAddr, 20, "Mock ZEP Organization")

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.True(record.Exists)
	s.Equal(uint64(20), record.MaxAddresses)
	s.Equal("Mock ZEP Organization", record.Name)
	s.Empty(record.IssuedAddresses)

	list, err := s.svc.ListOrganizations(s.as(owner))
	s.Require().NoError(err)
	s.Equal([]id.Address{orgAddr}, list)
	s.Contains(s.auditActions(), string(audit.EventOrganizationAdded))
}

func (s *ServiceSuite) TestAddOrganizationOwnerOnly() {
	s.initialize()

	err := s.svc.AddOrganization(s.as(otherAddr), orgAddr, 5, "intruder")
	s.Require().ErrorIs(err, models.ErrUnauthorized)

	list, err := s.svc.ListOrganizations(s.as(owner))
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *ServiceSuite) TestAddOrganizationRejectsDuplicateAndZero() {
	s.initialize()
	s.register(orgAddr, 5, "first")

	err := s.svc.AddOrganization(s.as(owner), orgAddr, 5, "again")
	s.Require().ErrorIs(err, models.ErrAlreadyExists)

	err = s.svc.AddOrganization(s.as(owner), id.ZeroAddress, 5, "zero")
	s.Require().ErrorIs(err, models.ErrInvalidAddress)
}

func (s *ServiceSuite) TestSetMaximumAddresses() {
	s.initialize()
	s.register(orgAddr, 20, "Mock ZEP Organization")

	s.Require().NoError(s.svc.SetMaximumAddresses(s.as(owner), orgAddr, 2))

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Equal(uint64(2), record.MaxAddresses)
}

func (s *ServiceSuite) TestSetMaximumAddressesUnknownOrganization() {
	s.initialize()

	err := s.svc.SetMaximumAddresses(s.as(owner), orgAddr, 2)
	s.Require().ErrorIs(err, models.ErrNotFound)
}

func (s *ServiceSuite) TestSetMaximumAddressesBelowUsage() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), addr(0xa1)))
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), addr(0xa2)))

	err := s.svc.SetMaximumAddresses(s.as(owner), orgAddr, 0)
	s.Require().ErrorIs(err, models.ErrCapacityBelowUsage)

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Equal(uint64(2), record.MaxAddresses)
}

func (s *ServiceSuite) TestIssueAttribute() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	target := addr(0xa1)

	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), target))

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Equal([]id.Address{target}, record.IssuedAddresses)

	held, err := s.registry.Has(context.Background(), target, attributeID)
	s.Require().NoError(err)
	s.True(held)
	s.Contains(s.auditActions(), string(audit.EventAttributeIssued))
}

func (s *ServiceSuite) TestIssueCapacityExceeded() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	a1, a2, a3 := addr(0xa1), addr(0xa2), addr(0xa3)

	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), a1))
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), a2))
	s.Require().ErrorIs(s.svc.IssueAttribute(s.as(orgAddr), a3), models.ErrCapacityExceeded)

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Equal([]id.Address{a1, a2}, record.IssuedAddresses)
}

func (s *ServiceSuite) TestIssueRejections() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	target := addr(0xa1)
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), target))

	s.Run("duplicate", func() {
		s.Require().ErrorIs(s.svc.IssueAttribute(s.as(orgAddr), target), models.ErrAlreadyIssued)
	})
	s.Run("zero target", func() {
		s.Require().ErrorIs(s.svc.IssueAttribute(s.as(orgAddr), id.ZeroAddress), models.ErrInvalidAddress)
	})
	s.Run("unregistered caller", func() {
		s.Require().ErrorIs(s.svc.IssueAttribute(s.as(otherAddr), addr(0xa2)), models.ErrUnauthorized)
	})
}

func (s *ServiceSuite) TestRevokeSwapsLastIntoSlot() {
	s.initialize()
	s.register(orgAddr, 3, "org")
	a1, a2, a3 := addr(0xa1), addr(0xa2), addr(0xa3)
	for _, target := range []id.Address{a1, a2, a3} {
		s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), target))
	}

	s.Require().NoError(s.svc.RevokeAttribute(s.as(orgAddr), a1))

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Equal([]id.Address{a3, a2}, record.IssuedAddresses)

	held, err := s.registry.Has(context.Background(), a1, attributeID)
	s.Require().NoError(err)
	s.False(held)

	// Re-issue works now that usage is below capacity again.
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), a1))
}

func (s *ServiceSuite) TestRevokeRejections() {
	s.initialize()
	s.register(orgAddr, 2, "org")

	s.Run("never issued", func() {
		s.Require().ErrorIs(s.svc.RevokeAttribute(s.as(orgAddr), addr(0xa1)), models.ErrNotIssued)
	})
	s.Run("zero target", func() {
		s.Require().ErrorIs(s.svc.RevokeAttribute(s.as(orgAddr), id.ZeroAddress), models.ErrInvalidAddress)
	})
	s.Run("unregistered caller", func() {
		s.Require().ErrorIs(s.svc.RevokeAttribute(s.as(otherAddr), addr(0xa1)), models.ErrUnauthorized)
	})
}

func (s *ServiceSuite) TestPauseBlocksAttributeOperations() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	target := addr(0xa1)
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), target))

	s.Require().NoError(s.svc.Pause(s.as(owner)))

	s.Require().ErrorIs(s.svc.IssueAttribute(s.as(orgAddr), addr(0xa2)), models.ErrPaused)
	s.Require().ErrorIs(s.svc.RevokeAttribute(s.as(orgAddr), target), models.ErrPaused)

	s.Require().NoError(s.svc.Unpause(s.as(owner)))
	s.Require().NoError(s.svc.RevokeAttribute(s.as(orgAddr), target))
}

func (s *ServiceSuite) TestIssuancePauseLeavesRevocationOpen() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	target := addr(0xa1)
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), target))

	s.Require().NoError(s.svc.PauseIssuance(s.as(owner)))

	s.Require().ErrorIs(s.svc.IssueAttribute(s.as(orgAddr), addr(0xa2)), models.ErrIssuancePaused)
	s.Require().NoError(s.svc.RevokeAttribute(s.as(orgAddr), target))

	s.Require().NoError(s.svc.UnpauseIssuance(s.as(owner)))
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), addr(0xa2)))
}

func (s *ServiceSuite) TestPauseOwnerOnly() {
	s.initialize()

	s.Require().ErrorIs(s.svc.Pause(s.as(otherAddr)), models.ErrUnauthorized)
	s.Require().ErrorIs(s.svc.PauseIssuance(s.as(otherAddr)), models.ErrUnauthorized)
}

func (s *ServiceSuite) TestDroppedGrantAbortsIssue() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	s.registry.DropGrants = true

	err := s.svc.IssueAttribute(s.as(orgAddr), addr(0xa1))
	s.Require().ErrorIs(err, models.ErrRegistryDesync)

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Empty(record.IssuedAddresses)
	s.Contains(s.auditActions(), string(audit.EventRegistryDesync))
}

func (s *ServiceSuite) TestRegistryFailureAbortsWithoutLocalChange() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	s.registry.Fail = true

	err := s.svc.IssueAttribute(s.as(orgAddr), addr(0xa1))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	s.registry.Fail = false
	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Empty(record.IssuedAddresses)
}

func (s *ServiceSuite) TestRevokeDesyncLeavesStateUntouched() {
	s.initialize()
	s.register(orgAddr, 2, "org")
	target := addr(0xa1)
	s.Require().NoError(s.svc.IssueAttribute(s.as(orgAddr), target))

	ctrl := gomock.NewController(s.T())
	registry := jurisdictionmocks.NewMockClient(ctrl)
	registry.EXPECT().Revoke(gomock.Any(), target, uint64(attributeID)).Return(nil)
	// The registry accepted the revoke but still reports the attribute held.
	registry.EXPECT().Has(gomock.Any(), target, uint64(attributeID)).Return(true, nil)
	svc := s.newService(registry)

	err := svc.RevokeAttribute(s.as(orgAddr), target)
	s.Require().ErrorIs(err, models.ErrRegistryDesync)

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.Equal([]id.Address{target}, record.IssuedAddresses)
}

func (s *ServiceSuite) TestGetUnknownOrganizationReturnsZeroRecord() {
	s.initialize()

	record, err := s.svc.GetOrganization(s.as(owner), orgAddr)
	s.Require().NoError(err)
	s.False(record.Exists)
	s.Zero(record.MaxAddresses)
	s.Empty(record.Name)
}

func (s *ServiceSuite) TestStateQueries() {
	s.initialize()

	juris, err := s.svc.JurisdictionAddress(s.as(owner))
	s.Require().NoError(err)
	s.Equal(addr(0xf0), juris)

	paused, err := s.svc.Paused(s.as(owner))
	s.Require().NoError(err)
	s.False(paused)

	issuancePaused, err := s.svc.IssuancePaused(s.as(owner))
	s.Require().NoError(err)
	s.False(issuancePaused)
}

// recordingPublisher appends straight to the store, mirroring the fail-closed
// publisher without log noise.
type recordingPublisher struct {
	store audit.Store
}

func (p recordingPublisher) Emit(ctx context.Context, event audit.Event) error {
	return p.store.Append(ctx, event)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

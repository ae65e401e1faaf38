// Package service implements the validator engine: owner-administered
// organization registration and capacity, and organization-driven attribute
// issuance and revocation verified against the jurisdiction registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"attestor/internal/jurisdiction"
	"attestor/internal/validator/gate"
	"attestor/internal/validator/metrics"
	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
	dErrors "attestor/pkg/domain-errors"
	"attestor/pkg/platform/audit"
	"attestor/pkg/platform/sentinel"
	"attestor/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks StateStore,OrganizationStore

// StateStore persists the singleton validator state.
type StateStore interface {
	Initialize(ctx context.Context, state *models.ValidatorState) error
	Get(ctx context.Context) (*models.ValidatorState, error)
	Execute(ctx context.Context, validate func(*models.ValidatorState) error, mutate func(*models.ValidatorState)) (*models.ValidatorState, error)
}

// OrganizationStore persists organization aggregates. List returns addresses
// in registration order.
type OrganizationStore interface {
	Create(ctx context.Context, org *models.Organization) error
	Find(ctx context.Context, addr id.Address) (*models.Organization, error)
	List(ctx context.Context) ([]id.Address, error)
	Execute(ctx context.Context, addr id.Address, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error)
}

// ValidatorService serializes every mutating operation through one mutex,
// held across check, registry call, read-back verification, and commit.
// Nothing outside the lock ever observes a half-applied operation, and the
// registry confirms each change before local state moves.
type ValidatorService struct {
	mu       sync.Mutex
	states   StateStore
	orgs     OrganizationStore
	registry jurisdiction.Client
	logger   *slog.Logger
	metrics  *metrics.Recorder
	audit    audit.Publisher
}

// Option configures the service.
type Option func(*ValidatorService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *ValidatorService) { s.logger = logger }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *ValidatorService) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *ValidatorService) { s.audit = p }
}

func New(states StateStore, orgs OrganizationStore, registry jurisdiction.Client, opts ...Option) *ValidatorService {
	s := &ValidatorService{
		states:   states,
		orgs:     orgs,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the validator state exactly once. The authenticated
// caller becomes the owner.
func (s *ValidatorService) Initialize(ctx context.Context, jurisdictionAddress id.Address, attributeID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := requestcontext.Actor(ctx)
	if owner.IsZero() {
		return models.ErrInvalidAddress
	}
	if jurisdictionAddress.IsZero() {
		return models.ErrInvalidAddress
	}

	state := &models.ValidatorState{
		Owner:               owner,
		JurisdictionAddress: jurisdictionAddress,
		AttributeID:         attributeID,
		InitializedAt:       requestcontext.Now(ctx),
	}
	if err := s.states.Initialize(ctx, state); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return models.ErrAlreadyInitialized
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "initializing validator")
	}

	s.logger.InfoContext(ctx, "validator initialized",
		"owner", owner,
		"jurisdiction", jurisdictionAddress,
		"attribute_id", attributeID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.emit(ctx, audit.EventValidatorInitialized, audit.Event{})
}

// AddOrganization registers a new delegate with an issuance capacity.
// Owner-only.
func (s *ValidatorService) AddOrganization(ctx context.Context, org id.Address, maxAddresses uint64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}
	if err := gate.RequireOwner(state, requestcontext.Actor(ctx)); err != nil {
		return err
	}

	aggregate, err := models.NewOrganization(org, maxAddresses, name, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	if err := s.orgs.Create(ctx, aggregate); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return models.ErrAlreadyExists
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "registering organization")
	}

	s.metrics.OrganizationRegistered()
	s.logger.InfoContext(ctx, "organization added",
		"organization", org,
		"name", name,
		"max_addresses", maxAddresses,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.emit(ctx, audit.EventOrganizationAdded, audit.Event{
		Organization: org,
		Name:         name,
	})
}

// SetMaximumAddresses changes an organization's capacity ceiling. The new
// ceiling may not go below the number of currently issued addresses.
// Owner-only.
func (s *ValidatorService) SetMaximumAddresses(ctx context.Context, org id.Address, newMax uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}
	if err := gate.RequireOwner(state, requestcontext.Actor(ctx)); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	_, err = s.orgs.Execute(ctx, org,
		func(o *models.Organization) error { return o.CanSetMaxAddresses(newMax) },
		func(o *models.Organization) { o.ApplySetMaxAddresses(newMax, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrNotFound
		}
		return err
	}

	s.logger.InfoContext(ctx, "organization capacity changed",
		"organization", org,
		"max_addresses", newMax,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.emit(ctx, audit.EventCapacityChanged, audit.Event{Organization: org})
}

// IssueAttribute issues the attribute to target on behalf of the calling
// organization. The grant goes to the jurisdiction registry first and is read
// back; only a confirmed grant is committed locally.
func (s *ValidatorService) IssueAttribute(ctx context.Context, target id.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("issue_attribute", start, err) }()

	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}
	if err := gate.RequireNotPaused(state); err != nil {
		return err
	}
	if err := gate.RequireIssuanceActive(state); err != nil {
		return err
	}
	if target.IsZero() {
		return models.ErrInvalidAddress
	}

	caller := requestcontext.Actor(ctx)
	org, err := s.callerOrganization(ctx, caller)
	if err != nil {
		return err
	}
	if err := org.CanIssue(target); err != nil {
		return err
	}

	if err := s.registry.Grant(ctx, target, state.AttributeID); err != nil {
		return s.registryErr(ctx, "grant", err)
	}
	held, err := s.registry.Has(ctx, target, state.AttributeID)
	if err != nil {
		return s.registryErr(ctx, "verify grant", err)
	}
	if !held {
		return s.desync(ctx, caller, target, "grant not visible on read-back")
	}

	now := requestcontext.Now(ctx)
	_, err = s.orgs.Execute(ctx, caller,
		func(o *models.Organization) error { return o.CanIssue(target) },
		func(o *models.Organization) { o.ApplyIssue(target, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return err
	}

	s.metrics.AttributeIssued()
	s.logger.InfoContext(ctx, "attribute issued",
		"organization", caller,
		"target", target,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.emit(ctx, audit.EventAttributeIssued, audit.Event{
		Organization: caller,
		Subject:      target,
	})
}

// RevokeAttribute revokes target's attribute on behalf of the calling
// organization. Issuance pause does not block revocation; the full pause does.
func (s *ValidatorService) RevokeAttribute(ctx context.Context, target id.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("revoke_attribute", start, err) }()

	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}
	if err := gate.RequireNotPaused(state); err != nil {
		return err
	}
	if target.IsZero() {
		return models.ErrInvalidAddress
	}

	caller := requestcontext.Actor(ctx)
	org, err := s.callerOrganization(ctx, caller)
	if err != nil {
		return err
	}
	if err := org.CanRevoke(target); err != nil {
		return err
	}

	if err := s.registry.Revoke(ctx, target, state.AttributeID); err != nil {
		return s.registryErr(ctx, "revoke", err)
	}
	held, err := s.registry.Has(ctx, target, state.AttributeID)
	if err != nil {
		return s.registryErr(ctx, "verify revoke", err)
	}
	if held {
		return s.desync(ctx, caller, target, "revoke not visible on read-back")
	}

	now := requestcontext.Now(ctx)
	_, err = s.orgs.Execute(ctx, caller,
		func(o *models.Organization) error { return o.CanRevoke(target) },
		func(o *models.Organization) { o.ApplyRevoke(target, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return err
	}

	s.metrics.AttributeRevoked()
	s.logger.InfoContext(ctx, "attribute revoked",
		"organization", caller,
		"target", target,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.emit(ctx, audit.EventAttributeRevoked, audit.Event{
		Organization: caller,
		Subject:      target,
	})
}

// Pause stops all attribute issuance and revocation. Owner-only, idempotent.
func (s *ValidatorService) Pause(ctx context.Context) error {
	return s.setPause(ctx, func(st *models.ValidatorState) { st.Paused = true }, audit.EventValidatorPaused)
}

// Unpause resumes attribute operations. Owner-only, idempotent.
func (s *ValidatorService) Unpause(ctx context.Context) error {
	return s.setPause(ctx, func(st *models.ValidatorState) { st.Paused = false }, audit.EventValidatorUnpaused)
}

// PauseIssuance stops issuance while leaving revocation available.
// Owner-only, idempotent.
func (s *ValidatorService) PauseIssuance(ctx context.Context) error {
	return s.setPause(ctx, func(st *models.ValidatorState) { st.IssuancePaused = true }, audit.EventIssuancePaused)
}

// UnpauseIssuance resumes issuance. Owner-only, idempotent.
func (s *ValidatorService) UnpauseIssuance(ctx context.Context) error {
	return s.setPause(ctx, func(st *models.ValidatorState) { st.IssuancePaused = false }, audit.EventIssuanceUnpaused)
}

func (s *ValidatorService) setPause(ctx context.Context, mutate func(*models.ValidatorState), action audit.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller := requestcontext.Actor(ctx)
	_, err := s.states.Execute(ctx,
		func(st *models.ValidatorState) error { return gate.RequireOwner(st, caller) },
		mutate,
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrNotInitialized
		}
		return err
	}

	s.logger.InfoContext(ctx, "pause state changed",
		"action", string(action),
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.emit(ctx, action, audit.Event{})
}

// ListOrganizations returns every registered organization address in
// registration order.
func (s *ValidatorService) ListOrganizations(ctx context.Context) ([]id.Address, error) {
	return s.orgs.List(ctx)
}

// GetOrganization returns the query snapshot for addr. Unknown addresses
// yield the zero Record with Exists=false, not an error.
func (s *ValidatorService) GetOrganization(ctx context.Context, addr id.Address) (models.Record, error) {
	org, err := s.orgs.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Record{}, nil
		}
		return models.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading organization")
	}
	return org.Record(), nil
}

// Info returns a snapshot of the validator state.
func (s *ValidatorService) Info(ctx context.Context) (*models.ValidatorState, error) {
	return s.currentState(ctx)
}

// JurisdictionAddress returns the registry address fixed at initialization.
func (s *ValidatorService) JurisdictionAddress(ctx context.Context) (id.Address, error) {
	state, err := s.currentState(ctx)
	if err != nil {
		return "", err
	}
	return state.JurisdictionAddress, nil
}

// AttributeID returns the attribute identifier fixed at initialization.
func (s *ValidatorService) AttributeID(ctx context.Context) (uint64, error) {
	state, err := s.currentState(ctx)
	if err != nil {
		return 0, err
	}
	return state.AttributeID, nil
}

// Paused reports whether the validator is fully paused.
func (s *ValidatorService) Paused(ctx context.Context) (bool, error) {
	state, err := s.currentState(ctx)
	if err != nil {
		return false, err
	}
	return state.Paused, nil
}

// IssuancePaused reports whether issuance alone is paused.
func (s *ValidatorService) IssuancePaused(ctx context.Context) (bool, error) {
	state, err := s.currentState(ctx)
	if err != nil {
		return false, err
	}
	return state.IssuancePaused, nil
}

func (s *ValidatorService) currentState(ctx context.Context) (*models.ValidatorState, error) {
	state, err := s.states.Get(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrNotInitialized
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading validator state")
	}
	return state, nil
}

// callerOrganization resolves the caller as a registered organization.
// Unregistered callers are unauthorized, not "not found": attribute routes
// never reveal which addresses are registered.
func (s *ValidatorService) callerOrganization(ctx context.Context, caller id.Address) (*models.Organization, error) {
	if caller.IsZero() {
		return nil, models.ErrUnauthorized
	}
	org, err := s.orgs.Find(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading caller organization")
	}
	return org, nil
}

func (s *ValidatorService) registryErr(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "jurisdiction registry call failed",
		"op", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("jurisdiction registry %s failed", op))
}

// desync records a failed read-back verification and aborts with local state
// untouched.
func (s *ValidatorService) desync(ctx context.Context, org, target id.Address, reason string) error {
	s.metrics.RegistryDesync()
	s.logger.ErrorContext(ctx, "jurisdiction registry desync",
		"organization", org,
		"target", target,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	if err := s.emit(ctx, audit.EventRegistryDesync, audit.Event{
		Organization: org,
		Subject:      target,
		Reason:       reason,
	}); err != nil {
		return err
	}
	return models.ErrRegistryDesync
}

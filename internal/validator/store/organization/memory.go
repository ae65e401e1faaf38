// Package organization persists Organization aggregates. Stores return
// sentinel errors; the service translates them into domain errors.
package organization

import (
	"context"
	"fmt"
	"sync"

	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

// InMemory keeps organizations in memory. The registration enumeration is
// append-only: addresses are recorded in registration order and never removed.
type InMemory struct {
	mu    sync.RWMutex
	byAdr map[id.Address]*models.Organization
	order []id.Address
}

func NewInMemory() *InMemory {
	return &InMemory{byAdr: make(map[id.Address]*models.Organization)}
}

// Create registers a new organization. Returns sentinel.ErrAlreadyUsed if the
// address is already registered.
func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byAdr[org.Address]; ok {
		return fmt.Errorf("organization %s: %w", org.Address, sentinel.ErrAlreadyUsed)
	}
	s.byAdr[org.Address] = org.Clone()
	s.order = append(s.order, org.Address)
	return nil
}

// Find returns a copy of the organization, or sentinel.ErrNotFound.
func (s *InMemory) Find(_ context.Context, addr id.Address) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.byAdr[addr]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", addr, sentinel.ErrNotFound)
	}
	return org.Clone(), nil
}

// List returns every registered address in registration order.
func (s *InMemory) List(_ context.Context) ([]id.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]id.Address, len(s.order))
	copy(out, s.order)
	return out, nil
}

// Execute runs validate then mutate on the organization while holding the
// store lock, so the check and the change are atomic with respect to other
// store calls. Returns a copy of the mutated aggregate.
func (s *InMemory) Execute(
	_ context.Context,
	addr id.Address,
	validate func(*models.Organization) error,
	mutate func(*models.Organization),
) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.byAdr[addr]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", addr, sentinel.ErrNotFound)
	}
	if err := validate(org); err != nil {
		return nil, err
	}
	mutate(org)
	return org.Clone(), nil
}

// Package state persists the singleton ValidatorState. Initialize is
// first-writer-wins; everything else reads or mutates the single record.
package state

import (
	"context"
	"sync"

	"attestor/internal/validator/models"
	"attestor/pkg/platform/sentinel"
)

// InMemory holds the validator state in memory.
type InMemory struct {
	mu    sync.RWMutex
	state *models.ValidatorState
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Initialize sets the state exactly once. A second call returns
// sentinel.ErrAlreadyUsed regardless of contents.
func (s *InMemory) Initialize(_ context.Context, st *models.ValidatorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		return sentinel.ErrAlreadyUsed
	}
	s.state = st.Clone()
	return nil
}

// Get returns a copy of the state, or sentinel.ErrNotFound before Initialize.
func (s *InMemory) Get(_ context.Context) (*models.ValidatorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.state.Clone(), nil
}

// Execute runs validate then mutate on the state under the store lock.
func (s *InMemory) Execute(
	_ context.Context,
	validate func(*models.ValidatorState) error,
	mutate func(*models.ValidatorState),
) (*models.ValidatorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(s.state); err != nil {
		return nil, err
	}
	mutate(s.state)
	return s.state.Clone(), nil
}

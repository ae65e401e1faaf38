// Package memory provides an in-memory audit store for tests and local runs.
package memory

import (
	"context"
	"sync"

	audit "attestor/pkg/platform/audit"
)

// Store keeps audit events in memory, in append order.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListByOrganization(_ context.Context, organization string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Organization.String() == organization {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every stored event, for test assertions.
func (s *Store) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

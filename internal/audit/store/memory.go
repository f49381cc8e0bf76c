// Package store provides audit trail persistence. InMemory doubles as the
// test fake; Postgres is the production backend.
package store

import (
	"context"
	"sync"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// InMemory is a thread-safe in-memory audit store.
type InMemory struct {
	mu     sync.RWMutex
	events map[domain.IdentityID][]audit.Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[domain.IdentityID][]audit.Event)}
}

func (s *InMemory) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.IdentityID] = append(s.events[event.IdentityID], event)
	return nil
}

func (s *InMemory) ListByIdentity(_ context.Context, identityID domain.IdentityID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[identityID]...), nil
}

func (s *InMemory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[domain.IdentityID][]audit.Event)
}

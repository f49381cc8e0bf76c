// Package store provides casework persistence. InMemory doubles as the test
// fake; Postgres is the production backend.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// InMemoryGuests is a thread-safe in-memory guest store.
type InMemoryGuests struct {
	mu     sync.RWMutex
	guests map[uuid.UUID]casework.Guest
}

func NewInMemoryGuests() *InMemoryGuests {
	return &InMemoryGuests{guests: make(map[uuid.UUID]casework.Guest)}
}

func (s *InMemoryGuests) Upsert(_ context.Context, guest *casework.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *guest
	stored.Tags = append([]string(nil), guest.Tags...)
	s.guests[guest.ID] = stored
	return nil
}

func (s *InMemoryGuests) Find(_ context.Context, id uuid.UUID) (*casework.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guest, ok := s.guests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := guest
	out.Tags = append([]string(nil), guest.Tags...)
	return &out, nil
}

// ListByOrg returns an organization's guests, newest first.
func (s *InMemoryGuests) ListByOrg(_ context.Context, orgID domain.OrgID) ([]casework.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []casework.Guest
	for _, guest := range s.guests {
		if guest.OrgID != orgID {
			continue
		}
		guest.Tags = append([]string(nil), guest.Tags...)
		out = append(out, guest)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryGuests) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guests[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.guests, id)
	return nil
}

// InMemoryVisits is a thread-safe in-memory visit store.
type InMemoryVisits struct {
	mu     sync.RWMutex
	visits map[uuid.UUID]casework.Visit
}

func NewInMemoryVisits() *InMemoryVisits {
	return &InMemoryVisits{visits: make(map[uuid.UUID]casework.Visit)}
}

func (s *InMemoryVisits) Insert(_ context.Context, visit *casework.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[visit.ID] = *visit
	return nil
}

func (s *InMemoryVisits) Find(_ context.Context, id uuid.UUID) (*casework.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visit, ok := s.visits[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := visit
	return &out, nil
}

// ListByGuest returns a guest's visits, most recent first.
func (s *InMemoryVisits) ListByGuest(_ context.Context, guestID uuid.UUID) ([]casework.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []casework.Visit
	for _, visit := range s.visits {
		if visit.GuestID == guestID {
			out = append(out, visit)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].VisitedAt.Equal(out[j].VisitedAt) {
			return out[i].VisitedAt.After(out[j].VisitedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryVisits) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visits[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.visits, id)
	return nil
}

func (s *InMemoryVisits) DeleteByGuest(_ context.Context, guestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, visit := range s.visits {
		if visit.GuestID == guestID {
			delete(s.visits, id)
		}
	}
	return nil
}

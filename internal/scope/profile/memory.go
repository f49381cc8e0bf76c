// Package profile persists the per-identity preferred scope, the durable
// cross-device half of the selection state.
package profile

import (
	"context"
	"sync"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// Memory is an in-process profile store for tests and single-node runs.
type Memory struct {
	mu       sync.RWMutex
	profiles map[domain.IdentityID]scope.Profile
	now      func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory builds an empty store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		profiles: make(map[domain.IdentityID]scope.Profile),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// EnsureExists creates an empty record if none exists. An existing record is
// left untouched.
func (m *Memory) EnsureExists(_ context.Context, identityID domain.IdentityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[identityID]; ok {
		return nil
	}
	m.profiles[identityID] = scope.Profile{
		IdentityID: identityID,
		UpdatedAt:  m.now().UTC(),
	}
	return nil
}

// Get returns the profile, or sentinel.ErrNotFound.
func (m *Memory) Get(_ context.Context, identityID domain.IdentityID) (*scope.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &profile, nil
}

// SavePreferred upserts the preferred selection.
func (m *Memory) SavePreferred(_ context.Context, identityID domain.IdentityID, preferred domain.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[identityID] = scope.Profile{
		IdentityID: identityID,
		Preferred:  preferred,
		UpdatedAt:  m.now().UTC(),
	}
	return nil
}

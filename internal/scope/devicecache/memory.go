// Package devicecache persists the last-used selection per device. The cache
// is a precedence source, not a source of truth: it may be stale, wiped, or
// unreachable, and the engine treats all three as an absent candidate.
package devicecache

import (
	"context"
	"sync"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// Memory is an in-process device cache for tests and single-node runs.
type Memory struct {
	mu         sync.RWMutex
	selections map[domain.DeviceID]domain.Selection
}

// NewMemory builds an empty cache.
func NewMemory() *Memory {
	return &Memory{selections: make(map[domain.DeviceID]domain.Selection)}
}

// Get returns the cached selection, or sentinel.ErrNotFound.
func (m *Memory) Get(_ context.Context, deviceID domain.DeviceID) (domain.Selection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	selection, ok := m.selections[deviceID]
	if !ok {
		return domain.Selection{}, sentinel.ErrNotFound
	}
	return selection, nil
}

// Set stores the selection for a device.
func (m *Memory) Set(_ context.Context, deviceID domain.DeviceID, selection domain.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections[deviceID] = selection
	return nil
}

// Forget drops a device's entry.
func (m *Memory) Forget(_ context.Context, deviceID domain.DeviceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.selections, deviceID)
	return nil
}

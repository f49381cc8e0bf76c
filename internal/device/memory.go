package device

import (
	"context"
	"sync"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// Memory is an in-process device store for tests and single-node runs.
type Memory struct {
	mu      sync.RWMutex
	devices map[domain.DeviceID]Device
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{devices: make(map[domain.DeviceID]Device)}
}

func (m *Memory) Insert(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *device
	if device.LastSeenAt != nil {
		at := *device.LastSeenAt
		stored.LastSeenAt = &at
	}
	m.devices[device.ID] = stored
	return nil
}

// Find returns one device, or sentinel.ErrNotFound.
func (m *Memory) Find(_ context.Context, id domain.DeviceID) (*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	device, ok := m.devices[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := device
	if device.LastSeenAt != nil {
		at := *device.LastSeenAt
		out.LastSeenAt = &at
	}
	return &out, nil
}

func (m *Memory) UpdateLastSeen(_ context.Context, id domain.DeviceID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	device.LastSeenAt = &at
	m.devices[id] = device
	return nil
}

func (m *Memory) Delete(_ context.Context, id domain.DeviceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.devices, id)
	return nil
}

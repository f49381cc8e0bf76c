// Package device is the enrollment registry for the devices that key the
// device scope cache. Enrollment mints a device id and a one-time secret;
// only the bcrypt hash is kept. Enrollment is an operational nicety, not a
// gate: unenrolled device ids still key the cache unless enforcement is
// switched on at the middleware.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/secrets"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

const (
	maxDisplayNameLength = 128
	defaultDisplayName   = "Unknown device"
)

// Device is one enrolled client installation.
type Device struct {
	ID          domain.DeviceID `json:"id"`
	DisplayName string          `json:"display_name"`
	SecretHash  string          `json:"-"`
	EnrolledAt  time.Time       `json:"enrolled_at"`
	LastSeenAt  *time.Time      `json:"last_seen_at,omitempty"`
}

// Enrollment pairs a freshly enrolled device with its plaintext secret. The
// secret is never reproducible after this value is dropped.
type Enrollment struct {
	Device Device `json:"device"`
	Secret string `json:"secret"`
}

// Store persists enrolled devices.
type Store interface {
	Insert(ctx context.Context, device *Device) error
	Find(ctx context.Context, id domain.DeviceID) (*Device, error)
	UpdateLastSeen(ctx context.Context, id domain.DeviceID, at time.Time) error
	Delete(ctx context.Context, id domain.DeviceID) error
}

// ScopeCache clears a removed device's remembered scope.
type ScopeCache interface {
	Forget(ctx context.Context, deviceID domain.DeviceID) error
}

// Registry manages device enrollment and credential checks.
type Registry struct {
	store  Store
	cache  ScopeCache
	logger *slog.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(store Store, cache ScopeCache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Enroll provisions a new device. An empty displayName falls back to a
// description of the calling client's User-Agent.
func (r *Registry) Enroll(ctx context.Context, displayName string) (*Enrollment, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > maxDisplayNameLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "display name exceeds maximum length")
	}
	if displayName == "" {
		displayName = DescribeUserAgent(requestcontext.UserAgent(ctx))
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, fmt.Errorf("enroll device: %w", err)
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("enroll device: %w", err)
	}

	device := Device{
		ID:          domain.DeviceID(uuid.NewString()),
		DisplayName: displayName,
		SecretHash:  hash,
		EnrolledAt:  requestcontext.Now(ctx).UTC(),
	}
	if err := r.store.Insert(ctx, &device); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "device was not enrolled")
	}

	r.logger.InfoContext(ctx, "device enrolled",
		"device_id", device.ID,
		"display_name", device.DisplayName,
	)
	return &Enrollment{Device: device, Secret: secret}, nil
}

// Get returns one enrolled device.
func (r *Registry) Get(ctx context.Context, id domain.DeviceID) (*Device, error) {
	device, err := r.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "device not enrolled")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "device could not be loaded")
	}
	return device, nil
}

// Verify checks a device credential and touches its last-seen time. An
// unknown device and a wrong secret fail the same way so callers cannot
// probe for enrolled ids.
func (r *Registry) Verify(ctx context.Context, id domain.DeviceID, secret string) error {
	device, err := r.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "device credential rejected")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "device could not be loaded")
	}
	if err := secrets.Verify(secret, device.SecretHash); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "device credential rejected")
	}

	if err := r.store.UpdateLastSeen(ctx, id, requestcontext.Now(ctx).UTC()); err != nil {
		r.logger.WarnContext(ctx, "device last-seen update failed",
			"device_id", id,
			"error", err,
		)
	}
	return nil
}

// Remove deletes an enrollment and forgets the device's cached scope.
func (r *Registry) Remove(ctx context.Context, id domain.DeviceID) error {
	if err := r.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "device not enrolled")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "device was not removed")
	}
	if err := r.cache.Forget(ctx, id); err != nil {
		r.logger.WarnContext(ctx, "cached scope for removed device not cleared",
			"device_id", id,
			"error", err,
		)
	}

	r.logger.InfoContext(ctx, "device removed", "device_id", id)
	return nil
}

// DescribeUserAgent turns a raw User-Agent header into a short display name
// like "Chrome on Windows 10".
func DescribeUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return defaultDisplayName
	}
	parsed := useragent.New(raw)
	name, _ := parsed.Browser()
	if name == "" {
		return defaultDisplayName
	}
	if os := parsed.OS(); os != "" {
		return name + " on " + os
	}
	return name
}

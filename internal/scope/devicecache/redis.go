package devicecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// Redis key prefix for device selections.
const deviceScopeKeyPrefix = "stc:scope:device:"

// defaultTTL keeps retired devices from pinning selections forever. Every
// write refreshes it, so any device in use never expires.
const defaultTTL = 90 * 24 * time.Hour

// Redis is the shared device cache for multi-node deployments.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithTTL overrides the entry lifetime. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// NewRedis builds a Redis-backed device cache.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.ttl < 0 {
		r.ttl = 0
	}
	return r
}

func deviceScopeKey(deviceID domain.DeviceID) string {
	return deviceScopeKeyPrefix + deviceID.String()
}

// Get returns the cached selection, or sentinel.ErrNotFound.
func (r *Redis) Get(ctx context.Context, deviceID domain.DeviceID) (domain.Selection, error) {
	raw, err := r.client.Get(ctx, deviceScopeKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Selection{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Selection{}, fmt.Errorf("get device scope: %w", err)
	}
	var selection domain.Selection
	if err := json.Unmarshal(raw, &selection); err != nil {
		return domain.Selection{}, fmt.Errorf("decode device scope: %w", err)
	}
	return selection, nil
}

// Set stores the selection and refreshes the TTL.
func (r *Redis) Set(ctx context.Context, deviceID domain.DeviceID, selection domain.Selection) error {
	raw, err := json.Marshal(selection)
	if err != nil {
		return fmt.Errorf("encode device scope: %w", err)
	}
	if err := r.client.Set(ctx, deviceScopeKey(deviceID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set device scope: %w", err)
	}
	return nil
}

// Forget drops a device's entry.
func (r *Redis) Forget(ctx context.Context, deviceID domain.DeviceID) error {
	if err := r.client.Del(ctx, deviceScopeKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("forget device scope: %w", err)
	}
	return nil
}

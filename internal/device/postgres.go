package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	txcontext "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/tx"
)

// Postgres is the production device store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execer(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Insert(ctx context.Context, device *Device) error {
	query := `
		INSERT INTO devices (id, display_name, secret_hash, enrolled_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var lastSeen sql.NullTime
	if device.LastSeenAt != nil {
		lastSeen = sql.NullTime{Time: *device.LastSeenAt, Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		device.ID.String(), device.DisplayName, device.SecretHash,
		device.EnrolledAt, lastSeen)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// Find returns one device, or sentinel.ErrNotFound.
func (s *Postgres) Find(ctx context.Context, id domain.DeviceID) (*Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, secret_hash, enrolled_at, last_seen_at
		FROM devices
		WHERE id = $1
	`, id.String())

	var (
		device   Device
		rawID    string
		lastSeen sql.NullTime
	)
	err := row.Scan(&rawID, &device.DisplayName, &device.SecretHash,
		&device.EnrolledAt, &lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find device: %w", err)
	}
	device.ID = domain.DeviceID(rawID)
	if lastSeen.Valid {
		at := lastSeen.Time
		device.LastSeenAt = &at
	}
	return &device, nil
}

func (s *Postgres) UpdateLastSeen(ctx context.Context, id domain.DeviceID, at time.Time) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE devices SET last_seen_at = $2 WHERE id = $1`, id.String(), at)
	if err != nil {
		return fmt.Errorf("update device last seen: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.DeviceID) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM devices WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

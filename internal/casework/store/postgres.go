package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	txcontext "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresGuests is the production guest store.
type PostgresGuests struct {
	db *sql.DB
}

func NewPostgresGuests(db *sql.DB) *PostgresGuests {
	return &PostgresGuests{db: db}
}

func (s *PostgresGuests) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Upsert stores or replaces a guest.
func (s *PostgresGuests) Upsert(ctx context.Context, guest *casework.Guest) error {
	query := `
		INSERT INTO guests (id, org_id, location_id, full_name, household_size, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			household_size = EXCLUDED.household_size,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
	`
	// The tags column is NOT NULL; a nil slice must write an empty array.
	tags := guest.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		guest.ID, guest.OrgID.String(), guest.LocationID.String(),
		guest.FullName, guest.HouseholdSize, pq.Array(tags),
		guest.CreatedAt, guest.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert guest: %w", err)
	}
	return nil
}

// Find returns one guest by id.
func (s *PostgresGuests) Find(ctx context.Context, id uuid.UUID) (*casework.Guest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, location_id, full_name, household_size, tags, created_at, updated_at
		FROM guests
		WHERE id = $1
	`, id)

	guest, err := scanGuest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find guest: %w", err)
	}
	return guest, nil
}

// ListByOrg returns an organization's guests, newest first.
func (s *PostgresGuests) ListByOrg(ctx context.Context, orgID domain.OrgID) ([]casework.Guest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, location_id, full_name, household_size, tags, created_at, updated_at
		FROM guests
		WHERE org_id = $1
		ORDER BY created_at DESC, id
	`, orgID.String())
	if err != nil {
		return nil, fmt.Errorf("query guests: %w", err)
	}
	defer rows.Close()

	var out []casework.Guest
	for rows.Next() {
		guest, err := scanGuest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		out = append(out, *guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w", err)
	}
	return out, nil
}

// Delete removes a guest.
func (s *PostgresGuests) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanGuest(scan func(...any) error) (*casework.Guest, error) {
	var (
		guest    casework.Guest
		org      string
		location string
		tags     pq.StringArray
	)
	if err := scan(&guest.ID, &org, &location, &guest.FullName,
		&guest.HouseholdSize, &tags, &guest.CreatedAt, &guest.UpdatedAt); err != nil {
		return nil, err
	}
	guest.OrgID = domain.OrgID(org)
	guest.LocationID = domain.LocationID(location)
	if len(tags) > 0 {
		guest.Tags = []string(tags)
	}
	return &guest, nil
}

// PostgresVisits is the production visit store.
type PostgresVisits struct {
	db *sql.DB
}

func NewPostgresVisits(db *sql.DB) *PostgresVisits {
	return &PostgresVisits{db: db}
}

func (s *PostgresVisits) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Insert stores a visit.
func (s *PostgresVisits) Insert(ctx context.Context, visit *casework.Visit) error {
	query := `
		INSERT INTO visits (id, guest_id, org_id, location_id, visited_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		visit.ID, visit.GuestID, visit.OrgID.String(), visit.LocationID.String(),
		visit.VisitedAt, visit.Notes)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Find returns one visit by id.
func (s *PostgresVisits) Find(ctx context.Context, id uuid.UUID) (*casework.Visit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, guest_id, org_id, location_id, visited_at, notes
		FROM visits
		WHERE id = $1
	`, id)

	visit, err := scanVisit(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visit: %w", err)
	}
	return visit, nil
}

// ListByGuest returns a guest's visits, most recent first.
func (s *PostgresVisits) ListByGuest(ctx context.Context, guestID uuid.UUID) ([]casework.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guest_id, org_id, location_id, visited_at, notes
		FROM visits
		WHERE guest_id = $1
		ORDER BY visited_at DESC, id
	`, guestID)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var out []casework.Visit
	for rows.Next() {
		visit, err := scanVisit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		out = append(out, *visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return out, nil
}

// Delete removes one visit.
func (s *PostgresVisits) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteByGuest removes a guest's whole visit history.
func (s *PostgresVisits) DeleteByGuest(ctx context.Context, guestID uuid.UUID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM visits WHERE guest_id = $1`, guestID)
	if err != nil {
		return fmt.Errorf("delete visits for guest: %w", err)
	}
	return nil
}

func scanVisit(scan func(...any) error) (*casework.Visit, error) {
	var (
		visit    casework.Visit
		org      string
		location string
	)
	if err := scan(&visit.ID, &visit.GuestID, &org, &location,
		&visit.VisitedAt, &visit.Notes); err != nil {
		return nil, err
	}
	visit.OrgID = domain.OrgID(org)
	visit.LocationID = domain.LocationID(location)
	return &visit, nil
}

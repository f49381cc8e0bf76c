package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	txcontext "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/tx"
)

// Postgres is the production catalog store.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if len(attrs) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(attrs)
}

func unmarshalAttributes(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var attrs map[string]string
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	return attrs, nil
}

// UpsertOrg stores or replaces an organization.
func (s *Postgres) UpsertOrg(ctx context.Context, org *models.Org) error {
	attrs, err := marshalAttributes(org.Attributes)
	if err != nil {
		return fmt.Errorf("encode organization attributes: %w", err)
	}

	query := `
		INSERT INTO organizations (id, name, status, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			attributes = EXCLUDED.attributes,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		org.ID.String(), org.Name, string(org.Status), attrs, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	return nil
}

// UpsertLocation stores or replaces a location.
func (s *Postgres) UpsertLocation(ctx context.Context, location *models.Location) error {
	attrs, err := marshalAttributes(location.Attributes)
	if err != nil {
		return fmt.Errorf("encode location attributes: %w", err)
	}

	query := `
		INSERT INTO org_locations (id, org_id, name, active, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			org_id = EXCLUDED.org_id,
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			attributes = EXCLUDED.attributes,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		location.ID.String(), location.OrgID.String(), location.Name, location.Active,
		attrs, location.CreatedAt, location.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}

// UpsertMembership stores or replaces a membership.
func (s *Postgres) UpsertMembership(ctx context.Context, membership *models.Membership) error {
	allowed := make([]string, 0, len(membership.AllowedLocationIDs))
	for _, locationID := range membership.AllowedLocationIDs {
		allowed = append(allowed, locationID.String())
	}

	query := `
		INSERT INTO memberships (identity_id, org_id, role, status, allowed_location_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::text[], $6, $7)
		ON CONFLICT (identity_id, org_id) DO UPDATE SET
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			allowed_location_ids = EXCLUDED.allowed_location_ids,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		membership.IdentityID.String(), membership.OrgID.String(),
		string(membership.Role), string(membership.Status),
		pq.Array(allowed), membership.CreatedAt, membership.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

// RemoveMembership deletes a membership.
func (s *Postgres) RemoveMembership(ctx context.Context, identityID domain.IdentityID, orgID domain.OrgID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM memberships WHERE identity_id = $1 AND org_id = $2`,
		identityID.String(), orgID.String())
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete membership rows: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindOrg returns one organization.
func (s *Postgres) FindOrg(ctx context.Context, orgID domain.OrgID) (*models.Org, error) {
	var (
		org    models.Org
		id     string
		status string
		attrs  []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, attributes, created_at, updated_at FROM organizations WHERE id = $1`,
		orgID.String()).Scan(&id, &org.Name, &status, &attrs, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	org.ID = domain.OrgID(id)
	org.Status = models.OrgStatus(status)
	if org.Attributes, err = unmarshalAttributes(attrs); err != nil {
		return nil, fmt.Errorf("decode organization attributes: %w", err)
	}
	return &org, nil
}

// ListOrgs returns the whole catalog in catalog order: name ascending, ID as
// tiebreak.
func (s *Postgres) ListOrgs(ctx context.Context) ([]models.Org, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, attributes, created_at, updated_at
		FROM organizations
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	var out []models.Org
	for rows.Next() {
		var (
			org    models.Org
			id     string
			status string
			attrs  []byte
		)
		if err := rows.Scan(&id, &org.Name, &status, &attrs, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		org.ID = domain.OrgID(id)
		org.Status = models.OrgStatus(status)
		if org.Attributes, err = unmarshalAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode organization attributes: %w", err)
		}
		out = append(out, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return out, nil
}

// ListLocations returns an organization's locations in catalog order:
// name ascending, ID as tiebreak.
func (s *Postgres) ListLocations(ctx context.Context, orgID domain.OrgID) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, name, active, attributes, created_at, updated_at
		FROM org_locations
		WHERE org_id = $1
		ORDER BY name ASC, id ASC
	`, orgID.String())
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var (
			location models.Location
			id       string
			org      string
			attrs    []byte
		)
		if err := rows.Scan(&id, &org, &location.Name, &location.Active, &attrs,
			&location.CreatedAt, &location.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		location.ID = domain.LocationID(id)
		location.OrgID = domain.OrgID(org)
		if location.Attributes, err = unmarshalAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode location attributes: %w", err)
		}
		out = append(out, location)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}

// ListMemberships returns every membership of an identity, oldest first.
func (s *Postgres) ListMemberships(ctx context.Context, identityID domain.IdentityID) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity_id, org_id, role, status, allowed_location_ids, created_at, updated_at
		FROM memberships
		WHERE identity_id = $1
		ORDER BY created_at ASC, org_id ASC
	`, identityID.String())
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var out []models.Membership
	for rows.Next() {
		var (
			membership models.Membership
			identity   string
			org        string
			role       string
			status     string
			allowed    []string
		)
		if err := rows.Scan(&identity, &org, &role, &status, pq.Array(&allowed),
			&membership.CreatedAt, &membership.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		membership.IdentityID = domain.IdentityID(identity)
		membership.OrgID = domain.OrgID(org)
		membership.Role = models.Role(role)
		membership.Status = models.MembershipStatus(status)
		membership.AllowedLocationIDs = make([]domain.LocationID, 0, len(allowed))
		for _, locationID := range allowed {
			membership.AllowedLocationIDs = append(membership.AllowedLocationIDs, domain.LocationID(locationID))
		}
		out = append(out, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return out, nil
}

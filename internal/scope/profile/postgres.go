package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	txcontext "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/tx"
)

const (
	queryEnsureProfile = `
		INSERT INTO scope_profiles (identity_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (identity_id) DO NOTHING`

	querySavePreferred = `
		INSERT INTO scope_profiles (identity_id, preferred_org_id, preferred_location, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity_id) DO UPDATE SET
			preferred_org_id = EXCLUDED.preferred_org_id,
			preferred_location = EXCLUDED.preferred_location,
			updated_at = EXCLUDED.updated_at`

	queryGetProfile = `
		SELECT identity_id, preferred_org_id, preferred_location, updated_at
		FROM scope_profiles
		WHERE identity_id = $1`
)

// Postgres is the production profile store. The preferred location is stored
// in its wire form: empty for none, the ALL token for org-wide, the location
// id otherwise.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithPostgresClock overrides the timestamp source.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(s *Postgres) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPostgres builds a profile store over the given database.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	s := &Postgres{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
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

// EnsureExists creates an empty record if none exists. An existing record,
// including its scope fields, is left untouched.
func (s *Postgres) EnsureExists(ctx context.Context, identityID domain.IdentityID) error {
	_, err := s.execer(ctx).ExecContext(ctx, queryEnsureProfile,
		identityID.String(), s.now().UTC())
	if err != nil {
		return fmt.Errorf("ensure scope profile: %w", err)
	}
	return nil
}

// Get returns the profile, or sentinel.ErrNotFound.
func (s *Postgres) Get(ctx context.Context, identityID domain.IdentityID) (*scope.Profile, error) {
	var (
		rawIdentity string
		rawOrg      string
		rawLocation string
		updatedAt   time.Time
	)
	err := s.db.QueryRowContext(ctx, queryGetProfile, identityID.String()).
		Scan(&rawIdentity, &rawOrg, &rawLocation, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scope profile: %w", err)
	}

	location, err := domain.ParseLocationRef(rawLocation)
	if err != nil {
		return nil, fmt.Errorf("decode scope profile location: %w", err)
	}

	return &scope.Profile{
		IdentityID: domain.IdentityID(rawIdentity),
		Preferred: domain.Selection{
			OrgID:    domain.OrgID(rawOrg),
			Location: location,
		},
		UpdatedAt: updatedAt,
	}, nil
}

// SavePreferred upserts the preferred selection.
func (s *Postgres) SavePreferred(ctx context.Context, identityID domain.IdentityID, preferred domain.Selection) error {
	_, err := s.execer(ctx).ExecContext(ctx, querySavePreferred,
		identityID.String(),
		preferred.OrgID.String(),
		preferred.Location.Token(),
		s.now().UTC())
	if err != nil {
		return fmt.Errorf("save preferred scope: %w", err)
	}
	return nil
}

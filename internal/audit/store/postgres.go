package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	txcontext "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/tx"
)

// Postgres is the production audit store.
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

// Append writes one audit event.
func (s *Postgres) Append(ctx context.Context, event audit.Event) error {
	metadata := []byte("{}")
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events
			(id, occurred_at, kind, identity_id, device_id, org_id, location, source, request_id, client_ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID, event.OccurredAt, string(event.Kind),
		event.IdentityID.String(), event.DeviceID.String(),
		event.Selection.OrgID.String(), event.Selection.Location.Token(),
		event.Source, event.RequestID, event.ClientIP, event.UserAgent, metadata)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByIdentity returns an identity's trail, most recent first.
func (s *Postgres) ListByIdentity(ctx context.Context, identityID domain.IdentityID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, kind, identity_id, device_id, org_id, location, source, request_id, client_ip, user_agent, metadata
		FROM audit_events
		WHERE identity_id = $1
		ORDER BY occurred_at DESC
	`, identityID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			id       uuid.UUID
			kind     string
			identity string
			device   string
			org      string
			location string
			metadata []byte
		)
		if err := rows.Scan(&id, &event.OccurredAt, &kind, &identity, &device,
			&org, &location, &event.Source, &event.RequestID, &event.ClientIP,
			&event.UserAgent, &metadata); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id
		event.Kind = audit.Kind(kind)
		event.IdentityID = domain.IdentityID(identity)
		event.DeviceID = domain.DeviceID(device)
		event.Selection.OrgID = domain.OrgID(org)
		if event.Selection.Location, err = domain.ParseLocationRef(location); err != nil {
			return nil, fmt.Errorf("decode audit location: %w", err)
		}
		if len(metadata) > 0 && string(metadata) != "{}" {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

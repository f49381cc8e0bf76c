// Package audit records the scope trail: every resolution outcome and every
// accepted scope mutation. Recording is fire-and-forget so the engine never
// blocks on, or fails because of, its audit sinks.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// Kind classifies audit events.
type Kind string

const (
	// KindScopeResolved is emitted once per completed resolution pass.
	KindScopeResolved Kind = "scope_resolved"
	// KindOrgSwitched is emitted when an identity changes active organization.
	KindOrgSwitched Kind = "org_switched"
	// KindLocationSwitched is emitted when an identity changes active location.
	KindLocationSwitched Kind = "location_switched"
	// KindDefaultSaved is emitted when a device scope is saved as the
	// cross-device default.
	KindDefaultSaved Kind = "default_saved"
	// KindSignedOut is emitted when a session is torn down.
	KindSignedOut Kind = "signed_out"
)

// Event is one entry in the scope trail. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Kind       Kind              `json:"kind"`
	IdentityID domain.IdentityID `json:"identity_id"`
	DeviceID   domain.DeviceID   `json:"device_id,omitempty"`
	Selection  domain.Selection  `json:"selection"`
	// Source names which precedence source produced the selection:
	// device_cache, profile, fallback, or action for explicit mutations.
	Source    string            `json:"source,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives drained audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink.
type Store interface {
	Sink
	ListByIdentity(ctx context.Context, identityID domain.IdentityID) ([]Event, error)
}

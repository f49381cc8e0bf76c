// Package scope is the working-scope engine. Per identity it reconciles the
// device cache, the server profile, and live membership data into one active
// organization/location pair, derives the capability set for that pair, and
// keeps both stores healed as catalog data drifts underneath them.
package scope

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Directory,DeviceCache,ProfileStore,AuditTrail

import (
	"context"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// Directory supplies the read-only catalog and membership projections the
// engine resolves against. Implementations return sentinel.ErrNotFound for
// missing organizations; any other error is treated as transient.
type Directory interface {
	ListOrgs(ctx context.Context) ([]models.Org, error)
	FindOrg(ctx context.Context, orgID domain.OrgID) (*models.Org, error)
	ListLocations(ctx context.Context, orgID domain.OrgID) ([]models.Location, error)
	ListMemberships(ctx context.Context, identityID domain.IdentityID) ([]models.Membership, error)
}

// DeviceCache holds the last-used selection per device. Adapters report
// failures honestly; swallowing them is the engine's policy, not theirs.
type DeviceCache interface {
	// Get returns sentinel.ErrNotFound when the device has no cached scope.
	Get(ctx context.Context, deviceID domain.DeviceID) (domain.Selection, error)
	Set(ctx context.Context, deviceID domain.DeviceID, selection domain.Selection) error
}

// Profile is the per-identity server scope record, durable across devices.
type Profile struct {
	IdentityID domain.IdentityID `json:"identity_id"`
	Preferred  domain.Selection  `json:"preferred"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ProfileStore persists the preferred scope per identity.
type ProfileStore interface {
	// EnsureExists creates the record if absent. It never touches the
	// scope fields of an existing record, and never sets them on create.
	EnsureExists(ctx context.Context, identityID domain.IdentityID) error
	// Get returns sentinel.ErrNotFound when no record exists.
	Get(ctx context.Context, identityID domain.IdentityID) (*Profile, error)
	SavePreferred(ctx context.Context, identityID domain.IdentityID, preferred domain.Selection) error
}

// AuditTrail receives engine outcomes. Implementations must not block.
type AuditTrail interface {
	Record(ctx context.Context, event audit.Event, kv ...any)
}

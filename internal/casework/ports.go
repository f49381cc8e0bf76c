package casework

import (
	"context"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// GuestStore persists guest records. Implementations return
// sentinel.ErrNotFound for missing rows.
type GuestStore interface {
	Upsert(ctx context.Context, guest *Guest) error
	Find(ctx context.Context, id uuid.UUID) (*Guest, error)
	ListByOrg(ctx context.Context, orgID domain.OrgID) ([]Guest, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VisitStore persists visit records. Deleting a guest cascades to its
// visits.
type VisitStore interface {
	Insert(ctx context.Context, visit *Visit) error
	Find(ctx context.Context, id uuid.UUID) (*Visit, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID) ([]Visit, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByGuest(ctx context.Context, guestID uuid.UUID) error
}

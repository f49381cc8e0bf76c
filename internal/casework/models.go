// Package casework holds the guest and visit records the food programs keep.
// It is the first consumer of the scope engine: every operation is gated by
// a capability and bound to the caller's active organization and location.
package casework

import (
	"time"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	pstrings "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/strings"
)

const maxNameLength = 256

// Guest is one client record. LocationID names the site the guest was
// registered at; it is empty for org-level records created under an
// org-wide or cleared location scope.
type Guest struct {
	ID            uuid.UUID         `json:"id"`
	OrgID         domain.OrgID      `json:"org_id"`
	LocationID    domain.LocationID `json:"location_id,omitempty"`
	FullName      string            `json:"full_name"`
	HouseholdSize int               `json:"household_size"`
	Tags          []string          `json:"tags,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewGuest validates and builds a guest record.
func NewGuest(orgID domain.OrgID, locationID domain.LocationID, fullName string, householdSize int, tags []string, now time.Time) (*Guest, error) {
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "guest requires an organization")
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest name cannot be empty")
	}
	if len(fullName) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "guest name exceeds maximum length")
	}
	if householdSize < 1 {
		householdSize = 1
	}
	return &Guest{
		ID:            uuid.New(),
		OrgID:         orgID,
		LocationID:    locationID,
		FullName:      fullName,
		HouseholdSize: householdSize,
		Tags:          pstrings.DedupeAndTrimLower(tags),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Visit is one service interaction with a guest: a pantry pickup, a meal,
// a delivery.
type Visit struct {
	ID         uuid.UUID         `json:"id"`
	GuestID    uuid.UUID         `json:"guest_id"`
	OrgID      domain.OrgID      `json:"org_id"`
	LocationID domain.LocationID `json:"location_id,omitempty"`
	VisitedAt  time.Time         `json:"visited_at"`
	Notes      string            `json:"notes,omitempty"`
}

// NewVisit validates and builds a visit record.
func NewVisit(guest *Guest, locationID domain.LocationID, notes string, at time.Time) (*Visit, error) {
	if guest == nil || guest.ID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "visit requires a guest")
	}
	return &Visit{
		ID:         uuid.New(),
		GuestID:    guest.ID,
		OrgID:      guest.OrgID,
		LocationID: locationID,
		VisitedAt:  at,
		Notes:      notes,
	}, nil
}

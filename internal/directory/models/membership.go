package models

import (
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

// Role is the access level a membership grants within its organization.
type Role string

const (
	// RoleAdmin manages the organization. An admin with an empty location
	// allow-list has org-wide access.
	RoleAdmin Role = "admin"
	// RoleVolunteer works front-of-house. A volunteer only ever sees the
	// locations on their allow-list; an empty list means no access.
	RoleVolunteer Role = "volunteer"
)

// ParseRole validates a stored role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleVolunteer:
		return Role(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown membership role")
	}
}

// MembershipStatus captures the lifecycle state of a membership.
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusSuspended MembershipStatus = "suspended"
	MembershipStatusInactive  MembershipStatus = "inactive"
)

// ParseMembershipStatus validates a stored status string.
func ParseMembershipStatus(raw string) (MembershipStatus, error) {
	switch MembershipStatus(raw) {
	case MembershipStatusActive, MembershipStatusSuspended, MembershipStatusInactive:
		return MembershipStatus(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown membership status")
	}
}

// Membership ties an identity to an organization with a role and an optional
// location allow-list.
//
// Invariants:
//   - At most one membership per (identity, organization) pair
//   - Only active memberships contribute scope; suspended and inactive ones
//     are excluded entirely during resolution
//   - AllowedLocationIDs is meaningful per role: empty means org-wide for an
//     admin but no access for a volunteer
type Membership struct {
	IdentityID         domain.IdentityID   `json:"identity_id"`
	OrgID              domain.OrgID        `json:"org_id"`
	Role               Role                `json:"role"`
	Status             MembershipStatus    `json:"status"`
	AllowedLocationIDs []domain.LocationID `json:"allowed_location_ids"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}

func NewMembership(identityID domain.IdentityID, orgID domain.OrgID, role Role, now time.Time) (*Membership, error) {
	if identityID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "membership requires an identity")
	}
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "membership requires an organization")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &Membership{
		IdentityID: identityID,
		OrgID:      orgID,
		Role:       role,
		Status:     MembershipStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

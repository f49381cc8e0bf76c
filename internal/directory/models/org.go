// Package models holds the organization catalog aggregates: organizations,
// their locations, and identity memberships. The catalog is owned by the
// back-office service; this process reads it to resolve working scope.
package models

import (
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

// OrgStatus captures the lifecycle state of an organization.
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// Org is one organization in the catalog.
//
// Attributes carries the back-office's free-form fields (contact info,
// program tags) that this service stores but never interprets.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - A suspended organization never contributes scope: its memberships are
//     ignored during resolution even when individually active
type Org struct {
	ID         domain.OrgID      `json:"id"`
	Name       string            `json:"name"`
	Status     OrgStatus         `json:"status"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (o *Org) IsActive() bool {
	return o.Status == OrgStatusActive
}

func NewOrg(orgID domain.OrgID, name string, now time.Time) (*Org, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name must be 128 characters or less")
	}
	return &Org{
		ID:        orgID,
		Name:      name,
		Status:    OrgStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Location is one physical site of an organization. Attributes carries the
// same free-form back-office fields as Org.
type Location struct {
	ID         domain.LocationID `json:"id"`
	OrgID      domain.OrgID      `json:"org_id"`
	Name       string            `json:"name"`
	Active     bool              `json:"active"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func NewLocation(locationID domain.LocationID, orgID domain.OrgID, name string, now time.Time) (*Location, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "location name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "location name must be 128 characters or less")
	}
	return &Location{
		ID:        locationID,
		OrgID:     orgID,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

package handler

import (
	"time"

	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

const maxNameLength = 256

// CreateGuestRequest registers a new guest.
type CreateGuestRequest struct {
	FullName      string   `json:"full_name"`
	HouseholdSize int      `json:"household_size"`
	Tags          []string `json:"tags"`
}

func (r *CreateGuestRequest) Validate() error {
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "full_name is required")
	}
	if len(r.FullName) > maxNameLength {
		return dErrors.New(dErrors.CodeInvalidInput, "full_name exceeds maximum length")
	}
	return nil
}

// UpdateGuestRequest changes guest fields. Absent fields keep their current
// value; tags, when present, replace the whole set.
type UpdateGuestRequest struct {
	FullName      *string  `json:"full_name"`
	HouseholdSize *int     `json:"household_size"`
	Tags          []string `json:"tags"`
}

func (r *UpdateGuestRequest) Validate() error {
	if r.FullName != nil {
		if *r.FullName == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "full_name cannot be empty")
		}
		if len(*r.FullName) > maxNameLength {
			return dErrors.New(dErrors.CodeInvalidInput, "full_name exceeds maximum length")
		}
	}
	if r.HouseholdSize != nil && *r.HouseholdSize < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "household_size must be at least 1")
	}
	return nil
}

// LogVisitRequest records a visit. A zero visited_at means now.
type LogVisitRequest struct {
	Notes     string    `json:"notes"`
	VisitedAt time.Time `json:"visited_at"`
}

func (r *LogVisitRequest) Validate() error { return nil }

package handler

import "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"

// GuestListResponse wraps the guest listing.
type GuestListResponse struct {
	Guests []casework.Guest `json:"guests"`
}

// VisitListResponse wraps a guest's visit history.
type VisitListResponse struct {
	Visits []casework.Visit `json:"visits"`
}

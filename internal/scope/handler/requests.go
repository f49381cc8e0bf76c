package handler

import (
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// SetOrgRequest selects the active organization. An empty org_id clears the
// selection.
type SetOrgRequest struct {
	OrgID string `json:"org_id"`

	parsedOrgID domain.OrgID
}

// Validate parses the organization id. Empty is allowed and means clear.
func (r *SetOrgRequest) Validate() error {
	if r.OrgID == "" {
		return nil
	}
	orgID, err := domain.ParseOrgID(r.OrgID)
	if err != nil {
		return err
	}
	r.parsedOrgID = orgID
	return nil
}

// ParsedOrgID returns the validated organization id, zero when clearing.
func (r *SetOrgRequest) ParsedOrgID() domain.OrgID { return r.parsedOrgID }

// SetLocationRequest selects the active location: null clears it, "ALL"
// requests org-wide, anything else is a location id. Parsing happens during
// JSON decoding via the reference's own unmarshaller.
type SetLocationRequest struct {
	Location domain.LocationRef `json:"location"`
}

// Validate is satisfied by decoding.
func (r *SetLocationRequest) Validate() error { return nil }

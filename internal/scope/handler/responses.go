package handler

import (
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// LocationPayload is one visible location.
type LocationPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrgPayload is one visible organization with the caller's standing in it.
type OrgPayload struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Role      string            `json:"role"`
	OrgWide   bool              `json:"org_wide"`
	Locations []LocationPayload `json:"locations"`
}

// IdentityPayload echoes the asserted identity.
type IdentityPayload struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Master bool   `json:"master"`
}

// ScopeResponse is the full working-scope snapshot returned by every scope
// endpoint. During resolving it carries the last completed pass, if any.
type ScopeResponse struct {
	State         string           `json:"state"`
	Identity      IdentityPayload  `json:"identity"`
	Selection     domain.Selection `json:"selection"`
	Role          string           `json:"role,omitempty"`
	Organizations []OrgPayload     `json:"organizations"`
	Capabilities  []string         `json:"capabilities"`
}

// FromContext renders a session snapshot.
func FromContext(sc scope.Context) ScopeResponse {
	orgs := make([]OrgPayload, 0, len(sc.Orgs))
	for i := range sc.Orgs {
		grant := &sc.Orgs[i]
		locations := make([]LocationPayload, 0, len(grant.Locations))
		for _, location := range grant.Locations {
			locations = append(locations, LocationPayload{
				ID:   location.ID.String(),
				Name: location.Name,
			})
		}
		orgs = append(orgs, OrgPayload{
			ID:        grant.Org.ID.String(),
			Name:      grant.Org.Name,
			Role:      string(grant.Role),
			OrgWide:   grant.OrgWide,
			Locations: locations,
		})
	}

	tags := sc.Capabilities.Tags()
	capabilities := make([]string, 0, len(tags))
	for _, tag := range tags {
		capabilities = append(capabilities, string(tag))
	}

	return ScopeResponse{
		State: string(sc.State),
		Identity: IdentityPayload{
			ID:     sc.Identity.ID.String(),
			Email:  sc.Identity.Email,
			Master: sc.Master,
		},
		Selection:     sc.Selection,
		Role:          string(sc.Role),
		Organizations: orgs,
		Capabilities:  capabilities,
	}
}

package scope

import (
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// OrgGrant is the engine's resolved view of one organization an identity may
// act in: the organization itself, the role held there, and the locations
// visible under that role's access rules.
type OrgGrant struct {
	Org     models.Org
	Role    models.Role
	OrgWide bool
	// AllowList is the membership's normalized location allow-list in row
	// order. Empty for org-wide grants.
	AllowList []domain.LocationID
	// Locations are the visible locations in catalog order, already
	// filtered to the allow-list unless the grant is org-wide.
	Locations []models.Location
}

// HasLocation reports whether a location is visible under this grant.
func (g *OrgGrant) HasLocation(locationID domain.LocationID) bool {
	for i := range g.Locations {
		if g.Locations[i].ID == locationID {
			return true
		}
	}
	return false
}

// DefaultLocation picks the fallback location for this organization:
// org-wide access takes the first catalog location, an allow-listed grant
// takes its first surviving allow-list entry, anything else has none.
func (g *OrgGrant) DefaultLocation() domain.LocationRef {
	if g.OrgWide {
		if len(g.Locations) > 0 {
			return domain.SingleLocation(g.Locations[0].ID)
		}
		return domain.NoLocation()
	}
	for _, locationID := range g.AllowList {
		if g.HasLocation(locationID) {
			return domain.SingleLocation(locationID)
		}
	}
	return domain.NoLocation()
}

// Grants is the full resolved access snapshot for one identity. It is built
// once per resolution pass and never mutated afterwards, so readers may hold
// it without copying.
type Grants struct {
	Master bool
	Orgs   []OrgGrant
	index  map[domain.OrgID]int
}

// NewGrants builds a snapshot from grants already in stable catalog order.
func NewGrants(master bool, orgs []OrgGrant) *Grants {
	index := make(map[domain.OrgID]int, len(orgs))
	for i := range orgs {
		index[orgs[i].Org.ID] = i
	}
	return &Grants{Master: master, Orgs: orgs, index: index}
}

// Empty reports whether the identity can act in no organization at all.
func (g *Grants) Empty() bool {
	return g == nil || len(g.Orgs) == 0
}

// HasOrg reports whether the organization is in the visible set.
func (g *Grants) HasOrg(orgID domain.OrgID) bool {
	_, ok := g.Grant(orgID)
	return ok
}

// Grant returns the grant for one organization.
func (g *Grants) Grant(orgID domain.OrgID) (*OrgGrant, bool) {
	if g == nil || orgID.IsZero() {
		return nil, false
	}
	i, ok := g.index[orgID]
	if !ok {
		return nil, false
	}
	return &g.Orgs[i], true
}

// FirstOrg returns the first organization in the stable order.
func (g *Grants) FirstOrg() (domain.OrgID, bool) {
	if g.Empty() {
		return "", false
	}
	return g.Orgs[0].Org.ID, true
}

// RoleFor returns the role held in an organization.
func (g *Grants) RoleFor(orgID domain.OrgID) (models.Role, bool) {
	grant, ok := g.Grant(orgID)
	if !ok {
		return "", false
	}
	return grant.Role, true
}

// OrgWideFor reports whether the identity has org-wide location access in an
// organization: master, or an admin grant with an empty allow-list.
func (g *Grants) OrgWideFor(orgID domain.OrgID) bool {
	grant, ok := g.Grant(orgID)
	return ok && grant.OrgWide
}

// ValidLocation reports whether a location reference is acceptable for an
// organization under current access rules. None is always acceptable, the
// org-wide reference requires org-wide access, and a concrete location must
// be visible under the grant.
func (g *Grants) ValidLocation(orgID domain.OrgID, ref domain.LocationRef) bool {
	grant, ok := g.Grant(orgID)
	if !ok {
		return false
	}
	switch {
	case ref.IsNone():
		return true
	case ref.IsAll():
		return grant.OrgWide
	default:
		locationID, _ := ref.ID()
		return grant.HasLocation(locationID)
	}
}

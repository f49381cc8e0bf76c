// Package capability maps the role an identity holds in its active
// organization to the actions the application may offer. The mapping is a
// pure function of (role, master flag); it never consults storage.
package capability

import (
	"sort"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
)

// Capability tags one guarded application action.
type Capability string

const (
	ViewDashboard Capability = "dashboard.view"
	CreateGuest   Capability = "guest.create"
	EditGuest     Capability = "guest.edit"
	DeleteGuest   Capability = "guest.delete"
	LogVisit      Capability = "visit.log"
	DeleteVisit   Capability = "visit.delete"
	ViewReports   Capability = "reports.view"
	ManageOrg     Capability = "org.manage"
)

// known lists every capability in stable order.
var known = []Capability{
	ViewDashboard,
	CreateGuest,
	EditGuest,
	DeleteGuest,
	LogVisit,
	DeleteVisit,
	ViewReports,
	ManageOrg,
}

// roleTable is the static role to capability mapping. Admins never consult
// it: admin of the active organization bypasses every check, as does master.
var roleTable = map[models.Role][]Capability{
	models.RoleVolunteer: {
		ViewDashboard,
		CreateGuest,
		EditGuest,
		LogVisit,
	},
}

// Set is the evaluated capability set for one (identity, active org) pair.
// The zero value grants nothing.
type Set struct {
	bypass bool
	tags   map[Capability]struct{}
}

// Evaluate derives the capability set for the role held in the active
// organization. Master and admin bypass the role table entirely.
func Evaluate(role models.Role, master bool) Set {
	if master || role == models.RoleAdmin {
		return Set{bypass: true}
	}
	caps, ok := roleTable[role]
	if !ok {
		return Set{}
	}
	tags := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		tags[c] = struct{}{}
	}
	return Set{tags: tags}
}

// None returns the empty set granted outside any organization.
func None() Set { return Set{} }

// Has reports whether the set grants one capability.
func (s Set) Has(c Capability) bool {
	if s.bypass {
		return true
	}
	_, ok := s.tags[c]
	return ok
}

// HasAll reports whether the set grants every listed capability.
func (s Set) HasAll(caps ...Capability) bool {
	for _, c := range caps {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Tags returns the granted capabilities in stable order. A bypass set
// reports every known capability.
func (s Set) Tags() []Capability {
	if s.bypass {
		return append([]Capability(nil), known...)
	}
	out := make([]Capability, 0, len(s.tags))
	for c := range s.tags {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Convenience predicates for the fixed capability set.

func (s Set) CanViewDashboard() bool { return s.Has(ViewDashboard) }
func (s Set) CanCreateGuest() bool   { return s.Has(CreateGuest) }
func (s Set) CanEditGuest() bool     { return s.Has(EditGuest) }
func (s Set) CanDeleteGuest() bool   { return s.Has(DeleteGuest) }
func (s Set) CanLogVisit() bool      { return s.Has(LogVisit) }
func (s Set) CanDeleteVisit() bool   { return s.Has(DeleteVisit) }
func (s Set) CanViewReports() bool   { return s.Has(ViewReports) }
func (s Set) CanManageOrg() bool     { return s.Has(ManageOrg) }

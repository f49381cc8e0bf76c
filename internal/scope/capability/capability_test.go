package capability

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
)

// Justification for unit tests: capability evaluation gates every casework
// action. These tests pin the role table, the admin and master bypass, and
// the empty-role floor so a table edit cannot silently widen access.

type CapabilitySuite struct {
	suite.Suite
}

func TestCapabilitySuite(t *testing.T) {
	suite.Run(t, new(CapabilitySuite))
}

func (s *CapabilitySuite) TestVolunteer() {
	set := Evaluate(models.RoleVolunteer, false)

	s.Run("front of house capabilities only", func() {
		s.True(set.CanViewDashboard())
		s.True(set.CanCreateGuest())
		s.True(set.CanEditGuest())
		s.True(set.CanLogVisit())
	})

	s.Run("no destructive or administrative capabilities", func() {
		s.False(set.CanDeleteGuest())
		s.False(set.CanDeleteVisit())
		s.False(set.CanViewReports())
		s.False(set.CanManageOrg())
	})

	s.Run("tags list matches the predicates", func() {
		s.ElementsMatch(
			[]Capability{ViewDashboard, CreateGuest, EditGuest, LogVisit},
			set.Tags(),
		)
	})
}

func (s *CapabilitySuite) TestAdminBypassesTable() {
	set := Evaluate(models.RoleAdmin, false)

	for _, tag := range set.Tags() {
		s.True(set.Has(tag), "admin should pass %s", tag)
	}
	s.Len(set.Tags(), len(known))
	s.True(set.HasAll(CreateGuest, DeleteVisit, ManageOrg))
}

func (s *CapabilitySuite) TestMasterBypassesWithoutRole() {
	set := Evaluate("", true)

	s.True(set.CanManageOrg())
	s.True(set.HasAll(ViewDashboard, DeleteGuest, ViewReports))
	s.Len(set.Tags(), len(known))
}

func (s *CapabilitySuite) TestNoRoleNoAccess() {
	set := Evaluate("", false)

	s.False(set.CanViewDashboard())
	s.False(set.Has(CreateGuest))
	s.Empty(set.Tags())

	s.Run("none matches", func() {
		s.Equal(None().Tags(), set.Tags())
	})
}

func (s *CapabilitySuite) TestHasAllNeedsEveryTag() {
	set := Evaluate(models.RoleVolunteer, false)

	s.True(set.HasAll(ViewDashboard, LogVisit))
	s.False(set.HasAll(ViewDashboard, DeleteVisit))
	s.True(set.HasAll(), "empty query holds vacuously")
}

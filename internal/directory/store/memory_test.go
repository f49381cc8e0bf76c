package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

type DirectoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *DirectoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestDirectoryStoreSuite(t *testing.T) {
	suite.Run(t, new(DirectoryStoreSuite))
}

func (s *DirectoryStoreSuite) newOrg(id, name string) *models.Org {
	return &models.Org{
		ID:        domain.OrgID(id),
		Name:      name,
		Status:    models.OrgStatusActive,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *DirectoryStoreSuite) newLocation(id, orgID, name string) *models.Location {
	return &models.Location{
		ID:        domain.LocationID(id),
		OrgID:     domain.OrgID(orgID),
		Name:      name,
		Active:    true,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *DirectoryStoreSuite) newMembership(identityID, orgID string, role models.Role, createdAt time.Time) *models.Membership {
	return &models.Membership{
		IdentityID: domain.IdentityID(identityID),
		OrgID:      domain.OrgID(orgID),
		Role:       role,
		Status:     models.MembershipStatusActive,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// TestOrgLifecycle verifies organization upsert and lookup behavior.
func (s *DirectoryStoreSuite) TestOrgLifecycle() {
	s.Run("upserts and finds org by ID", func() {
		org := s.newOrg("org_1", "Harbor Pantry")
		s.Require().NoError(s.store.UpsertOrg(s.ctx, org))

		found, err := s.store.FindOrg(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal("Harbor Pantry", found.Name)
		s.Equal(models.OrgStatusActive, found.Status)
	})

	s.Run("upsert replaces existing org", func() {
		org := s.newOrg("org_1", "Harbor Pantry")
		s.Require().NoError(s.store.UpsertOrg(s.ctx, org))

		org.Status = models.OrgStatusSuspended
		s.Require().NoError(s.store.UpsertOrg(s.ctx, org))

		found, err := s.store.FindOrg(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(models.OrgStatusSuspended, found.Status)
	})

	s.Run("returns ErrNotFound for unknown org", func() {
		_, err := s.store.FindOrg(s.ctx, domain.OrgID("org_missing"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned org is a copy", func() {
		org := s.newOrg("org_copy", "Copy Pantry")
		org.Attributes = map[string]string{"phone": "555-0100"}
		s.Require().NoError(s.store.UpsertOrg(s.ctx, org))

		found, err := s.store.FindOrg(s.ctx, org.ID)
		s.Require().NoError(err)
		found.Name = "Mutated"
		found.Attributes["phone"] = "mutated"

		again, err := s.store.FindOrg(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal("Copy Pantry", again.Name)
		s.Equal("555-0100", again.Attributes["phone"])
	})
}

// TestOrgCatalogOrder verifies ListOrgs returns name ascending with ID
// tiebreak, the stable order the first-org fallback depends on.
func (s *DirectoryStoreSuite) TestOrgCatalogOrder() {
	s.Require().NoError(s.store.UpsertOrg(s.ctx, s.newOrg("org_c", "Westside Shelter")))
	s.Require().NoError(s.store.UpsertOrg(s.ctx, s.newOrg("org_b", "Annex Pantry")))
	s.Require().NoError(s.store.UpsertOrg(s.ctx, s.newOrg("org_a", "Annex Pantry")))

	orgs, err := s.store.ListOrgs(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(orgs, 3)
	s.Equal(domain.OrgID("org_a"), orgs[0].ID)
	s.Equal(domain.OrgID("org_b"), orgs[1].ID)
	s.Equal(domain.OrgID("org_c"), orgs[2].ID)
}

// TestLocationOrdering verifies the catalog ordering contract that the
// default location rule depends on: name ascending with ID as tiebreak.
func (s *DirectoryStoreSuite) TestLocationOrdering() {
	s.Require().NoError(s.store.UpsertOrg(s.ctx, s.newOrg("org_1", "Harbor Pantry")))

	// Inserted deliberately out of order.
	s.Require().NoError(s.store.UpsertLocation(s.ctx, s.newLocation("loc_c", "org_1", "Westside")))
	s.Require().NoError(s.store.UpsertLocation(s.ctx, s.newLocation("loc_b", "org_1", "Annex")))
	s.Require().NoError(s.store.UpsertLocation(s.ctx, s.newLocation("loc_a", "org_1", "Annex")))

	s.Run("orders by name then ID", func() {
		locations, err := s.store.ListLocations(s.ctx, domain.OrgID("org_1"))
		s.Require().NoError(err)
		s.Require().Len(locations, 3)
		s.Equal(domain.LocationID("loc_a"), locations[0].ID)
		s.Equal(domain.LocationID("loc_b"), locations[1].ID)
		s.Equal(domain.LocationID("loc_c"), locations[2].ID)
	})

	s.Run("excludes other orgs", func() {
		s.Require().NoError(s.store.UpsertOrg(s.ctx, s.newOrg("org_2", "Other Pantry")))
		s.Require().NoError(s.store.UpsertLocation(s.ctx, s.newLocation("loc_z", "org_2", "Elsewhere")))

		locations, err := s.store.ListLocations(s.ctx, domain.OrgID("org_1"))
		s.Require().NoError(err)
		s.Len(locations, 3)
	})

	s.Run("empty org yields no locations", func() {
		locations, err := s.store.ListLocations(s.ctx, domain.OrgID("org_empty"))
		s.Require().NoError(err)
		s.Empty(locations)
	})
}

// TestMembershipLifecycle verifies membership upsert, ordering, removal,
// and copy isolation of the allow-list slice.
func (s *DirectoryStoreSuite) TestMembershipLifecycle() {
	s.Run("lists memberships oldest first with org ID tiebreak", func() {
		later := s.now.Add(time.Hour)
		s.Require().NoError(s.store.UpsertMembership(s.ctx, s.newMembership("id_1", "org_b", models.RoleVolunteer, later)))
		s.Require().NoError(s.store.UpsertMembership(s.ctx, s.newMembership("id_1", "org_a", models.RoleAdmin, s.now)))

		memberships, err := s.store.ListMemberships(s.ctx, domain.IdentityID("id_1"))
		s.Require().NoError(err)
		s.Require().Len(memberships, 2)
		s.Equal(domain.OrgID("org_a"), memberships[0].OrgID)
		s.Equal(domain.OrgID("org_b"), memberships[1].OrgID)
	})

	s.Run("upsert replaces role and allow-list", func() {
		membership := s.newMembership("id_2", "org_a", models.RoleVolunteer, s.now)
		membership.AllowedLocationIDs = []domain.LocationID{"loc_1"}
		s.Require().NoError(s.store.UpsertMembership(s.ctx, membership))

		membership.Role = models.RoleAdmin
		membership.AllowedLocationIDs = nil
		s.Require().NoError(s.store.UpsertMembership(s.ctx, membership))

		memberships, err := s.store.ListMemberships(s.ctx, domain.IdentityID("id_2"))
		s.Require().NoError(err)
		s.Require().Len(memberships, 1)
		s.Equal(models.RoleAdmin, memberships[0].Role)
		s.Empty(memberships[0].AllowedLocationIDs)
	})

	s.Run("allow-list is copied on write and read", func() {
		allowed := []domain.LocationID{"loc_1", "loc_2"}
		membership := s.newMembership("id_3", "org_a", models.RoleVolunteer, s.now)
		membership.AllowedLocationIDs = allowed
		s.Require().NoError(s.store.UpsertMembership(s.ctx, membership))

		allowed[0] = "loc_mutated"

		memberships, err := s.store.ListMemberships(s.ctx, domain.IdentityID("id_3"))
		s.Require().NoError(err)
		s.Require().Len(memberships, 1)
		s.Equal(domain.LocationID("loc_1"), memberships[0].AllowedLocationIDs[0])

		memberships[0].AllowedLocationIDs[1] = "loc_mutated_again"
		again, err := s.store.ListMemberships(s.ctx, domain.IdentityID("id_3"))
		s.Require().NoError(err)
		s.Equal(domain.LocationID("loc_2"), again[0].AllowedLocationIDs[1])
	})

	s.Run("removes membership", func() {
		s.Require().NoError(s.store.UpsertMembership(s.ctx, s.newMembership("id_4", "org_a", models.RoleVolunteer, s.now)))
		s.Require().NoError(s.store.RemoveMembership(s.ctx, domain.IdentityID("id_4"), domain.OrgID("org_a")))

		memberships, err := s.store.ListMemberships(s.ctx, domain.IdentityID("id_4"))
		s.Require().NoError(err)
		s.Empty(memberships)
	})

	s.Run("removing absent membership returns ErrNotFound", func() {
		err := s.store.RemoveMembership(s.ctx, domain.IdentityID("id_none"), domain.OrgID("org_none"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestSeedDemoDirectory verifies the demo seed produces a resolvable catalog.
func (s *DirectoryStoreSuite) TestSeedDemoDirectory() {
	org, locations := SeedDemoDirectory(s.store, domain.IdentityID("id_admin"))

	s.Run("org and locations are stored", func() {
		found, err := s.store.FindOrg(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(org.Name, found.Name)

		listed, err := s.store.ListLocations(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Len(listed, len(locations))
	})

	s.Run("admin membership grants the whole org", func() {
		memberships, err := s.store.ListMemberships(s.ctx, domain.IdentityID("id_admin"))
		s.Require().NoError(err)
		s.Require().Len(memberships, 1)
		s.Equal(models.RoleAdmin, memberships[0].Role)
		s.Empty(memberships[0].AllowedLocationIDs)
	})
}

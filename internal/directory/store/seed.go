package store

import (
	"context"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// SeedDemoDirectory populates a catalog with one pantry organization, two
// locations, and an admin membership so a fresh deployment has something to
// resolve against.
func SeedDemoDirectory(catalog *InMemory, identityID domain.IdentityID) (*models.Org, []models.Location) {
	ctx := context.Background()
	now := time.Now().UTC()

	org := &models.Org{
		ID:        domain.OrgID("org_demo"),
		Name:      "Demo Food Pantry",
		Status:    models.OrgStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_ = catalog.UpsertOrg(ctx, org)

	locations := []models.Location{
		{
			ID:        domain.LocationID("loc_demo_east"),
			OrgID:     org.ID,
			Name:      "East Side Branch",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        domain.LocationID("loc_demo_main"),
			OrgID:     org.ID,
			Name:      "Main Street Pantry",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for i := range locations {
		_ = catalog.UpsertLocation(ctx, &locations[i])
	}

	if !identityID.IsZero() {
		_ = catalog.UpsertMembership(ctx, &models.Membership{
			IdentityID: identityID,
			OrgID:      org.ID,
			Role:       models.RoleAdmin,
			Status:     models.MembershipStatusActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return org, locations
}

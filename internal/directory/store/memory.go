// Package store provides catalog persistence. InMemory doubles as the test
// fake; Postgres is the production backend.
package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

type membershipKey struct {
	identityID domain.IdentityID
	orgID      domain.OrgID
}

// InMemory is a thread-safe in-memory catalog store.
type InMemory struct {
	mu          sync.RWMutex
	orgs        map[domain.OrgID]models.Org
	locations   map[domain.LocationID]models.Location
	memberships map[membershipKey]models.Membership
}

func NewInMemory() *InMemory {
	return &InMemory{
		orgs:        make(map[domain.OrgID]models.Org),
		locations:   make(map[domain.LocationID]models.Location),
		memberships: make(map[membershipKey]models.Membership),
	}
}

func copyOrg(org models.Org) models.Org {
	org.Attributes = maps.Clone(org.Attributes)
	return org
}

func copyLocation(location models.Location) models.Location {
	location.Attributes = maps.Clone(location.Attributes)
	return location
}

func copyMembership(membership models.Membership) models.Membership {
	membership.AllowedLocationIDs = append([]domain.LocationID(nil), membership.AllowedLocationIDs...)
	return membership
}

// UpsertOrg stores or replaces an organization.
func (s *InMemory) UpsertOrg(_ context.Context, org *models.Org) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = copyOrg(*org)
	return nil
}

// UpsertLocation stores or replaces a location.
func (s *InMemory) UpsertLocation(_ context.Context, location *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[location.ID] = copyLocation(*location)
	return nil
}

// UpsertMembership stores or replaces a membership.
func (s *InMemory) UpsertMembership(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[membershipKey{membership.IdentityID, membership.OrgID}] = copyMembership(*membership)
	return nil
}

// RemoveMembership deletes a membership if present.
func (s *InMemory) RemoveMembership(_ context.Context, identityID domain.IdentityID, orgID domain.OrgID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{identityID, orgID}
	if _, ok := s.memberships[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.memberships, key)
	return nil
}

// FindOrg returns one organization.
func (s *InMemory) FindOrg(_ context.Context, orgID domain.OrgID) (*models.Org, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := copyOrg(org)
	return &copied, nil
}

// ListOrgs returns the whole catalog in catalog order: name ascending, ID as
// tiebreak.
func (s *InMemory) ListOrgs(_ context.Context) ([]models.Org, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Org, 0, len(s.orgs))
	for _, org := range s.orgs {
		out = append(out, copyOrg(org))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListLocations returns an organization's locations in catalog order:
// name ascending, ID as tiebreak.
func (s *InMemory) ListLocations(_ context.Context, orgID domain.OrgID) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Location
	for _, location := range s.locations {
		if location.OrgID == orgID {
			out = append(out, copyLocation(location))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListMemberships returns every membership of an identity, oldest first with
// org ID as tiebreak.
func (s *InMemory) ListMemberships(_ context.Context, identityID domain.IdentityID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Membership
	for key, membership := range s.memberships {
		if key.identityID != identityID {
			continue
		}
		out = append(out, copyMembership(membership))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].OrgID < out[j].OrgID
	})
	return out, nil
}

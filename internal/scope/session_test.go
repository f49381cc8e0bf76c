package scope_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/identity"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/devicecache"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/profile"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
)

// Justification for unit tests: the session is the only mutable state in the
// engine. These tests drive it through the manager with real in-memory
// stores and pin the action contracts: org switches recompute a fresh
// default location and never touch the server profile, org-wide requests
// without org-wide access change nothing, and the explicit save is the one
// action that copies device state across devices and surfaces failure.

// trailRecorder captures audit events synchronously for assertions.
type trailRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (t *trailRecorder) Record(_ context.Context, event audit.Event, _ ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *trailRecorder) byKind(kind audit.Kind) []audit.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var matched []audit.Event
	for _, event := range t.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}
	return matched
}

// failingProfiles wraps the in-memory profile store with a write kill
// switch.
type failingProfiles struct {
	*profile.Memory
	failSave atomic.Bool
}

func (p *failingProfiles) SavePreferred(ctx context.Context, identityID domain.IdentityID, preferred domain.Selection) error {
	if p.failSave.Load() {
		return errors.New("profile store down")
	}
	return p.Memory.SavePreferred(ctx, identityID, preferred)
}

type SessionSuite struct {
	suite.Suite
	ctx       context.Context
	directory *store.InMemory
	cache     *devicecache.Memory
	profiles  *failingProfiles
	trail     *trailRecorder
	manager   *scope.Manager
	now       time.Time
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.directory = store.NewInMemory()
	s.cache = devicecache.NewMemory()
	s.profiles = &failingProfiles{Memory: profile.NewMemory()}
	s.trail = &trailRecorder{}

	s.seedCatalog()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.manager = scope.NewManager(s.directory, s.cache, s.profiles, logger,
		scope.WithAuditTrail(s.trail),
		scope.WithAsyncRunner(func(fn func()) { fn() }),
	)
}

// seedCatalog loads three active orgs, one suspended org, and the
// memberships the tests lean on. Catalog order is by name: Alpha Pantry,
// Beta Kitchen, Gamma Garden.
func (s *SessionSuite) seedCatalog() {
	s.upsertOrg("org_alpha", "Alpha Pantry", models.OrgStatusActive)
	s.upsertOrg("org_beta", "Beta Kitchen", models.OrgStatusActive)
	s.upsertOrg("org_gamma", "Gamma Garden", models.OrgStatusActive)
	s.upsertOrg("org_closed", "Closed Shelter", models.OrgStatusSuspended)

	s.upsertLocation("loc_a1", "org_alpha", "Annex")
	s.upsertLocation("loc_a2", "org_alpha", "Main")
	s.upsertLocation("loc_b1", "org_beta", "East")
	s.upsertLocation("loc_b2", "org_beta", "West")
	s.upsertLocation("loc_g1", "org_gamma", "Plot")
	s.upsertLocation("loc_c1", "org_closed", "Hall")

	// id_vol: org-wide admin in alpha, allow-listed volunteer in beta, a
	// suspended membership in gamma, and an active membership in the
	// suspended org.
	s.upsertMembership("id_vol", "org_alpha", models.RoleAdmin, models.MembershipStatusActive, nil, 0)
	s.upsertMembership("id_vol", "org_beta", models.RoleVolunteer, models.MembershipStatusActive,
		[]domain.LocationID{"loc_b2", "loc_b1"}, 1)
	s.upsertMembership("id_vol", "org_gamma", models.RoleVolunteer, models.MembershipStatusSuspended,
		[]domain.LocationID{"loc_g1"}, 2)
	s.upsertMembership("id_vol", "org_closed", models.RoleAdmin, models.MembershipStatusActive, nil, 3)

	// id_listed: admin in alpha restricted to one location.
	s.upsertMembership("id_listed", "org_alpha", models.RoleAdmin, models.MembershipStatusActive,
		[]domain.LocationID{"loc_a2"}, 0)

	// id_bare: volunteer in beta with an empty allow-list.
	s.upsertMembership("id_bare", "org_beta", models.RoleVolunteer, models.MembershipStatusActive, nil, 0)
}

func (s *SessionSuite) upsertOrg(id, name string, status models.OrgStatus) {
	s.Require().NoError(s.directory.UpsertOrg(s.ctx, &models.Org{
		ID:        domain.OrgID(id),
		Name:      name,
		Status:    status,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}))
}

func (s *SessionSuite) upsertLocation(id, orgID, name string) {
	s.Require().NoError(s.directory.UpsertLocation(s.ctx, &models.Location{
		ID:        domain.LocationID(id),
		OrgID:     domain.OrgID(orgID),
		Name:      name,
		Active:    true,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}))
}

func (s *SessionSuite) upsertMembership(identityID, orgID string, role models.Role, status models.MembershipStatus, allowed []domain.LocationID, order int) {
	createdAt := s.now.Add(time.Duration(order) * time.Minute)
	s.Require().NoError(s.directory.UpsertMembership(s.ctx, &models.Membership{
		IdentityID:         domain.IdentityID(identityID),
		OrgID:              domain.OrgID(orgID),
		Role:               role,
		Status:             status,
		AllowedLocationIDs: allowed,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}))
}

func (s *SessionSuite) identityFor(id string) domain.Identity {
	return domain.Identity{
		ID:    domain.IdentityID(id),
		Email: id + "@shepherdstable.org",
	}
}

func (s *SessionSuite) signIn(identityID, deviceID string) *scope.Session {
	s.manager.Handle(s.ctx, identity.Event{
		Kind:     identity.EventSignedIn,
		Identity: s.identityFor(identityID),
		DeviceID: domain.DeviceID(deviceID),
	})
	sess, ok := s.manager.Session(domain.IdentityID(identityID))
	s.Require().True(ok, "sign-in should create a session")
	return sess
}

func (s *SessionSuite) selection(orgID string, location domain.LocationRef) domain.Selection {
	return domain.Selection{OrgID: domain.OrgID(orgID), Location: location}
}

func (s *SessionSuite) orgIDs(sc scope.Context) []domain.OrgID {
	ids := make([]domain.OrgID, 0, len(sc.Orgs))
	for _, grant := range sc.Orgs {
		ids = append(ids, grant.Org.ID)
	}
	return ids
}

func (s *SessionSuite) TestSignInResolvesDefaults() {
	sess := s.signIn("id_vol", "dev_1")
	sc := sess.Context()

	s.Equal(scope.StateReady, sc.State)
	s.Equal(s.selection("org_alpha", domain.SingleLocation("loc_a1")), sc.Selection)
	s.Equal(models.RoleAdmin, sc.Role)
	s.True(sc.Capabilities.CanManageOrg())

	s.Run("suspended memberships and orgs stay invisible", func() {
		s.Equal([]domain.OrgID{"org_alpha", "org_beta"}, s.orgIDs(sc))
	})

	s.Run("both stores are healed", func() {
		cached, err := s.cache.Get(s.ctx, "dev_1")
		s.Require().NoError(err)
		s.Equal(sc.Selection, cached)

		stored, err := s.profiles.Get(s.ctx, "id_vol")
		s.Require().NoError(err)
		s.Equal(sc.Selection, stored.Preferred)
	})

	s.Run("the pass is on the audit trail", func() {
		s.Len(s.trail.byKind(audit.KindScopeResolved), 1)
	})
}

func (s *SessionSuite) TestCachedSelectionSurvivesSignIn() {
	s.Require().NoError(s.cache.Set(s.ctx, "dev_1",
		s.selection("org_beta", domain.SingleLocation("loc_b1"))))

	sess := s.signIn("id_vol", "dev_1")

	s.Equal(s.selection("org_beta", domain.SingleLocation("loc_b1")), sess.Context().Selection)
	s.Equal(models.RoleVolunteer, sess.Context().Role)
}

func (s *SessionSuite) TestSetActiveOrg() {
	sess := s.signIn("id_vol", "dev_1")

	s.Run("switching recomputes a fresh default location", func() {
		sess.SetActiveOrg(s.ctx, "dev_1", "org_beta")
		// First allow-list entry, not first catalog location.
		s.Equal(s.selection("org_beta", domain.SingleLocation("loc_b2")), sess.Context().Selection)
		s.Equal(models.RoleVolunteer, sess.Context().Role)
		s.False(sess.Context().Capabilities.CanManageOrg())
	})

	s.Run("the device cache follows, the server profile does not", func() {
		cached, err := s.cache.Get(s.ctx, "dev_1")
		s.Require().NoError(err)
		s.Equal(s.selection("org_beta", domain.SingleLocation("loc_b2")), cached)

		stored, err := s.profiles.Get(s.ctx, "id_vol")
		s.Require().NoError(err)
		s.Equal(s.selection("org_alpha", domain.SingleLocation("loc_a1")), stored.Preferred,
			"navigation must not overwrite the saved default")
	})

	s.Run("repeating the current org changes nothing", func() {
		sess.SetActiveLocation(s.ctx, "dev_1", domain.SingleLocation("loc_b1"))
		before := sess.Context()

		sess.SetActiveOrg(s.ctx, "dev_1", "org_beta")

		s.Equal(before.Selection, sess.Context().Selection,
			"an idempotent switch must not recompute the location")
	})

	s.Run("an unknown org clears the selection", func() {
		sess.SetActiveOrg(s.ctx, "dev_1", "org_missing")
		s.True(sess.Context().Selection.IsZero())
		s.Empty(sess.Context().Role)
		s.False(sess.Context().Capabilities.CanViewDashboard())
	})

	s.Run("switch events reach the audit trail", func() {
		s.NotEmpty(s.trail.byKind(audit.KindOrgSwitched))
	})
}

func (s *SessionSuite) TestSetActiveLocation() {
	sess := s.signIn("id_vol", "dev_1")

	s.Run("a visible concrete location is accepted", func() {
		sess.SetActiveLocation(s.ctx, "dev_1", domain.SingleLocation("loc_a2"))
		s.Equal(s.selection("org_alpha", domain.SingleLocation("loc_a2")), sess.Context().Selection)
	})

	s.Run("org-wide is accepted for an org-wide admin", func() {
		sess.SetActiveLocation(s.ctx, "dev_1", domain.AllLocations())
		s.True(sess.Context().Selection.Location.IsAll())
	})

	s.Run("none clears the location", func() {
		sess.SetActiveLocation(s.ctx, "dev_1", domain.NoLocation())
		s.True(sess.Context().Selection.Location.IsNone())
		s.Equal(domain.OrgID("org_alpha"), sess.Context().Selection.OrgID)
	})

	s.Run("org-wide without org-wide access changes nothing", func() {
		sess.SetActiveOrg(s.ctx, "dev_1", "org_beta")
		before := sess.Context().Selection
		switchesBefore := len(s.trail.byKind(audit.KindLocationSwitched))

		sess.SetActiveLocation(s.ctx, "dev_1", domain.AllLocations())

		s.Equal(before, sess.Context().Selection)
		s.Len(s.trail.byKind(audit.KindLocationSwitched), switchesBefore,
			"a rejected request is not a switch")
	})

	s.Run("a location from another org falls back to the default rule", func() {
		sess.SetActiveLocation(s.ctx, "dev_1", domain.SingleLocation("loc_b1"))
		s.Equal(s.selection("org_beta", domain.SingleLocation("loc_b1")), sess.Context().Selection)

		sess.SetActiveLocation(s.ctx, "dev_1", domain.SingleLocation("loc_a1"))
		s.Equal(s.selection("org_beta", domain.SingleLocation("loc_b2")), sess.Context().Selection)
	})

	s.Run("no active org means no-op", func() {
		sess.SetActiveOrg(s.ctx, "dev_1", "")
		s.True(sess.Context().Selection.IsZero())

		sess.SetActiveLocation(s.ctx, "dev_1", domain.SingleLocation("loc_a1"))
		s.True(sess.Context().Selection.IsZero())
	})
}

func (s *SessionSuite) TestVolunteerWithEmptyAllowList() {
	sess := s.signIn("id_bare", "dev_9")
	sc := sess.Context()

	s.Equal(scope.StateReady, sc.State)
	s.Equal([]domain.OrgID{"org_beta"}, s.orgIDs(sc))
	s.Empty(sc.ActiveLocations(), "an empty allow-list grants zero locations")
	s.Equal(s.selection("org_beta", domain.NoLocation()), sc.Selection)

	s.Run("every location request no-ops", func() {
		sess.SetActiveLocation(s.ctx, "dev_9", domain.AllLocations())
		s.Equal(sc.Selection, sess.Context().Selection)

		sess.SetActiveLocation(s.ctx, "dev_9", domain.SingleLocation("loc_b1"))
		s.Equal(sc.Selection, sess.Context().Selection)
	})
}

func (s *SessionSuite) TestListedAdminIsNotOrgWide() {
	sess := s.signIn("id_listed", "dev_2")
	sc := sess.Context()

	grant, ok := sc.ActiveGrant()
	s.Require().True(ok)
	s.False(grant.OrgWide)
	s.Equal(s.selection("org_alpha", domain.SingleLocation("loc_a2")), sc.Selection)
	s.Len(sc.ActiveLocations(), 1)

	s.Run("org-wide stays out of reach", func() {
		sess.SetActiveLocation(s.ctx, "dev_2", domain.AllLocations())
		s.False(sess.Context().Selection.Location.IsAll())
	})

	s.Run("the role still carries admin capabilities", func() {
		s.True(sc.Capabilities.CanManageOrg())
	})
}

func (s *SessionSuite) TestMasterSeesWholeCatalog() {
	master := s.identityFor("id_master")
	master.Trusted.Master = true
	s.manager.Handle(s.ctx, identity.Event{
		Kind:     identity.EventSignedIn,
		Identity: master,
		DeviceID: "dev_m",
	})
	sess, ok := s.manager.Session("id_master")
	s.Require().True(ok)
	sc := sess.Context()

	s.True(sc.Master)
	s.Equal([]domain.OrgID{"org_alpha", "org_beta", "org_gamma"}, s.orgIDs(sc),
		"every active org, suspended ones excluded, no membership rows needed")
	s.Equal(models.RoleAdmin, sc.Role)
	s.Equal(s.selection("org_alpha", domain.SingleLocation("loc_a1")), sc.Selection)

	s.Run("org-wide works in every org", func() {
		sess.SetActiveOrg(s.ctx, "dev_m", "org_beta")
		sess.SetActiveLocation(s.ctx, "dev_m", domain.AllLocations())
		s.True(sess.Context().Selection.Location.IsAll())
	})
}

func (s *SessionSuite) TestSaveDeviceDefaultScope() {
	sess := s.signIn("id_vol", "dev_1")

	s.Run("copies the device cache verbatim", func() {
		// Another pass on this device cached a different selection than
		// the one in memory.
		s.Require().NoError(s.cache.Set(s.ctx, "dev_1",
			s.selection("org_beta", domain.SingleLocation("loc_b1"))))

		s.Require().NoError(sess.SaveDeviceDefaultScope(s.ctx, "dev_1"))

		stored, err := s.profiles.Get(s.ctx, "id_vol")
		s.Require().NoError(err)
		s.Equal(s.selection("org_beta", domain.SingleLocation("loc_b1")), stored.Preferred)
		s.Len(s.trail.byKind(audit.KindDefaultSaved), 1)
	})

	s.Run("falls back to the in-memory selection on a cache miss", func() {
		s.Require().NoError(sess.SaveDeviceDefaultScope(s.ctx, "dev_unseen"))

		stored, err := s.profiles.Get(s.ctx, "id_vol")
		s.Require().NoError(err)
		s.Equal(sess.Context().Selection, stored.Preferred)
	})

	s.Run("surfaces persistence failure to the caller", func() {
		s.profiles.failSave.Store(true)
		defer s.profiles.failSave.Store(false)

		err := sess.SaveDeviceDefaultScope(s.ctx, "dev_1")

		s.Require().Error(err)
		s.Equal(dErrors.CodeUnavailable, dErrors.GetCode(err))
	})
}

func (s *SessionSuite) TestSignOut() {
	sess := s.signIn("id_vol", "dev_1")
	resolved := sess.Context().Selection

	s.manager.Handle(s.ctx, identity.Event{
		Kind:     identity.EventSignedOut,
		Identity: domain.Identity{ID: "id_vol"},
		DeviceID: "dev_1",
	})

	s.Run("the session is gone and reset", func() {
		_, ok := s.manager.Session("id_vol")
		s.False(ok)

		sc := sess.Context()
		s.Equal(scope.StateUnauthenticated, sc.State)
		s.True(sc.Selection.IsZero())
		s.Empty(sc.Orgs)
		s.Empty(sc.Capabilities.Tags())
	})

	s.Run("actions on the dead session no-op", func() {
		sess.SetActiveOrg(s.ctx, "dev_1", "org_beta")
		s.True(sess.Context().Selection.IsZero())
		s.NoError(sess.SaveDeviceDefaultScope(s.ctx, "dev_1"))
	})

	s.Run("the device cache outlives the session", func() {
		cached, err := s.cache.Get(s.ctx, "dev_1")
		s.Require().NoError(err)
		s.Equal(resolved, cached)
	})

	s.Run("signing back in resumes from the cache", func() {
		again := s.signIn("id_vol", "dev_1")
		s.Equal(resolved, again.Context().Selection)
	})

	s.Run("the sign-out is on the audit trail", func() {
		s.Len(s.trail.byKind(audit.KindSignedOut), 1)
	})
}

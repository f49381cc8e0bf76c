package scope

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/capability"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// State is the session lifecycle phase.
type State string

const (
	// StateUnauthenticated means no identity is attached.
	StateUnauthenticated State = "unauthenticated"
	// StateResolving means an identity is attached and a resolution pass
	// has not yet completed. A previously completed pass, if any, stays
	// readable until the new one lands.
	StateResolving State = "resolving"
	// StateReady means the latest resolution pass completed.
	StateReady State = "ready"
)

// Location switch outcomes, also used as metric labels.
const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeDefaulted = "defaulted"
)

// sourceMemory labels a default-save that fell back to the in-memory
// selection because the device cache had nothing.
const sourceMemory = "memory"

type engineDeps struct {
	loader   *Loader
	resolver *Resolver
	cache    DeviceCache
	profiles ProfileStore
	trail    AuditTrail
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Session owns the working scope of one identity. All methods are safe for
// concurrent use. Mutations follow last-write-wins: a resolution pass only
// lands if no newer pass or sign-out superseded it.
type Session struct {
	deps engineDeps

	mu        sync.RWMutex
	gen       uint64
	state     State
	identity  domain.Identity
	grants    *Grants
	selection domain.Selection
}

func newSession(deps engineDeps) *Session {
	return &Session{deps: deps, state: StateUnauthenticated}
}

// beginPass attaches the identity, moves to Resolving, and returns the
// generation the pass must present to land its result.
func (s *Session) beginPass(identity domain.Identity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.identity = identity
	s.state = StateResolving
	return s.gen
}

// resolvePass loads grants and resolves the selection for one generation. A
// load failure leaves the session in Resolving with any prior result still
// readable; the next identity event or Ensure retries it.
func (s *Session) resolvePass(ctx context.Context, gen uint64, deviceID domain.DeviceID) {
	start := time.Now()

	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()

	grants, err := s.deps.loader.Load(ctx, identity)
	if err != nil {
		s.deps.metrics.IncrementLoadFailure()
		s.deps.logger.WarnContext(ctx, "membership load failed, session stays resolving",
			"identity_id", identity.ID,
			"error", err,
		)
		return
	}

	res := s.deps.resolver.Resolve(ctx, identity.ID, deviceID, grants)
	landed := s.apply(gen, grants, res.Selection)
	s.deps.metrics.ObserveResolveDuration(time.Since(start))
	if !landed {
		return
	}

	s.deps.trail.Record(ctx, audit.Event{
		Kind:       audit.KindScopeResolved,
		IdentityID: identity.ID,
		DeviceID:   deviceID,
		Selection:  res.Selection,
	}, "source", res.OrgSource, "location_source", res.LocationSource)
}

// refreshPass moves an attached session back to Resolving without replacing
// its identity. Membership-change events carry only the identity ID, and a
// partial identity must not clobber the asserted one.
func (s *Session) refreshPass() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnauthenticated {
		return 0, false
	}
	s.gen++
	s.state = StateResolving
	return s.gen, true
}

func (s *Session) apply(gen uint64, grants *Grants, selection domain.Selection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.grants = grants
	s.selection = selection
	s.state = StateReady
	return true
}

func (s *Session) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateReady
}

// SetActiveOrg switches the active organization. An unknown or zero orgID
// clears the selection. The location is recomputed fresh for the new
// organization by the default rule; the caches are not consulted, so one
// device's navigation never resurrects another device's saved location.
// The device cache is updated, the server profile is not.
func (s *Session) SetActiveOrg(ctx context.Context, deviceID domain.DeviceID, orgID domain.OrgID) {
	s.mu.Lock()
	if s.state == StateUnauthenticated {
		s.mu.Unlock()
		return
	}
	if orgID == s.selection.OrgID {
		s.mu.Unlock()
		return
	}
	next := domain.Selection{}
	if grant, ok := s.grants.Grant(orgID); ok {
		next = domain.Selection{OrgID: orgID, Location: grant.DefaultLocation()}
	}
	if next.Equal(s.selection) {
		s.mu.Unlock()
		return
	}
	s.selection = next
	identity := s.identity
	s.mu.Unlock()

	s.deps.resolver.syncCache(ctx, deviceID, next)
	s.deps.metrics.IncrementOrgSwitch()
	s.deps.trail.Record(ctx, audit.Event{
		Kind:       audit.KindOrgSwitched,
		IdentityID: identity.ID,
		DeviceID:   deviceID,
		Selection:  next,
	}, "source", SourceAction)
}

// SetActiveLocation switches the location within the active organization. An
// org-wide reference without org-wide access is rejected outright and the
// state does not move. A concrete location the grant does not cover falls
// back to the default rule. None clears the location.
func (s *Session) SetActiveLocation(ctx context.Context, deviceID domain.DeviceID, ref domain.LocationRef) {
	s.mu.Lock()
	if s.state == StateUnauthenticated || s.selection.OrgID.IsZero() {
		s.mu.Unlock()
		return
	}
	grant, ok := s.grants.Grant(s.selection.OrgID)
	if !ok {
		s.mu.Unlock()
		return
	}

	outcome := outcomeAccepted
	next := ref
	if ref.IsAll() && !grant.OrgWide {
		orgID := s.selection.OrgID
		s.mu.Unlock()
		s.deps.metrics.IncrementLocationSwitch(outcomeRejected)
		s.deps.logger.DebugContext(ctx, "rejecting org-wide location selection",
			"org_id", orgID,
		)
		return
	}
	if id, concrete := ref.ID(); concrete && !grant.HasLocation(id) {
		next = grant.DefaultLocation()
		outcome = outcomeDefaulted
	}

	if next == s.selection.Location {
		s.mu.Unlock()
		return
	}
	s.selection.Location = next
	sel := s.selection
	identity := s.identity
	s.mu.Unlock()

	s.deps.resolver.syncCache(ctx, deviceID, sel)
	s.deps.metrics.IncrementLocationSwitch(outcome)
	s.deps.trail.Record(ctx, audit.Event{
		Kind:       audit.KindLocationSwitched,
		IdentityID: identity.ID,
		DeviceID:   deviceID,
		Selection:  sel,
	}, "source", SourceAction, "outcome", outcome)
}

// SaveDeviceDefaultScope copies the device's cached selection into the server
// profile, making it the cross-device default. When the cache has nothing for
// the device the in-memory selection, which mirrors every cache write, is
// saved instead. This is the one scope action whose failure reaches the
// caller.
func (s *Session) SaveDeviceDefaultScope(ctx context.Context, deviceID domain.DeviceID) error {
	s.mu.RLock()
	if s.state == StateUnauthenticated {
		s.mu.RUnlock()
		return nil
	}
	identity := s.identity
	saved := s.selection
	s.mu.RUnlock()

	source := sourceMemory
	if !deviceID.IsZero() {
		cached, err := s.deps.cache.Get(ctx, deviceID)
		switch {
		case err == nil:
			saved = cached
			source = SourceDeviceCache
		case errors.Is(err, sentinel.ErrNotFound):
		default:
			s.deps.logger.WarnContext(ctx, "device cache read failed, saving in-memory scope",
				"device_id", deviceID,
				"error", err,
			)
		}
	}

	if err := s.deps.profiles.SavePreferred(ctx, identity.ID, saved); err != nil {
		s.deps.metrics.IncrementDefaultSave("failed")
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "default scope was not saved")
	}
	s.deps.metrics.IncrementDefaultSave("saved")

	s.deps.trail.Record(ctx, audit.Event{
		Kind:       audit.KindDefaultSaved,
		IdentityID: identity.ID,
		DeviceID:   deviceID,
		Selection:  saved,
	}, "source", source)
	return nil
}

// signOut hard-resets the session: identity, grants, and selection all go to
// zero and any in-flight pass is superseded. The device cache keeps its last
// selection so the next sign-in on that device resumes where it left off.
func (s *Session) signOut(ctx context.Context, deviceID domain.DeviceID) {
	s.mu.Lock()
	identity := s.identity
	last := s.selection
	s.gen++
	s.identity = domain.Identity{}
	s.state = StateUnauthenticated
	s.grants = nil
	s.selection = domain.Selection{}
	s.mu.Unlock()

	if identity.ID.IsZero() {
		return
	}
	s.deps.trail.Record(ctx, audit.Event{
		Kind:       audit.KindSignedOut,
		IdentityID: identity.ID,
		DeviceID:   deviceID,
		Selection:  last,
	}, "source", SourceAction)
}

// Context is a point-in-time snapshot of a session. Orgs shares the grants
// slice and must be treated as read-only.
type Context struct {
	State        State
	Identity     domain.Identity
	Selection    domain.Selection
	Role         models.Role
	Master       bool
	Capabilities capability.Set
	Orgs         []OrgGrant
}

// Ready reports whether the snapshot came from a completed pass.
func (c Context) Ready() bool { return c.State == StateReady }

// ActiveGrant returns the grant for the active organization.
func (c Context) ActiveGrant() (*OrgGrant, bool) {
	if c.Selection.OrgID.IsZero() {
		return nil, false
	}
	for i := range c.Orgs {
		if c.Orgs[i].Org.ID == c.Selection.OrgID {
			return &c.Orgs[i], true
		}
	}
	return nil, false
}

// ActiveLocations returns the visible locations of the active organization.
func (c Context) ActiveLocations() []models.Location {
	grant, ok := c.ActiveGrant()
	if !ok {
		return nil
	}
	return grant.Locations
}

// Context snapshots the session. During Resolving the snapshot carries the
// previous pass's grants and selection, if any.
func (s *Session) Context() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Context{
		State:     s.state,
		Identity:  s.identity,
		Selection: s.selection,
		Master:    s.identity.IsMaster(),
	}
	if s.grants != nil {
		snap.Orgs = s.grants.Orgs
		if role, ok := s.grants.RoleFor(s.selection.OrgID); ok {
			snap.Role = role
		}
	}
	snap.Capabilities = capability.Evaluate(snap.Role, snap.Master)
	return snap
}

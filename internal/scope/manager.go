package scope

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/audit"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/identity"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

type nopTrail struct{}

func (nopTrail) Record(context.Context, audit.Event, ...any) {}

// Manager owns one Session per signed-in identity and drives them from the
// provider event stream. HTTP callers reach sessions through Ensure, which
// also covers identities whose sign-in event has not arrived yet.
type Manager struct {
	deps     engineDeps
	runAsync func(func())

	resolveTimeout      time.Duration
	profileWriteTimeout time.Duration

	mu       sync.Mutex
	sessions map[domain.IdentityID]*Session
}

// Option customizes a Manager.
type Option func(*Manager)

// WithMetrics attaches engine metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.deps.metrics = m }
}

// WithAuditTrail attaches the audit trail.
func WithAuditTrail(trail AuditTrail) Option {
	return func(mgr *Manager) {
		if trail != nil {
			mgr.deps.trail = trail
		}
	}
}

// WithAsyncRunner replaces the goroutine spawn used for background writes.
// Tests install a synchronous runner.
func WithAsyncRunner(run func(func())) Option {
	return func(mgr *Manager) {
		if run != nil {
			mgr.runAsync = run
		}
	}
}

// WithTimeouts bounds resolution passes and detached profile write-backs.
// Zero leaves either unbounded.
func WithTimeouts(resolve, profileWrite time.Duration) Option {
	return func(mgr *Manager) {
		mgr.resolveTimeout = resolve
		mgr.profileWriteTimeout = profileWrite
	}
}

// NewManager wires the engine over its stores.
func NewManager(directory Directory, cache DeviceCache, profiles ProfileStore, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := &Manager{
		deps: engineDeps{
			cache:    cache,
			profiles: profiles,
			trail:    nopTrail{},
			logger:   logger,
		},
		runAsync: func(fn func()) { go fn() },
		sessions: make(map[domain.IdentityID]*Session),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	mgr.deps.loader = NewLoader(directory, logger)
	mgr.deps.resolver = NewResolver(cache, profiles, logger,
		WithResolverMetrics(mgr.deps.metrics),
		WithResolverRunner(mgr.runAsync),
		WithResolverTimeouts(mgr.resolveTimeout, mgr.profileWriteTimeout),
	)
	return mgr
}

// Run consumes provider events until the context ends or the channel closes.
func (m *Manager) Run(ctx context.Context, events <-chan identity.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			m.Handle(ctx, event)
		}
	}
}

// Handle applies one provider event.
func (m *Manager) Handle(ctx context.Context, event identity.Event) {
	if event.Identity.ID.IsZero() {
		return
	}
	switch event.Kind {
	case identity.EventSignedIn:
		m.signIn(ctx, event.Identity, event.DeviceID)
	case identity.EventMembershipChanged:
		m.refresh(ctx, event.Identity.ID, event.DeviceID)
	case identity.EventSignedOut:
		m.SignOut(ctx, event.Identity.ID, event.DeviceID)
	}
}

// Ensure returns the session for a verified identity. It creates one when the
// sign-in event has not arrived yet, and re-runs resolution when no pass has
// completed, so a transient load failure heals on the next request.
func (m *Manager) Ensure(ctx context.Context, ident domain.Identity, deviceID domain.DeviceID) *Session {
	sess, created := m.obtain(ident.ID)
	if created {
		m.ensureProfile(ctx, ident.ID)
	}
	if created || !sess.ready() {
		gen := sess.beginPass(ident)
		sess.resolvePass(ctx, gen, deviceID)
	}
	return sess
}

// Session returns the live session for an identity, if any.
func (m *Manager) Session(identityID domain.IdentityID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[identityID]
	return sess, ok
}

// SignOut tears down an identity's session. The device cache keeps its last
// selection so the next sign-in on that device resumes from it.
func (m *Manager) SignOut(ctx context.Context, identityID domain.IdentityID, deviceID domain.DeviceID) {
	m.mu.Lock()
	sess, ok := m.sessions[identityID]
	if ok {
		delete(m.sessions, identityID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	sess.signOut(ctx, deviceID)
	m.deps.metrics.AddActiveSessions(-1)
}

func (m *Manager) signIn(ctx context.Context, ident domain.Identity, deviceID domain.DeviceID) {
	sess, created := m.obtain(ident.ID)
	if created {
		m.ensureProfile(ctx, ident.ID)
	}
	gen := sess.beginPass(ident)
	sess.resolvePass(ctx, gen, deviceID)
}

// refresh re-resolves an existing session after a membership change. An
// identity with no live session has nothing to recompute.
func (m *Manager) refresh(ctx context.Context, identityID domain.IdentityID, deviceID domain.DeviceID) {
	sess, ok := m.Session(identityID)
	if !ok {
		return
	}
	gen, ok := sess.refreshPass()
	if !ok {
		return
	}
	sess.resolvePass(ctx, gen, deviceID)
}

func (m *Manager) obtain(identityID domain.IdentityID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[identityID]
	if ok {
		return sess, false
	}
	sess = newSession(m.deps)
	m.sessions[identityID] = sess
	m.deps.metrics.AddActiveSessions(1)
	return sess, true
}

// ensureProfile creates the identity's server record if absent. The create
// never writes scope fields; failures are logged because the profile upsert
// on the next pass covers them.
func (m *Manager) ensureProfile(ctx context.Context, identityID domain.IdentityID) {
	if err := m.deps.profiles.EnsureExists(ctx, identityID); err != nil {
		m.deps.logger.WarnContext(ctx, "scope profile ensure failed",
			"identity_id", identityID,
			"error", err,
		)
	}
}

package scope

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
)

// Source labels name where a resolved value came from.
const (
	SourceDeviceCache = "device_cache"
	SourceProfile     = "profile"
	SourceFallback    = "fallback"
	SourceAction      = "action"
)

// Resolution is the outcome of one pass: the selection now in force plus the
// source that supplied each half of it.
type Resolution struct {
	Selection      domain.Selection
	OrgSource      string
	LocationSource string
}

// Resolver reconciles the device cache and the server profile against live
// grants. A pass always terminates in a selection, possibly empty; upstream
// read and write failures degrade to the next candidate instead of failing
// the pass.
type Resolver struct {
	cache    DeviceCache
	profiles ProfileStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	runAsync func(func())

	resolveTimeout      time.Duration
	profileWriteTimeout time.Duration
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithResolverMetrics attaches engine metrics.
func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithResolverRunner replaces the goroutine spawn used for the profile
// write-back. Tests install a synchronous runner.
func WithResolverRunner(run func(func())) ResolverOption {
	return func(r *Resolver) {
		if run != nil {
			r.runAsync = run
		}
	}
}

// WithResolverTimeouts bounds a resolution pass and the detached profile
// write-back. Zero leaves either unbounded.
func WithResolverTimeouts(resolve, profileWrite time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.resolveTimeout = resolve
		r.profileWriteTimeout = profileWrite
	}
}

// NewResolver builds a resolver over the given stores.
func NewResolver(cache DeviceCache, profiles ProfileStore, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		cache:    cache,
		profiles: profiles,
		logger:   logger,
		tracer:   otel.Tracer("scope"),
		runAsync: func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one pass for the identity. The organization and the location
// are chosen by separate walks over the same candidate chain, so a stale
// cached organization does not stop the cached location from applying to
// whichever organization wins. The winning selection is written back to both
// stores before returning.
func (r *Resolver) Resolve(ctx context.Context, identityID domain.IdentityID, deviceID domain.DeviceID, grants *Grants) Resolution {
	if r.resolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.resolveTimeout)
		defer cancel()
	}
	ctx, span := r.tracer.Start(ctx, "scope.resolve", trace.WithAttributes(
		attribute.String("identity_id", identityID.String()),
	))
	defer span.End()

	c := &candidates{resolver: r, identityID: identityID, deviceID: deviceID}

	res := Resolution{LocationSource: SourceFallback}
	res.Selection.OrgID, res.OrgSource = r.resolveOrg(ctx, c, grants)
	if grant, ok := grants.Grant(res.Selection.OrgID); ok {
		res.Selection.Location, res.LocationSource = r.resolveLocation(ctx, c, grant)
	}

	span.SetAttributes(
		attribute.String("org_id", res.Selection.OrgID.String()),
		attribute.String("org_source", res.OrgSource),
		attribute.String("location_source", res.LocationSource),
	)

	r.writeBack(ctx, identityID, deviceID, res.Selection)
	r.metrics.IncrementResolution(res.OrgSource, res.LocationSource)
	return res
}

func (r *Resolver) resolveOrg(ctx context.Context, c *candidates, grants *Grants) (domain.OrgID, string) {
	for _, cand := range c.chain() {
		sel, ok := cand.read(ctx)
		if !ok || sel.OrgID.IsZero() {
			continue
		}
		if grants.HasOrg(sel.OrgID) {
			return sel.OrgID, cand.source
		}
	}
	if orgID, ok := grants.FirstOrg(); ok {
		return orgID, SourceFallback
	}
	return "", SourceFallback
}

// resolveLocation walks the candidate chain against the organization that
// already won. A null location is no candidate at all. An org-wide reference
// whose grant no longer covers the whole organization falls through to the
// next candidate rather than failing the pass.
func (r *Resolver) resolveLocation(ctx context.Context, c *candidates, grant *OrgGrant) (domain.LocationRef, string) {
	for _, cand := range c.chain() {
		sel, ok := cand.read(ctx)
		if !ok || sel.Location.IsNone() {
			continue
		}
		if sel.Location.IsAll() {
			if grant.OrgWide {
				return sel.Location, cand.source
			}
			r.metrics.IncrementAllDowngrade(cand.source)
			r.logger.DebugContext(ctx, "downgrading org-wide location reference",
				"org_id", grant.Org.ID,
				"source", cand.source,
			)
			continue
		}
		if id, ok := sel.Location.ID(); ok && grant.HasLocation(id) {
			return sel.Location, cand.source
		}
	}
	return grant.DefaultLocation(), SourceFallback
}

// writeBack heals both stores with the winning selection. The device write
// happens inline; the profile write rides the async runner on a context
// detached from the request's cancellation.
func (r *Resolver) writeBack(ctx context.Context, identityID domain.IdentityID, deviceID domain.DeviceID, selection domain.Selection) {
	r.syncCache(ctx, deviceID, selection)

	bg := context.WithoutCancel(ctx)
	r.runAsync(func() {
		writeCtx := bg
		if r.profileWriteTimeout > 0 {
			var cancel context.CancelFunc
			writeCtx, cancel = context.WithTimeout(bg, r.profileWriteTimeout)
			defer cancel()
		}
		if err := r.profiles.SavePreferred(writeCtx, identityID, selection); err != nil {
			r.logger.WarnContext(writeCtx, "scope profile write-back failed",
				"identity_id", identityID,
				"error", err,
			)
			r.metrics.IncrementProfileWriteFailure()
		}
	})
}

// syncCache writes the selection to the device cache, logging failures
// instead of returning them.
func (r *Resolver) syncCache(ctx context.Context, deviceID domain.DeviceID, selection domain.Selection) {
	if deviceID.IsZero() {
		return
	}
	if err := r.cache.Set(ctx, deviceID, selection); err != nil {
		r.logger.WarnContext(ctx, "device cache write failed",
			"device_id", deviceID,
			"error", err,
		)
		r.metrics.IncrementCacheWriteFailure()
	}
}

// candidate is one lazily-read entry in the precedence chain.
type candidate struct {
	source string
	read   func(context.Context) (domain.Selection, bool)
}

// candidates memoizes the upstream reads so each source is consulted at most
// once per pass no matter how many chain walks touch it.
type candidates struct {
	resolver   *Resolver
	identityID domain.IdentityID
	deviceID   domain.DeviceID

	cacheRead bool
	cached    domain.Selection
	cacheOK   bool

	profileRead bool
	stored      domain.Selection
	profileOK   bool
}

func (c *candidates) chain() []candidate {
	return []candidate{
		{source: SourceDeviceCache, read: c.fromCache},
		{source: SourceProfile, read: c.fromProfile},
	}
}

func (c *candidates) fromCache(ctx context.Context) (domain.Selection, bool) {
	if !c.cacheRead {
		c.cacheRead = true
		c.cached, c.cacheOK = c.resolver.readCache(ctx, c.deviceID)
	}
	return c.cached, c.cacheOK
}

func (c *candidates) fromProfile(ctx context.Context) (domain.Selection, bool) {
	if !c.profileRead {
		c.profileRead = true
		c.stored, c.profileOK = c.resolver.readProfile(ctx, c.identityID)
	}
	return c.stored, c.profileOK
}

func (r *Resolver) readCache(ctx context.Context, deviceID domain.DeviceID) (domain.Selection, bool) {
	if deviceID.IsZero() {
		return domain.Selection{}, false
	}
	sel, err := r.cache.Get(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "device cache read failed, resolving without it",
				"device_id", deviceID,
				"error", err,
			)
		}
		return domain.Selection{}, false
	}
	return sel, true
}

func (r *Resolver) readProfile(ctx context.Context, identityID domain.IdentityID) (domain.Selection, bool) {
	profile, err := r.profiles.Get(ctx, identityID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "scope profile read failed, resolving without it",
				"identity_id", identityID,
				"error", err,
			)
		}
		return domain.Selection{}, false
	}
	return profile.Preferred, true
}

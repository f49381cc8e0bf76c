package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	pstrings "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/strings"
)

// Loader produces the resolved access snapshot for an identity.
//
// Master identities see the entire active catalog with an admin role
// everywhere; no membership query occurs. Everyone else gets the surviving
// memberships: suspended and inactive rows are discarded, suspended
// organizations contribute nothing, and references to organizations that no
// longer resolve are dropped as ordinary staleness rather than errors. Only
// a transport-level failure aborts the load.
type Loader struct {
	directory Directory
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewLoader(directory Directory, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		directory: directory,
		logger:    logger,
		tracer:    otel.Tracer("scope"),
	}
}

// Load builds the grants snapshot. Per-organization location lookups run
// concurrently within one call.
func (l *Loader) Load(ctx context.Context, identity domain.Identity) (*Grants, error) {
	ctx, span := l.tracer.Start(ctx, "scope.load",
		trace.WithAttributes(
			attribute.String("identity_id", identity.ID.String()),
			attribute.Bool("master", identity.IsMaster()),
		))
	defer span.End()

	var (
		grants *Grants
		err    error
	)
	if identity.IsMaster() {
		grants, err = l.loadMaster(ctx)
	} else {
		grants, err = l.loadMemberships(ctx, identity.ID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("org_count", len(grants.Orgs)))
	return grants, nil
}

func (l *Loader) loadMaster(ctx context.Context) (*Grants, error) {
	orgs, err := l.directory.ListOrgs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	active := orgs[:0:0]
	for _, org := range orgs {
		if org.IsActive() {
			active = append(active, org)
		}
	}

	out := make([]OrgGrant, len(active))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, org := range active {
		eg.Go(func() error {
			locations, err := l.visibleLocations(egCtx, org.ID, true, nil)
			if err != nil {
				return err
			}
			out[i] = OrgGrant{
				Org:       org,
				Role:      models.RoleAdmin,
				OrgWide:   true,
				Locations: locations,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return NewGrants(true, out), nil
}

func (l *Loader) loadMemberships(ctx context.Context, identityID domain.IdentityID) (*Grants, error) {
	memberships, err := l.directory.ListMemberships(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	surviving := memberships[:0:0]
	for _, membership := range memberships {
		if membership.IsActive() {
			surviving = append(surviving, membership)
		}
	}

	slots := make([]*OrgGrant, len(surviving))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, membership := range surviving {
		eg.Go(func() error {
			grant, err := l.loadOrgGrant(egCtx, membership)
			if err != nil {
				return err
			}
			slots[i] = grant
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]OrgGrant, 0, len(slots))
	for _, grant := range slots {
		if grant != nil {
			out = append(out, *grant)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Org.Name != out[j].Org.Name {
			return out[i].Org.Name < out[j].Org.Name
		}
		return out[i].Org.ID < out[j].Org.ID
	})
	return NewGrants(false, out), nil
}

// loadOrgGrant resolves one surviving membership into a grant. A nil grant
// with nil error means the organization is gone or suspended and the row is
// dropped.
func (l *Loader) loadOrgGrant(ctx context.Context, membership models.Membership) (*OrgGrant, error) {
	org, err := l.directory.FindOrg(ctx, membership.OrgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			l.logger.DebugContext(ctx, "dropping membership for missing organization",
				"identity_id", membership.IdentityID,
				"org_id", membership.OrgID,
			)
			return nil, nil
		}
		return nil, fmt.Errorf("resolve organization %s: %w", membership.OrgID, err)
	}
	if !org.IsActive() {
		return nil, nil
	}

	allowList := normalizeAllowList(membership.AllowedLocationIDs)
	orgWide := membership.Role == models.RoleAdmin && len(allowList) == 0

	locations, err := l.visibleLocations(ctx, org.ID, orgWide, allowList)
	if err != nil {
		return nil, err
	}
	return &OrgGrant{
		Org:       *org,
		Role:      membership.Role,
		OrgWide:   orgWide,
		AllowList: allowList,
		Locations: locations,
	}, nil
}

// visibleLocations lists an organization's active locations, restricted to
// the allow-list unless the grant is org-wide. Allow-list entries that no
// longer resolve simply do not appear.
func (l *Loader) visibleLocations(ctx context.Context, orgID domain.OrgID, orgWide bool, allowList []domain.LocationID) ([]models.Location, error) {
	locations, err := l.directory.ListLocations(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list locations for %s: %w", orgID, err)
	}

	allowed := make(map[domain.LocationID]struct{}, len(allowList))
	for _, locationID := range allowList {
		allowed[locationID] = struct{}{}
	}

	out := locations[:0:0]
	for _, location := range locations {
		if !location.Active {
			continue
		}
		if !orgWide {
			if _, ok := allowed[location.ID]; !ok {
				continue
			}
		}
		out = append(out, location)
	}
	return out, nil
}

// normalizeAllowList trims and dedupes an allow-list, preserving row order.
func normalizeAllowList(ids []domain.LocationID) []domain.LocationID {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, locationID := range ids {
		raw[i] = locationID.String()
	}
	deduped := pstrings.DedupeAndTrim(raw)
	if len(deduped) == 0 {
		return nil
	}
	out := make([]domain.LocationID, len(deduped))
	for i, s := range deduped {
		out[i] = domain.LocationID(s)
	}
	return out
}

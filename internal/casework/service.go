package casework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/capability"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/sentinel"
	pstrings "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/strings"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// Service runs guest and visit operations under a caller's working scope.
// Every method takes the scope snapshot the handler captured: capabilities
// gate the verb, the active selection scopes the rows. An org-wide
// selection sees the whole organization, a concrete location narrows the
// view to that site plus org-level records, and a cleared location leaves
// only org-level records.
type Service struct {
	guests GuestStore
	visits VisitStore
	logger *slog.Logger
}

func NewService(guests GuestStore, visits VisitStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		guests: guests,
		visits: visits,
		logger: logger,
	}
}

// CreateGuestParams carries the caller-supplied guest fields.
type CreateGuestParams struct {
	FullName      string
	HouseholdSize int
	Tags          []string
}

// UpdateGuestParams carries the mutable guest fields. Nil pointers leave
// the current value in place.
type UpdateGuestParams struct {
	FullName      *string
	HouseholdSize *int
	Tags          []string
}

// LogVisitParams carries the caller-supplied visit fields. A zero VisitedAt
// means now.
type LogVisitParams struct {
	Notes     string
	VisitedAt time.Time
}

// activeScope extracts the organization and location the caller is working
// under or explains why there is none.
func activeScope(sc scope.Context) (domain.OrgID, domain.LocationRef, error) {
	if sc.State == scope.StateUnauthenticated {
		return "", domain.LocationRef{}, dErrors.New(dErrors.CodeUnauthorized, "no authenticated scope")
	}
	if sc.Selection.OrgID.IsZero() {
		if !sc.Ready() {
			return "", domain.LocationRef{}, dErrors.New(dErrors.CodeUnavailable, "working scope is still resolving")
		}
		return "", domain.LocationRef{}, dErrors.New(dErrors.CodeForbidden, "no active organization selected")
	}
	return sc.Selection.OrgID, sc.Selection.Location, nil
}

func requireCapability(sc scope.Context, cap capability.Capability) error {
	if !sc.Capabilities.Has(cap) {
		return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("missing capability %s", cap))
	}
	return nil
}

// coveredBy reports whether a row location falls inside the active
// location scope. Org-level rows (empty location) are visible under any
// scope.
func coveredBy(active domain.LocationRef, rowLocation domain.LocationID) bool {
	if rowLocation.IsZero() || active.IsAll() {
		return true
	}
	id, ok := active.ID()
	return ok && id == rowLocation
}

// stampLocation converts the active location into the value rows are
// written with. Only a concrete location stamps; org-wide and cleared
// scopes produce org-level records.
func stampLocation(active domain.LocationRef) domain.LocationID {
	if id, ok := active.ID(); ok {
		return id
	}
	return ""
}

// CreateGuest registers a guest under the active scope.
func (s *Service) CreateGuest(ctx context.Context, sc scope.Context, params CreateGuestParams) (*Guest, error) {
	orgID, location, err := activeScope(sc)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(sc, capability.CreateGuest); err != nil {
		return nil, err
	}

	guest, err := NewGuest(orgID, stampLocation(location), params.FullName, params.HouseholdSize, params.Tags, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}
	if err := s.guests.Upsert(ctx, guest); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "guest was not saved")
	}

	s.logger.InfoContext(ctx, "guest created",
		"guest_id", guest.ID,
		"org_id", guest.OrgID,
		"location_id", guest.LocationID,
	)
	return guest, nil
}

// GetGuest returns one guest if the active scope covers it.
func (s *Service) GetGuest(ctx context.Context, sc scope.Context, id uuid.UUID) (*Guest, error) {
	if err := requireCapability(sc, capability.ViewDashboard); err != nil {
		return nil, err
	}
	return s.visibleGuest(ctx, sc, id)
}

// ListGuests returns the guests inside the active scope, newest first.
func (s *Service) ListGuests(ctx context.Context, sc scope.Context) ([]Guest, error) {
	orgID, location, err := activeScope(sc)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(sc, capability.ViewDashboard); err != nil {
		return nil, err
	}

	all, err := s.guests.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "guests could not be listed")
	}

	out := all[:0:0]
	for _, guest := range all {
		if coveredBy(location, guest.LocationID) {
			out = append(out, guest)
		}
	}
	return out, nil
}

// UpdateGuest applies the given changes to a guest inside the active scope.
func (s *Service) UpdateGuest(ctx context.Context, sc scope.Context, id uuid.UUID, params UpdateGuestParams) (*Guest, error) {
	if err := requireCapability(sc, capability.EditGuest); err != nil {
		return nil, err
	}
	guest, err := s.visibleGuest(ctx, sc, id)
	if err != nil {
		return nil, err
	}

	if params.FullName != nil {
		if *params.FullName == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "guest name cannot be empty")
		}
		if len(*params.FullName) > maxNameLength {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "guest name exceeds maximum length")
		}
		guest.FullName = *params.FullName
	}
	if params.HouseholdSize != nil && *params.HouseholdSize >= 1 {
		guest.HouseholdSize = *params.HouseholdSize
	}
	if params.Tags != nil {
		guest.Tags = pstrings.DedupeAndTrimLower(params.Tags)
	}
	guest.UpdatedAt = requestcontext.Now(ctx).UTC()

	if err := s.guests.Upsert(ctx, guest); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "guest was not saved")
	}
	return guest, nil
}

// DeleteGuest removes a guest and their visit history.
func (s *Service) DeleteGuest(ctx context.Context, sc scope.Context, id uuid.UUID) error {
	if err := requireCapability(sc, capability.DeleteGuest); err != nil {
		return err
	}
	guest, err := s.visibleGuest(ctx, sc, id)
	if err != nil {
		return err
	}

	if err := s.visits.DeleteByGuest(ctx, guest.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "guest visits were not removed")
	}
	if err := s.guests.Delete(ctx, guest.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "guest was not removed")
	}

	s.logger.InfoContext(ctx, "guest deleted",
		"guest_id", guest.ID,
		"org_id", guest.OrgID,
	)
	return nil
}

// LogVisit records a service interaction with a guest at the active
// location.
func (s *Service) LogVisit(ctx context.Context, sc scope.Context, guestID uuid.UUID, params LogVisitParams) (*Visit, error) {
	_, location, err := activeScope(sc)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(sc, capability.LogVisit); err != nil {
		return nil, err
	}
	guest, err := s.visibleGuest(ctx, sc, guestID)
	if err != nil {
		return nil, err
	}

	at := params.VisitedAt
	if at.IsZero() {
		at = requestcontext.Now(ctx)
	}
	visit, err := NewVisit(guest, stampLocation(location), params.Notes, at.UTC())
	if err != nil {
		return nil, err
	}
	if err := s.visits.Insert(ctx, visit); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "visit was not saved")
	}

	s.logger.InfoContext(ctx, "visit logged",
		"visit_id", visit.ID,
		"guest_id", guest.ID,
		"org_id", visit.OrgID,
		"location_id", visit.LocationID,
	)
	return visit, nil
}

// ListVisits returns a guest's visit history, most recent first.
func (s *Service) ListVisits(ctx context.Context, sc scope.Context, guestID uuid.UUID) ([]Visit, error) {
	if err := requireCapability(sc, capability.ViewDashboard); err != nil {
		return nil, err
	}
	guest, err := s.visibleGuest(ctx, sc, guestID)
	if err != nil {
		return nil, err
	}

	visits, err := s.visits.ListByGuest(ctx, guest.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "visits could not be listed")
	}
	return visits, nil
}

// DeleteVisit removes one visit inside the active scope.
func (s *Service) DeleteVisit(ctx context.Context, sc scope.Context, visitID uuid.UUID) error {
	orgID, location, err := activeScope(sc)
	if err != nil {
		return err
	}
	if err := requireCapability(sc, capability.DeleteVisit); err != nil {
		return err
	}

	visit, err := s.visits.Find(ctx, visitID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "visit not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "visit could not be loaded")
	}
	if visit.OrgID != orgID || !coveredBy(location, visit.LocationID) {
		return dErrors.New(dErrors.CodeNotFound, "visit not found")
	}

	if err := s.visits.Delete(ctx, visit.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "visit was not removed")
	}

	s.logger.InfoContext(ctx, "visit deleted",
		"visit_id", visit.ID,
		"org_id", visit.OrgID,
	)
	return nil
}

// visibleGuest loads a guest and verifies the active scope covers it. Rows
// outside the scope read as not found so callers cannot probe other
// organizations.
func (s *Service) visibleGuest(ctx context.Context, sc scope.Context, id uuid.UUID) (*Guest, error) {
	orgID, location, err := activeScope(sc)
	if err != nil {
		return nil, err
	}

	guest, err := s.guests.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "guest not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "guest could not be loaded")
	}
	if guest.OrgID != orgID || !coveredBy(location, guest.LocationID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "guest not found")
	}
	return guest, nil
}

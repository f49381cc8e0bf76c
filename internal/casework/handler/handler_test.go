package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"
	cwstore "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/devicecache"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/profile"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// Justification for unit tests: these handlers sit between the wire and two
// real collaborators, the session manager and the casework service. The
// tests run requests through a chi router with in-memory components and pin
// the HTTP concerns: the caller's resolved scope shapes every response, bad
// ids and bodies are 400 before any store is touched, and out of scope rows
// surface as 404 rather than 403.

type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	router  http.Handler
	guests  *cwstore.InMemoryGuests
	visits  *cwstore.InMemoryVisits
	manager *scope.Manager

	// ident and device are injected into every request by the test
	// middleware; tests mutate them to change the caller.
	ident  domain.Identity
	device domain.DeviceID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ident = domain.Identity{ID: "id_admin", Email: "lead@shepherdstable.org"}
	s.device = "dev_1"

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	catalog := store.NewInMemory()
	s.Require().NoError(catalog.UpsertOrg(s.ctx, &models.Org{
		ID: "org_alpha", Name: "Alpha Pantry", Status: models.OrgStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))
	s.Require().NoError(catalog.UpsertLocation(s.ctx, &models.Location{
		ID: "loc_a1", OrgID: "org_alpha", Name: "Annex", Active: true,
		CreatedAt: now, UpdatedAt: now,
	}))
	s.Require().NoError(catalog.UpsertLocation(s.ctx, &models.Location{
		ID: "loc_a2", OrgID: "org_alpha", Name: "Main", Active: true,
		CreatedAt: now, UpdatedAt: now,
	}))
	s.Require().NoError(catalog.UpsertMembership(s.ctx, &models.Membership{
		IdentityID: "id_admin", OrgID: "org_alpha",
		Role: models.RoleAdmin, Status: models.MembershipStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))
	s.Require().NoError(catalog.UpsertMembership(s.ctx, &models.Membership{
		IdentityID: "id_vol", OrgID: "org_alpha",
		Role: models.RoleVolunteer, Status: models.MembershipStatusActive,
		AllowedLocationIDs: []domain.LocationID{"loc_a1"},
		CreatedAt:          now, UpdatedAt: now,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.manager = scope.NewManager(catalog, devicecache.NewMemory(), profile.NewMemory(), logger,
		scope.WithAsyncRunner(func(fn func()) { fn() }),
	)

	s.guests = cwstore.NewInMemoryGuests()
	s.visits = cwstore.NewInMemoryVisits()
	service := casework.NewService(s.guests, s.visits, logger)

	h := New(service, s.manager, logger)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if !s.ident.ID.IsZero() {
				ctx = requestcontext.WithIdentity(ctx, s.ident)
			}
			ctx = requestcontext.WithDeviceID(ctx, s.device)
			ctx = requestcontext.WithRequestID(ctx, "req_test")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) doRaw(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decodeGuest(rec *httptest.ResponseRecorder) casework.Guest {
	var guest casework.Guest
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&guest))
	return guest
}

func (s *HandlerSuite) seedGuest(locationID domain.LocationID, name string) *casework.Guest {
	guest, err := casework.NewGuest("org_alpha", locationID, name, 2, nil, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.guests.Upsert(s.ctx, guest))
	return guest
}

func (s *HandlerSuite) TestEndpointsRequireIdentity() {
	s.ident = domain.Identity{}

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/guests", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/guests", map[string]any{"full_name": "X"}).Code)
}

func (s *HandlerSuite) TestGuestLifecycle() {
	rec := s.do(http.MethodPost, "/guests", map[string]any{
		"full_name":      "Rosa Delgado",
		"household_size": 3,
		"tags":           []string{" Senior "},
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := s.decodeGuest(rec)
	s.NotEqual(uuid.Nil, created.ID)
	s.Equal(domain.OrgID("org_alpha"), created.OrgID)
	// The admin resolves to a concrete default location, so the row is
	// stamped with it.
	s.Equal(domain.LocationID("loc_a1"), created.LocationID)
	s.Equal(3, created.HouseholdSize)
	s.Equal([]string{"senior"}, created.Tags)

	rec = s.do(http.MethodGet, "/guests", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list GuestListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	s.Require().Len(list.Guests, 1)
	s.Equal(created.ID, list.Guests[0].ID)

	rec = s.do(http.MethodGet, "/guests/"+created.ID.String(), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Rosa Delgado", s.decodeGuest(rec).FullName)

	rec = s.do(http.MethodPut, "/guests/"+created.ID.String(), map[string]any{"household_size": 5})
	s.Require().Equal(http.StatusOK, rec.Code)
	updated := s.decodeGuest(rec)
	s.Equal("Rosa Delgado", updated.FullName)
	s.Equal(5, updated.HouseholdSize)

	rec = s.do(http.MethodDelete, "/guests/"+created.ID.String(), nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/guests/"+created.ID.String(), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestVisitFlow() {
	guest := s.seedGuest("loc_a1", "Pavel Horak")

	rec := s.do(http.MethodPost, "/guests/"+guest.ID.String()+"/visits", map[string]any{
		"notes": "first grocery bag",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var visit casework.Visit
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&visit))
	s.Equal(guest.ID, visit.GuestID)
	s.Equal(domain.OrgID("org_alpha"), visit.OrgID)
	s.Equal("first grocery bag", visit.Notes)
	s.False(visit.VisitedAt.IsZero())

	rec = s.do(http.MethodGet, "/guests/"+guest.ID.String()+"/visits", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var history VisitListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&history))
	s.Require().Len(history.Visits, 1)
	s.Equal(visit.ID, history.Visits[0].ID)

	rec = s.do(http.MethodDelete, "/visits/"+visit.ID.String(), nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/guests/"+guest.ID.String()+"/visits", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	history = VisitListResponse{}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&history))
	s.Empty(history.Visits)
}

func (s *HandlerSuite) TestVolunteerScopeNarrowsTheView() {
	orgLevel := s.seedGuest("", "Rosa Delgado")
	otherSite := s.seedGuest("loc_a2", "June Park")

	s.ident = domain.Identity{ID: "id_vol", Email: "vol@shepherdstable.org"}
	s.device = "dev_2"

	rec := s.do(http.MethodGet, "/guests", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list GuestListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	s.Require().Len(list.Guests, 1)
	s.Equal(orgLevel.ID, list.Guests[0].ID)

	rec = s.do(http.MethodGet, "/guests/"+otherSite.ID.String(), nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/guests/"+orgLevel.ID.String(), nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestMalformedRequestsAreRejectedEarly() {
	s.Equal(http.StatusBadRequest, s.doRaw(http.MethodPost, "/guests", "not json").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/guests", map[string]any{"household_size": 2}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/guests/not-a-uuid", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, "/visits/123", nil).Code)

	guests, err := s.guests.ListByOrg(s.ctx, "org_alpha")
	s.Require().NoError(err)
	s.Empty(guests)
}

package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"
	caseworkhandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework/handler"
	cwstore "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/device"
	devicehandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/device/handler"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/models"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/directory/store"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/identity"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/middleware"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/devicecache"
	scopehandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/handler"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/profile"
	httptransport "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/transport/http"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
)

// Justification for unit tests: the router is the seam where authentication,
// device context and the feature handlers meet. These tests run real signed
// tokens through the assembled stack over in-memory stores and pin the
// surface contract: probes and the scrape endpoint answer in the clear,
// everything under /v1 demands a valid bearer token, and a device id on a
// request leaves a cache trail only when its credential holds up.

// Prometheus collectors register globally, so the suite shares one set.
var sharedMetrics = metrics.New()

type RouterSuite struct {
	suite.Suite
	ctx      context.Context
	router   http.Handler
	tokens   *identity.TokenService
	registry *device.Registry
	cache    *devicecache.Memory
	readyErr error
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctx = context.Background()
	s.readyErr = nil
	s.buildRouter(false)
}

func (s *RouterSuite) buildRouter(enforceDevices bool) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

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
		IdentityID: "id_router", OrgID: "org_alpha",
		Role: models.RoleAdmin, Status: models.MembershipStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))

	s.cache = devicecache.NewMemory()
	manager := scope.NewManager(catalog, s.cache, profile.NewMemory(), logger,
		scope.WithAsyncRunner(func(fn func()) { fn() }),
	)
	service := casework.NewService(cwstore.NewInMemoryGuests(), cwstore.NewInMemoryVisits(), logger)
	s.registry = device.NewRegistry(device.NewMemory(), s.cache, logger)
	s.tokens = identity.NewTokenService("router-test-signing-key", "shepherds-table-identity", "shepherds-table-cloud")

	s.router = httptransport.New(httptransport.Config{
		Logger:         logger,
		Metrics:        sharedMetrics,
		Tokens:         s.tokens,
		DeviceVerifier: s.registry,
		EnforceDevices: enforceDevices,
		Ready:          func(context.Context) error { return s.readyErr },
		Scope:          scopehandler.New(manager, logger),
		Casework:       caseworkhandler.New(service, manager, logger),
		Devices:        devicehandler.New(s.registry, logger),
	})
}

func (s *RouterSuite) newRequest(method, path, token string, payload any) *http.Request {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (s *RouterSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) token(id string) string {
	tok, err := s.tokens.Generate(domain.Identity{
		ID:    domain.IdentityID(id),
		Email: id + "@shepherdstable.org",
	}, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *RouterSuite) enrollDevice(token, name string) device.Enrollment {
	rec := s.do(s.newRequest(http.MethodPost, "/v1/devices", token, map[string]any{"display_name": name}))
	s.Require().Equal(http.StatusCreated, rec.Code)
	var enr device.Enrollment
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&enr))
	return enr
}

func (s *RouterSuite) TestProbesAndMetricsAnswerInTheClear() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())

	s.readyErr = errors.New("postgres is unreachable")
	rec = s.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"status":"unavailable"}`, rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "go_goroutines")
}

func (s *RouterSuite) TestVersionedRoutesRequireABearerToken() {
	type errBody struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	decode := func(rec *httptest.ResponseRecorder) errBody {
		var body errBody
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		return body
	}

	s.Run("a missing header is rejected", func() {
		rec := s.do(s.newRequest(http.MethodGet, "/v1/scope", "", nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
		body := decode(rec)
		s.Equal("unauthorized", body.Error)
		s.Equal("missing or malformed Authorization header", body.Description)
	})

	s.Run("a token signed with the wrong key is rejected", func() {
		forger := identity.NewTokenService("some-other-key", "shepherds-table-identity", "shepherds-table-cloud")
		tok, err := forger.Generate(domain.Identity{ID: "id_router"}, time.Hour)
		s.Require().NoError(err)

		rec := s.do(s.newRequest(http.MethodGet, "/v1/scope", tok, nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("invalid or expired token", decode(rec).Description)
	})

	s.Run("an expired token is rejected", func() {
		tok, err := s.tokens.Generate(domain.Identity{ID: "id_router"}, -time.Minute)
		s.Require().NoError(err)

		rec := s.do(s.newRequest(http.MethodGet, "/v1/scope", tok, nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("a token minted for another audience is rejected", func() {
		other := identity.NewTokenService("router-test-signing-key", "shepherds-table-identity", "another-service")
		tok, err := other.Generate(domain.Identity{ID: "id_router"}, time.Hour)
		s.Require().NoError(err)

		rec := s.do(s.newRequest(http.MethodGet, "/v1/scope", tok, nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("probes stay reachable without credentials", func() {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *RouterSuite) TestSignedCallersCrossTheWholeStack() {
	tok := s.token("id_router")

	rec := s.do(s.newRequest(http.MethodGet, "/v1/scope", tok, nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	var sc scopehandler.ScopeResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&sc))
	s.Equal("ready", sc.State)
	s.Equal("org_alpha", sc.Selection.OrgID.String())
	s.Equal("loc_a1", sc.Selection.Location.String())

	rec = s.do(s.newRequest(http.MethodPost, "/v1/guests", tok, map[string]any{
		"full_name":      "Rosa Delgado",
		"household_size": 3,
	}))
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created casework.Guest
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
	s.Equal(domain.OrgID("org_alpha"), created.OrgID)
	s.Equal(domain.LocationID("loc_a1"), created.LocationID)

	rec = s.do(s.newRequest(http.MethodGet, "/v1/guests", tok, nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	var list caseworkhandler.GuestListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	s.Require().Len(list.Guests, 1)
	s.Equal("Rosa Delgado", list.Guests[0].FullName)

	enr := s.enrollDevice(tok, "Front desk tablet")
	s.NotEmpty(enr.Secret)
	s.Equal("Front desk tablet", enr.Device.DisplayName)

	req := s.newRequest(http.MethodPut, "/v1/scope/location", tok, map[string]any{"location": "loc_a2"})
	req.Header.Set(middleware.DeviceIDHeader, enr.Device.ID.String())
	rec = s.do(req)
	s.Require().Equal(http.StatusOK, rec.Code)

	sel, err := s.cache.Get(s.ctx, enr.Device.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrgID("org_alpha"), sel.OrgID)
	s.Equal("loc_a2", sel.Location.String())
}

func (s *RouterSuite) TestEnforcementDropsUnverifiedDeviceIDs() {
	s.buildRouter(true)
	tok := s.token("id_router")
	enr := s.enrollDevice(tok, "Front desk tablet")

	s.Run("a wrong secret does not fail the request and leaves no trail", func() {
		req := s.newRequest(http.MethodPut, "/v1/scope/location", tok, map[string]any{"location": "loc_a2"})
		req.Header.Set(middleware.DeviceIDHeader, enr.Device.ID.String())
		req.Header.Set(middleware.DeviceSecretHeader, "not-the-secret")
		rec := s.do(req)
		s.Equal(http.StatusOK, rec.Code)

		_, err := s.cache.Get(s.ctx, enr.Device.ID)
		s.Error(err)
	})

	s.Run("an unknown device id is ignored the same way", func() {
		req := s.newRequest(http.MethodPut, "/v1/scope/location", tok, map[string]any{"location": "loc_a1"})
		req.Header.Set(middleware.DeviceIDHeader, "dev_ghost")
		rec := s.do(req)
		s.Equal(http.StatusOK, rec.Code)

		_, err := s.cache.Get(s.ctx, "dev_ghost")
		s.Error(err)
	})

	s.Run("the enrolled credential writes the cache", func() {
		req := s.newRequest(http.MethodPut, "/v1/scope/location", tok, map[string]any{"location": "loc_a2"})
		req.Header.Set(middleware.DeviceIDHeader, enr.Device.ID.String())
		req.Header.Set(middleware.DeviceSecretHeader, enr.Secret)
		rec := s.do(req)
		s.Equal(http.StatusOK, rec.Code)

		sel, err := s.cache.Get(s.ctx, enr.Device.ID)
		s.Require().NoError(err)
		s.Equal(domain.OrgID("org_alpha"), sel.OrgID)
		s.Equal("loc_a2", sel.Location.String())
	})
}

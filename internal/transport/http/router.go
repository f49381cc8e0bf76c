// Package httptransport assembles the HTTP surface: liveness, readiness and
// metrics endpoints in the clear, and the scope, casework and device APIs
// behind bearer authentication under /v1.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	caseworkhandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework/handler"
	devicehandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/device/handler"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/metrics"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/platform/middleware"
	scopehandler "github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope/handler"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/httputil"
)

// Config carries everything the router mounts. Ready is consulted by the
// readiness endpoint; nil reports ready unconditionally.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Tokens         middleware.TokenVerifier
	DeviceVerifier middleware.DeviceVerifier
	EnforceDevices bool
	Ready          func(context.Context) error

	Scope    *scopehandler.Handler
	Casework *caseworkhandler.Handler
	Devices  *devicehandler.Handler
}

// New builds the router. Request id, request time and client metadata run on
// every request so probe traffic and API traffic log the same way; metrics
// and authentication apply only to the versioned API.
func New(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady(cfg.Ready, cfg.Logger))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Metrics != nil {
			r.Use(middleware.HTTPMetrics(cfg.Metrics))
		}
		r.Use(middleware.RequireAuth(cfg.Tokens, cfg.Logger))
		r.Use(middleware.DeviceContext(cfg.DeviceVerifier, cfg.EnforceDevices, cfg.Logger))

		cfg.Scope.Register(r)
		cfg.Casework.Register(r)
		cfg.Devices.Register(r)
	})

	return r
}

type statusResponse struct {
	Status string `json:"status"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func handleReady(probe func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if probe != nil {
			if err := probe(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "readiness probe failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

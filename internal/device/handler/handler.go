// Package handler exposes device enrollment over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/device"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/httputil"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// EnrollDeviceRequest optionally names the device; when absent the name is
// derived from the User-Agent.
type EnrollDeviceRequest struct {
	DisplayName string `json:"display_name"`
}

func (r *EnrollDeviceRequest) Validate() error { return nil }

// Handler wires device enrollment endpoints to the registry.
type Handler struct {
	registry *device.Registry
	logger   *slog.Logger
}

// New constructs a device handler.
func New(registry *device.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// Register mounts device endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/devices", h.HandleEnroll)
	r.Get("/devices/{deviceID}", h.HandleGet)
	r.Delete("/devices/{deviceID}", h.HandleRemove)
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) bool {
	if requestcontext.IdentityID(r.Context()).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}

func (h *Handler) pathDeviceID(w http.ResponseWriter, r *http.Request) (domain.DeviceID, bool) {
	id, err := domain.ParseDeviceID(chi.URLParam(r, "deviceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

// HandleEnroll handles POST /devices requests. The body is optional.
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}

	var req EnrollDeviceRequest
	if r.ContentLength != 0 {
		decoded, ok := httputil.DecodeAndPrepare[EnrollDeviceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		req = *decoded
	}

	enrollment, err := h.registry.Enroll(ctx, req.DisplayName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, enrollment)
}

// HandleGet handles GET /devices/{deviceID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.requireIdentity(w, r) {
		return
	}
	id, ok := h.pathDeviceID(w, r)
	if !ok {
		return
	}

	dev, err := h.registry.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dev)
}

// HandleRemove handles DELETE /devices/{deviceID} requests.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if !h.requireIdentity(w, r) {
		return
	}
	id, ok := h.pathDeviceID(w, r)
	if !ok {
		return
	}

	if err := h.registry.Remove(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// Package handler exposes the scope engine over HTTP. The auth middleware has
// already verified and attached the identity; these endpoints only translate
// between the wire and the session.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/httputil"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// Sessions is the slice of the scope manager the handlers need.
type Sessions interface {
	Ensure(ctx context.Context, identity domain.Identity, deviceID domain.DeviceID) *scope.Session
	SignOut(ctx context.Context, identityID domain.IdentityID, deviceID domain.DeviceID)
}

// Handler wires scope endpoints to the session manager.
type Handler struct {
	sessions Sessions
	logger   *slog.Logger
}

// New constructs a scope handler.
func New(sessions Sessions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions: sessions,
		logger:   logger,
	}
}

// Register mounts scope endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/scope", h.HandleGetScope)
	r.Put("/scope/org", h.HandleSetOrg)
	r.Put("/scope/location", h.HandleSetLocation)
	r.Post("/scope/default", h.HandleSaveDefault)
	r.Post("/scope/signout", h.HandleSignOut)
}

// identity pulls the verified identity, writing 401 when absent.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	ident := requestcontext.Identity(r.Context())
	if ident.ID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Identity{}, false
	}
	return ident, true
}

// HandleGetScope handles GET /scope requests.
func (h *Handler) HandleGetScope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	sess := h.sessions.Ensure(ctx, ident, requestcontext.DeviceID(ctx))
	httputil.WriteJSON(w, http.StatusOK, FromContext(sess.Context()))
}

// HandleSetOrg handles PUT /scope/org requests.
func (h *Handler) HandleSetOrg(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetOrgRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	deviceID := requestcontext.DeviceID(ctx)
	sess := h.sessions.Ensure(ctx, ident, deviceID)
	sess.SetActiveOrg(ctx, deviceID, req.ParsedOrgID())

	snapshot := sess.Context()
	h.logger.InfoContext(ctx, "active organization set",
		"request_id", requestID,
		"identity_id", ident.ID,
		"org_id", snapshot.Selection.OrgID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromContext(snapshot))
}

// HandleSetLocation handles PUT /scope/location requests.
func (h *Handler) HandleSetLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetLocationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	deviceID := requestcontext.DeviceID(ctx)
	sess := h.sessions.Ensure(ctx, ident, deviceID)
	sess.SetActiveLocation(ctx, deviceID, req.Location)

	snapshot := sess.Context()
	h.logger.InfoContext(ctx, "active location set",
		"request_id", requestID,
		"identity_id", ident.ID,
		"org_id", snapshot.Selection.OrgID,
		"location", snapshot.Selection.Location.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromContext(snapshot))
}

// HandleSaveDefault handles POST /scope/default requests. This is the one
// scope action that reports persistence failure to the caller.
func (h *Handler) HandleSaveDefault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	deviceID := requestcontext.DeviceID(ctx)
	sess := h.sessions.Ensure(ctx, ident, deviceID)
	if err := sess.SaveDeviceDefaultScope(ctx, deviceID); err != nil {
		h.logger.ErrorContext(ctx, "default scope save failed",
			"request_id", requestID,
			"identity_id", ident.ID,
			"device_id", deviceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "default scope saved",
		"request_id", requestID,
		"identity_id", ident.ID,
		"device_id", deviceID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromContext(sess.Context()))
}

// HandleSignOut handles POST /scope/signout requests.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := h.identity(w, r)
	if !ok {
		return
	}

	h.sessions.SignOut(ctx, ident.ID, requestcontext.DeviceID(ctx))
	h.logger.InfoContext(ctx, "scope session ended",
		"request_id", requestcontext.RequestID(ctx),
		"identity_id", ident.ID,
	)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// Package handler exposes casework over HTTP. Handlers capture the caller's
// working scope once per request and hand it to the service, which owns the
// capability and row-scoping decisions.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/casework"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/internal/scope"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain"
	dErrors "github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/domain-errors"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/platform/httputil"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// Service is the slice of casework the handlers need.
type Service interface {
	CreateGuest(ctx context.Context, sc scope.Context, params casework.CreateGuestParams) (*casework.Guest, error)
	GetGuest(ctx context.Context, sc scope.Context, id uuid.UUID) (*casework.Guest, error)
	ListGuests(ctx context.Context, sc scope.Context) ([]casework.Guest, error)
	UpdateGuest(ctx context.Context, sc scope.Context, id uuid.UUID, params casework.UpdateGuestParams) (*casework.Guest, error)
	DeleteGuest(ctx context.Context, sc scope.Context, id uuid.UUID) error
	LogVisit(ctx context.Context, sc scope.Context, guestID uuid.UUID, params casework.LogVisitParams) (*casework.Visit, error)
	ListVisits(ctx context.Context, sc scope.Context, guestID uuid.UUID) ([]casework.Visit, error)
	DeleteVisit(ctx context.Context, sc scope.Context, visitID uuid.UUID) error
}

// Sessions yields the caller's scope session.
type Sessions interface {
	Ensure(ctx context.Context, identity domain.Identity, deviceID domain.DeviceID) *scope.Session
}

// Handler wires casework endpoints to the service.
type Handler struct {
	service  Service
	sessions Sessions
	logger   *slog.Logger
}

// New constructs a casework handler.
func New(service Service, sessions Sessions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// Register mounts casework endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/guests", h.HandleCreateGuest)
	r.Get("/guests", h.HandleListGuests)
	r.Get("/guests/{guestID}", h.HandleGetGuest)
	r.Put("/guests/{guestID}", h.HandleUpdateGuest)
	r.Delete("/guests/{guestID}", h.HandleDeleteGuest)
	r.Post("/guests/{guestID}/visits", h.HandleLogVisit)
	r.Get("/guests/{guestID}/visits", h.HandleListVisits)
	r.Delete("/visits/{visitID}", h.HandleDeleteVisit)
}

// scopeContext captures the caller's working scope, writing 401 when no
// identity was asserted.
func (h *Handler) scopeContext(w http.ResponseWriter, r *http.Request) (scope.Context, bool) {
	ctx := r.Context()
	ident := requestcontext.Identity(ctx)
	if ident.ID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return scope.Context{}, false
	}
	sess := h.sessions.Ensure(ctx, ident, requestcontext.DeviceID(ctx))
	return sess.Context(), true
}

// pathID parses a UUID path parameter, writing 400 when malformed.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, name+" is not a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

// HandleCreateGuest handles POST /guests requests.
func (h *Handler) HandleCreateGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateGuestRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	guest, err := h.service.CreateGuest(ctx, sc, casework.CreateGuestParams{
		FullName:      req.FullName,
		HouseholdSize: req.HouseholdSize,
		Tags:          req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, guest)
}

// HandleListGuests handles GET /guests requests.
func (h *Handler) HandleListGuests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}

	guests, err := h.service.ListGuests(ctx, sc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if guests == nil {
		guests = []casework.Guest{}
	}
	httputil.WriteJSON(w, http.StatusOK, GuestListResponse{Guests: guests})
}

// HandleGetGuest handles GET /guests/{guestID} requests.
func (h *Handler) HandleGetGuest(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "guestID")
	if !ok {
		return
	}

	guest, err := h.service.GetGuest(r.Context(), sc, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, guest)
}

// HandleUpdateGuest handles PUT /guests/{guestID} requests.
func (h *Handler) HandleUpdateGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "guestID")
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateGuestRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	guest, err := h.service.UpdateGuest(ctx, sc, id, casework.UpdateGuestParams{
		FullName:      req.FullName,
		HouseholdSize: req.HouseholdSize,
		Tags:          req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, guest)
}

// HandleDeleteGuest handles DELETE /guests/{guestID} requests.
func (h *Handler) HandleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "guestID")
	if !ok {
		return
	}

	if err := h.service.DeleteGuest(r.Context(), sc, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleLogVisit handles POST /guests/{guestID}/visits requests.
func (h *Handler) HandleLogVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}
	guestID, ok := h.pathID(w, r, "guestID")
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[LogVisitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	visit, err := h.service.LogVisit(ctx, sc, guestID, casework.LogVisitParams{
		Notes:     req.Notes,
		VisitedAt: req.VisitedAt,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, visit)
}

// HandleListVisits handles GET /guests/{guestID}/visits requests.
func (h *Handler) HandleListVisits(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}
	guestID, ok := h.pathID(w, r, "guestID")
	if !ok {
		return
	}

	visits, err := h.service.ListVisits(r.Context(), sc, guestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if visits == nil {
		visits = []casework.Visit{}
	}
	httputil.WriteJSON(w, http.StatusOK, VisitListResponse{Visits: visits})
}

// HandleDeleteVisit handles DELETE /visits/{visitID} requests.
func (h *Handler) HandleDeleteVisit(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scopeContext(w, r)
	if !ok {
		return
	}
	visitID, ok := h.pathID(w, r, "visitID")
	if !ok {
		return
	}

	if err := h.service.DeleteVisit(r.Context(), sc, visitID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

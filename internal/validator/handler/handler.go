// Package handler wires validator endpoints to the validator service.
// Admin routes are owner-gated in the service, not here: the handler only
// authenticates (middleware) and translates between HTTP and domain types.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
	dErrors "attestor/pkg/domain-errors"
	"attestor/pkg/platform/httputil"
	"attestor/pkg/requestcontext"
)

// Service defines the validator operations the handler exposes.
type Service interface {
	Initialize(ctx context.Context, jurisdictionAddress id.Address, attributeID uint64) error
	AddOrganization(ctx context.Context, org id.Address, maxAddresses uint64, name string) error
	SetMaximumAddresses(ctx context.Context, org id.Address, newMax uint64) error
	IssueAttribute(ctx context.Context, target id.Address) error
	RevokeAttribute(ctx context.Context, target id.Address) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	PauseIssuance(ctx context.Context) error
	UnpauseIssuance(ctx context.Context) error
	ListOrganizations(ctx context.Context) ([]id.Address, error)
	GetOrganization(ctx context.Context, addr id.Address) (models.Record, error)
	Info(ctx context.Context) (*models.ValidatorState, error)
}

// Handler exposes the validator over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a validator handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts validator endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/initialize", h.HandleInitialize)
	r.Post("/admin/organizations", h.HandleAddOrganization)
	r.Put("/admin/organizations/{address}/capacity", h.HandleSetCapacity)
	r.Post("/admin/pause", h.toggle(h.service.Pause))
	r.Post("/admin/unpause", h.toggle(h.service.Unpause))
	r.Post("/admin/issuance/pause", h.toggle(h.service.PauseIssuance))
	r.Post("/admin/issuance/unpause", h.toggle(h.service.UnpauseIssuance))

	r.Post("/attributes/issue", h.HandleIssue)
	r.Post("/attributes/revoke", h.HandleRevoke)

	r.Get("/organizations", h.HandleListOrganizations)
	r.Get("/organizations/{address}", h.HandleGetOrganization)
	r.Get("/validator", h.HandleInfo)
}

// HandleInitialize handles POST /admin/initialize.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InitializeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	jurisdictionAddress, err := req.ParsedJurisdiction()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Initialize(ctx, jurisdictionAddress, req.AttributeID); err != nil {
		h.logger.ErrorContext(ctx, "initialize failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

// HandleAddOrganization handles POST /admin/organizations.
func (h *Handler) HandleAddOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddOrganizationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	org, err := req.ParsedAddress()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.AddOrganization(ctx, org, req.MaximumAddresses, req.Name); err != nil {
		h.logger.ErrorContext(ctx, "add organization failed",
			"request_id", requestID,
			"organization", req.Address,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"address": org.String()})
}

// HandleSetCapacity handles PUT /admin/organizations/{address}/capacity.
func (h *Handler) HandleSetCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	org, err := pathAddress(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetCapacityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetMaximumAddresses(ctx, org, req.MaximumAddresses); err != nil {
		h.logger.ErrorContext(ctx, "set capacity failed",
			"request_id", requestID,
			"organization", org,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"maximum_addresses": req.MaximumAddresses})
}

// HandleIssue handles POST /attributes/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	h.attributeCall(w, r, "issue", h.service.IssueAttribute)
}

// HandleRevoke handles POST /attributes/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.attributeCall(w, r, "revoke", h.service.RevokeAttribute)
}

func (h *Handler) attributeCall(w http.ResponseWriter, r *http.Request, op string, call func(context.Context, id.Address) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AttributeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := req.ParsedAddress()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := call(ctx, target); err != nil {
		h.logger.ErrorContext(ctx, "attribute operation failed",
			"request_id", requestID,
			"op", op,
			"target", req.Address,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": op + "d", "address": target.String()})
}

func (h *Handler) toggle(call func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := call(ctx); err != nil {
			h.logger.ErrorContext(ctx, "pause toggle failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleListOrganizations handles GET /organizations.
func (h *Handler) HandleListOrganizations(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.service.ListOrganizations(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAddresses(addrs))
}

// HandleGetOrganization handles GET /organizations/{address}. Unknown
// addresses return 200 with exists=false.
func (h *Handler) HandleGetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := pathAddress(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.GetOrganization(r.Context(), org)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// HandleInfo handles GET /validator.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Info(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromState(state))
}

func pathAddress(r *http.Request) (id.Address, error) {
	addr, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid address")
	}
	return addr, nil
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/atdgo/backend/api/transport"
	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/pkg/httpcontext"
	registryUC "github.com/atdgo/backend/usecase/registry"
)

type ProfileHandler struct {
	baseHandler
	registry *registryUC.UseCase
}

func NewProfileHandler(registry *registryUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
	}
}

// @Summary Fetch the authenticated account's profile
// @Tags profile
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.registry.FindByID(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account.Sanitized())
}

// @Summary Update profile fields
// @Tags profile
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	var update domain.ProfileUpdate
	if err := json.Unmarshal(ctx.PostBody(), &update); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.registry.UpdateProfile(stdCtx, accountID, update)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account)
}

// @Summary List the bounded profile edit history
// @Tags profile
// @Router /api/v1/profile/history [get]
func (h *ProfileHandler) History(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	history, err := h.registry.History(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, history)
}

// @Summary Roll the profile back to an earlier version
// @Tags profile
// @Router /api/v1/profile/restore [post]
func (h *ProfileHandler) RestoreProfile(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	var req transport.ProfileRestoreRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			h.respondError(ctx, domain.ErrInvalidPayload)
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.registry.RestoreProfile(stdCtx, accountID, req.Version)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account)
}

package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/atdgo/backend/pkg/httpcontext"
	integrityUC "github.com/atdgo/backend/usecase/integrity"
)

type IntegrityHandler struct {
	baseHandler
	uc *integrityUC.UseCase
}

func NewIntegrityHandler(uc *integrityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *IntegrityHandler {
	return &IntegrityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Report tasks owned by other accounts
// @Tags integrity
// @Router /api/v1/integrity/scan [get]
func (h *IntegrityHandler) Scan(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	violations, err := h.uc.Scan(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"violations": violations,
		"count":      len(violations),
	})
}

// @Summary Purge tasks owned by other accounts
// @Tags integrity
// @Router /api/v1/integrity/repair [post]
func (h *IntegrityHandler) Repair(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	bundle, purged, err := h.uc.Repair(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"bundle": bundle,
		"purged": purged,
	})
}

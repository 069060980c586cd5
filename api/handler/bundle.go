package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/atdgo/backend/api/transport"
	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/pkg/httpcontext"
	userdataUC "github.com/atdgo/backend/usecase/userdata"
)

type BundleHandler struct {
	baseHandler
	data *userdataUC.UseCase
}

func NewBundleHandler(data *userdataUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BundleHandler {
	return &BundleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		data:        data,
	}
}

// @Summary Load the account's data bundle
// @Tags bundle
// @Router /api/v1/bundle [get]
func (h *BundleHandler) Get(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	bundle, err := h.data.Load(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, bundle)
}

// @Summary Replace the account's data bundle
// @Tags bundle
// @Router /api/v1/bundle [put]
func (h *BundleHandler) Put(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	var bundle domain.Bundle
	if err := json.Unmarshal(ctx.PostBody(), &bundle); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.data.Save(stdCtx, accountID, &bundle); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, bundle)
}

// @Summary List available backup snapshots
// @Tags bundle
// @Router /api/v1/bundle/backups [get]
func (h *BundleHandler) Backups(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	backups, err := h.data.Backups(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, backups)
}

// @Summary Restore the newest backup snapshot
// @Tags bundle
// @Router /api/v1/bundle/restore-backup [post]
func (h *BundleHandler) RestoreBackup(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	bundle, err := h.data.RestoreFromBackup(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, bundle)
}

// @Summary Export the bundle as a portable JSON document
// @Tags bundle
// @Router /api/v1/bundle/export [get]
func (h *BundleHandler) Export(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	bundle, err := h.data.Load(stdCtx, accountID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	doc, err := h.data.Export(bundle)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="tasks-export.json"`)
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString(doc)
}

// @Summary Import a previously exported document
// @Tags bundle
// @Router /api/v1/bundle/import [post]
func (h *BundleHandler) Import(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	var req transport.ImportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Data == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	bundle, err := h.data.Import(req.Data)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if err := h.data.Save(stdCtx, accountID, bundle); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, bundle)
}

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/atdgo/backend/api/transport"
	"github.com/atdgo/backend/domain"
	"github.com/atdgo/backend/internal/middleware"
	"github.com/atdgo/backend/pkg/httpcontext"
	registryUC "github.com/atdgo/backend/usecase/registry"
	sessionUC "github.com/atdgo/backend/usecase/session"
)

// LoginNotifier is told when an account establishes a session, so recurring
// per-account work can be scheduled.
type LoginNotifier interface {
	OnLogin(accountID string)
}

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type AuthHandler struct {
	baseHandler
	registry *registryUC.UseCase
	sessions *sessionUC.UseCase
	notifier LoginNotifier
	token    TokenConfig
}

func NewAuthHandler(registry *registryUC.UseCase, sessions *sessionUC.UseCase, notifier LoginNotifier, token TokenConfig, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	if token.TTL <= 0 {
		token.TTL = 72 * time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
		sessions:    sessions,
		notifier:    notifier,
		token:       token,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.registry.Register(stdCtx, req.Name, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, account)
}

// @Summary Authenticate and establish a session
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Email == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, session, err := h.sessions.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	tokenString, err := middleware.Sign(h.token.Secret, h.token.Issuer, account.ID, session.ID, h.token.TTL)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err))
		return
	}

	if h.notifier != nil {
		h.notifier.OnLogin(account.ID)
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"account": account,
		"session": session,
		"token":   tokenString,
	})
}

// @Summary Restore the most recent fresh session
// @Tags auth
// @Router /api/v1/auth/restore [post]
func (h *AuthHandler) Restore(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, session, err := h.sessions.Restore(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if account == nil {
		// No fresh session on this device.
		h.respondSuccess(ctx, http.StatusOK, nil)
		return
	}

	tokenString, err := middleware.Sign(h.token.Secret, h.token.Issuer, account.ID, session.ID, h.token.TTL)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err))
		return
	}

	if h.notifier != nil {
		h.notifier.OnLogin(account.ID)
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"account": account,
		"session": session,
		"token":   tokenString,
	})
}

// @Summary End the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	accountID := h.accountID(ctx)
	if accountID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.sessions.Logout(stdCtx, accountID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Request a password reset token
// @Tags auth
// @Router /api/v1/auth/password-reset [post]
func (h *AuthHandler) PasswordReset(ctx *fasthttp.RequestCtx) {
	var req transport.PasswordResetRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Email == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.registry.RequestPasswordReset(stdCtx, req.Email)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	// There is no mail transport; the token is returned to the caller.
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"resetToken": token})
}

// @Summary Set a new password using a reset token
// @Tags auth
// @Router /api/v1/auth/password-reset/confirm [post]
func (h *AuthHandler) PasswordResetConfirm(ctx *fasthttp.RequestCtx) {
	var req transport.PasswordResetConfirmRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Token == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.registry.ResetPassword(stdCtx, req.Token, req.NewPassword); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dulytrade/portal-api/internal/api/metrics"
	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
)

// CallbackHandler handles GET /auth/callback, the OAuth redirect target.
type CallbackHandler struct {
	callbacks ports.CallbackService
	cookie    *session.Cookie
}

func NewCallbackHandler(callbacks ports.CallbackService, cookie *session.Cookie) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks, cookie: cookie}
}

// Callback completes the code exchange and redirects the browser onward.
// The session cookie is set only when a session was actually established.
//
// @Summary      OAuth callback
// @Tags         auth
// @Param        code       query  string  false  "Authorization code"
// @Param        returnUrl  query  string  false  "Post-login destination"
// @Param        error      query  string  false  "Provider error"
// @Success      302
// @Router       /auth/callback [get]
func (h *CallbackHandler) Callback(c echo.Context) error {
	res := h.callbacks.CompleteCallback(c.Request().Context(), ports.CallbackInput{
		Code:          c.QueryParam("code"),
		ReturnURL:     c.QueryParam("returnUrl"),
		ProviderError: c.QueryParam("error"),
		Meta:          requestMeta(c),
	})

	metrics.CallbacksTotal.WithLabelValues(callbackResultLabel(res)).Inc()

	if res.Token != "" {
		h.cookie.Write(c, res.Token, res.ExpiresAt)
	}
	return c.Redirect(http.StatusFound, res.Location)
}

func callbackResultLabel(res ports.CallbackResult) string {
	switch {
	case res.Token == "":
		return "failed"
	case strings.HasPrefix(res.Location, domain.CompleteProfilePath):
		return "consent_required"
	default:
		return "success"
	}
}

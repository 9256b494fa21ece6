package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// requestMeta extracts the client address and user agent for audit events.
// echo's RealIP already honours X-Forwarded-For and X-Real-IP.
func requestMeta(c echo.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

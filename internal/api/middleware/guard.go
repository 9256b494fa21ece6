package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dulytrade/portal-api/internal/api/metrics"
	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
)

// SessionKey is the echo context key under which the guard stores the
// resolved session for downstream handlers.
const SessionKey = "session"

// Guard enforces route protection: protected paths require a valid session,
// staff paths additionally require a staff role, and login pages bounce
// already-authenticated users to the dashboard. Paths outside the prefix
// tables pass through without a session lookup.
func Guard(store ports.SessionStore, profiles ports.ProfileRepository, cookie *session.Cookie, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			rc := domain.ClassifyRoute(path)
			if rc.Skip {
				return next(c)
			}

			sess := resolveSession(c, store, cookie)
			if sess != nil {
				c.Set(SessionKey, sess)
			}

			switch {
			case rc.LoginPage:
				if sess != nil {
					metrics.GuardDecisionsTotal.WithLabelValues("redirect_home").Inc()
					return c.Redirect(http.StatusFound, domain.HomePath)
				}

			case rc.Protected:
				if sess == nil {
					metrics.GuardDecisionsTotal.WithLabelValues("redirect_login").Inc()
					return c.Redirect(http.StatusFound, loginRedirect(path))
				}
				if rc.StaffOnly && !isStaff(c, profiles, sess, log) {
					metrics.GuardDecisionsTotal.WithLabelValues("redirect_home").Inc()
					return c.Redirect(http.StatusFound, domain.HomePath)
				}
			}

			metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()
			return next(c)
		}
	}
}

// resolveSession reads the session cookie and resolves it against the store.
// A successful resolve rewrites the cookie so rotated tokens reach the
// browser; an invalid one clears it.
func resolveSession(c echo.Context, store ports.SessionStore, cookie *session.Cookie) *domain.Session {
	token := cookie.Read(c)
	if token == "" {
		return nil
	}
	sess, err := store.Resolve(c.Request().Context(), token)
	if err != nil {
		cookie.Clear(c)
		return nil
	}
	cookie.Write(c, sess.Token, sess.ExpiresAt)
	return sess
}

// isStaff checks the user's profile role. Any lookup failure denies access.
func isStaff(c echo.Context, profiles ports.ProfileRepository, sess *domain.Session, log zerolog.Logger) bool {
	profile, err := profiles.FindByUserID(c.Request().Context(), sess.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", sess.UserID).Msg("staff check: profile lookup failed")
		return false
	}
	return profile.Role.Staff()
}

func loginRedirect(path string) string {
	return domain.CustomerLoginPath + "?redirectTo=" + url.QueryEscape(path)
}

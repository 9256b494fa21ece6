package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Cookie carries the session token between requests. HttpOnly always;
// Secure is off only for local development.
type Cookie struct {
	Name   string
	Secure bool
}

func NewCookie(name string, secure bool) *Cookie {
	if name == "" {
		name = "dp_session"
	}
	return &Cookie{Name: name, Secure: secure}
}

// Read returns the token carried by the request, or "".
func (k *Cookie) Read(c echo.Context) string {
	cookie, err := c.Cookie(k.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Write attaches the token to the response. Called on every resolve so
// provider-driven token rotation always reaches the client.
func (k *Cookie) Write(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     k.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie immediately.
func (k *Cookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     k.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

package domain

import "strings"

// Paths the guard redirects to. HomePath doubles as the safe default for
// post-login redirects so a bad returnUrl can never cause a loop.
const (
	HomePath            = "/dashboard"
	CustomerLoginPath   = "/auth/customer/login"
	StaffLoginPath      = "/auth/staff/login"
	CompleteProfilePath = "/auth/complete-profile"
)

// protectedPrefixes require a valid session. staffPrefix additionally
// requires a staff role.
var protectedPrefixes = []string{"/dashboard", "/chat", "/profile", "/internal", "/staff"}

const staffPrefix = "/staff"

// skipPrefixes are never guarded: API surface, static assets, probes.
var skipPrefixes = []string{"/api/", "/static/", "/metrics", "/health", "/favicon.ico"}

// RouteClass is the static classification of a request path. It is derived
// from prefix tables only, so unmatched paths cost no session lookup.
type RouteClass struct {
	Skip      bool
	Protected bool
	StaffOnly bool
	AuthPage  bool
	LoginPage bool
}

// ClassifyRoute classifies path against the static tables.
func ClassifyRoute(path string) RouteClass {
	var rc RouteClass

	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			rc.Skip = true
			return rc
		}
	}

	for _, p := range protectedPrefixes {
		if strings.HasPrefix(path, p) {
			rc.Protected = true
			break
		}
	}

	rc.StaffOnly = strings.HasPrefix(path, staffPrefix)
	rc.AuthPage = strings.HasPrefix(path, "/auth/")
	rc.LoginPage = rc.AuthPage && strings.Contains(path, "/login")

	return rc
}

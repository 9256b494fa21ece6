package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
)

type stubSessions struct {
	sessions map[string]*domain.Session
	rotateTo string
}

func (s *stubSessions) Issue(_ context.Context, token string) (*domain.Session, error) {
	return s.Resolve(context.Background(), token)
}

func (s *stubSessions) Resolve(_ context.Context, token string) (*domain.Session, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrSessionInvalid
	}
	if s.rotateTo != "" {
		out := *sess
		out.Token = s.rotateTo
		return &out, nil
	}
	return sess, nil
}

func (s *stubSessions) Revoke(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

func (s *stubSessions) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	return s.Resolve(ctx, token)
}

type stubProfiles struct {
	profiles map[string]*domain.UserProfile
	err      error
}

func (s *stubProfiles) FindByUserID(_ context.Context, userID string) (*domain.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubProfiles) Create(_ context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	return p, nil
}

func guardedRequest(t *testing.T, sessions *stubSessions, profiles *stubProfiles, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	cookie := session.NewCookie("dp_session", false)
	e.Use(Guard(sessions, profiles, cookie, zerolog.Nop()))
	e.Any("/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "dp_session", Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func validSessions() *stubSessions {
	return &stubSessions{sessions: map[string]*domain.Session{
		"tok-1": {
			Token:     "tok-1",
			UserID:    "user-1",
			Email:     "kim@example.com",
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}}
}

func TestGuardAnonymousOnProtectedPathRedirectsToLogin(t *testing.T) {
	rec := guardedRequest(t, &stubSessions{sessions: map[string]*domain.Session{}}, &stubProfiles{}, "/dashboard", "")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, domain.CustomerLoginPath) {
		t.Fatalf("Location = %q, want login page", loc)
	}
	if !strings.Contains(loc, "redirectTo=%2Fdashboard") {
		t.Fatalf("Location = %q, want redirectTo back to /dashboard", loc)
	}
}

func TestGuardInvalidTokenTreatedAsAnonymous(t *testing.T) {
	rec := guardedRequest(t, &stubSessions{sessions: map[string]*domain.Session{}}, &stubProfiles{}, "/chat", "garbage")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "dp_session" && c.MaxAge >= 0 {
			t.Fatalf("invalid cookie should be cleared, got %+v", c)
		}
	}
}

func TestGuardAuthenticatedPassesProtectedPath(t *testing.T) {
	rec := guardedRequest(t, validSessions(), &stubProfiles{}, "/dashboard", "tok-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGuardRewritesRotatedToken(t *testing.T) {
	sessions := validSessions()
	sessions.rotateTo = "tok-2"
	rec := guardedRequest(t, sessions, &stubProfiles{}, "/dashboard", "tok-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "dp_session" {
			got = c.Value
		}
	}
	if got != "tok-2" {
		t.Fatalf("cookie token = %q, want rotated tok-2", got)
	}
}

func TestGuardLoginPageBouncesAuthenticatedUser(t *testing.T) {
	rec := guardedRequest(t, validSessions(), &stubProfiles{}, "/auth/customer/login", "tok-1")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != domain.HomePath {
		t.Fatalf("Location = %q, want %q", loc, domain.HomePath)
	}
}

func TestGuardLoginPageOpenToAnonymous(t *testing.T) {
	rec := guardedRequest(t, &stubSessions{sessions: map[string]*domain.Session{}}, &stubProfiles{}, "/auth/customer/login", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGuardStaffPathDeniesCustomer(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]*domain.UserProfile{
		"user-1": {UserID: "user-1", Role: domain.RoleCustomer, ApprovalStatus: domain.ApprovalApproved},
	}}
	rec := guardedRequest(t, validSessions(), profiles, "/staff/orders", "tok-1")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != domain.HomePath {
		t.Fatalf("Location = %q, want %q", loc, domain.HomePath)
	}
}

func TestGuardStaffPathAllowsStaffRoles(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleKoreanTeam, domain.RoleChineseStaff, domain.RoleAdmin} {
		profiles := &stubProfiles{profiles: map[string]*domain.UserProfile{
			"user-1": {UserID: "user-1", Role: role, ApprovalStatus: domain.ApprovalApproved},
		}}
		rec := guardedRequest(t, validSessions(), profiles, "/staff/orders", "tok-1")

		if rec.Code != http.StatusOK {
			t.Fatalf("role %s: status = %d, want 200", role, rec.Code)
		}
	}
}

func TestGuardStaffPathDeniesOnProfileLookupFailure(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("db down")}
	rec := guardedRequest(t, validSessions(), profiles, "/staff/orders", "tok-1")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (fail closed)", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != domain.HomePath {
		t.Fatalf("Location = %q, want %q", loc, domain.HomePath)
	}
}

func TestGuardSkipsUnprotectedPaths(t *testing.T) {
	for _, path := range []string{"/api/auth/login", "/static/app.css", "/health/live", "/metrics"} {
		rec := guardedRequest(t, &stubSessions{sessions: map[string]*domain.Session{}}, &stubProfiles{}, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestGuardPublicPathOpenWithoutSession(t *testing.T) {
	rec := guardedRequest(t, &stubSessions{sessions: map[string]*domain.Session{}}, &stubProfiles{}, "/about", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

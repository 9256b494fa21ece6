package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
)

func newCallbackService(identity *stubIdentity, sessions *stubSessions, recorder *stubRecorder) *CallbackService {
	return NewCallbackService(identity, sessions, recorder, zerolog.Nop())
}

func TestCallback_ProviderErrorShortCircuits(t *testing.T) {
	exchanged := false
	identity := &stubIdentity{
		exchangeFn: func(_ context.Context, _ string) (*domain.Account, string, error) {
			exchanged = true
			return nil, "", nil
		},
	}
	svc := newCallbackService(identity, newStubSessions(), &stubRecorder{})

	res := svc.CompleteCallback(context.Background(), ports.CallbackInput{
		Code:          "abc",
		ProviderError: "access_denied",
	})

	if exchanged {
		t.Fatalf("provider error must skip the code exchange")
	}
	if !strings.HasPrefix(res.Location, domain.CustomerLoginPath+"?") {
		t.Fatalf("expected login redirect, got %q", res.Location)
	}
	if !strings.Contains(res.Location, "error=access_denied") {
		t.Fatalf("expected error surfaced, got %q", res.Location)
	}
	if res.Token != "" {
		t.Fatalf("no session token on a failed callback")
	}
}

func TestCallback_MissingCode(t *testing.T) {
	svc := newCallbackService(&stubIdentity{}, newStubSessions(), &stubRecorder{})

	res := svc.CompleteCallback(context.Background(), ports.CallbackInput{})
	if !strings.Contains(res.Location, "error=oauth_failed") {
		t.Fatalf("expected oauth_failed redirect, got %q", res.Location)
	}
}

func TestCallback_ExchangeFailure(t *testing.T) {
	identity := &stubIdentity{
		exchangeFn: func(_ context.Context, _ string) (*domain.Account, string, error) {
			// Same path a consumed single-use code takes.
			return nil, "", domain.ErrOAuthExchangeFailed
		},
	}
	svc := newCallbackService(identity, newStubSessions(), &stubRecorder{})

	res := svc.CompleteCallback(context.Background(), ports.CallbackInput{Code: "used-code"})
	if !strings.Contains(res.Location, "error=oauth_failed") {
		t.Fatalf("expected oauth_failed redirect, got %q", res.Location)
	}
	if res.Token != "" {
		t.Fatalf("no session token after a failed exchange")
	}
}

func TestCallback_FirstLoginGoesToConsentWithReturnURL(t *testing.T) {
	identity := &stubIdentity{
		exchangeFn: func(_ context.Context, _ string) (*domain.Account, string, error) {
			return &domain.Account{ID: "u1", Email: "a@x.com"}, "tok1", nil
		},
	}
	svc := newCallbackService(identity, newStubSessions(), &stubRecorder{})

	res := svc.CompleteCallback(context.Background(), ports.CallbackInput{Code: "code", ReturnURL: "/chat/42"})

	u, err := url.Parse(res.Location)
	if err != nil {
		t.Fatalf("bad redirect %q: %v", res.Location, err)
	}
	if u.Path != domain.CompleteProfilePath {
		t.Fatalf("expected consent page, got %q", u.Path)
	}
	if got := u.Query().Get("returnUrl"); got != "/chat/42" {
		t.Fatalf("returnUrl must survive the consent hop, got %q", got)
	}
	if res.Token != "tok1" {
		t.Fatalf("consent hop still needs the live session token")
	}
}

func TestCallback_ReturningUserGoesToReturnURL(t *testing.T) {
	accepted := time.Now().UTC()
	identity := &stubIdentity{
		exchangeFn: func(_ context.Context, _ string) (*domain.Account, string, error) {
			return &domain.Account{ID: "u1", Email: "a@x.com", TermsAcceptedAt: &accepted}, "tok1", nil
		},
	}
	recorder := &stubRecorder{}
	svc := newCallbackService(identity, newStubSessions(), recorder)

	res := svc.CompleteCallback(context.Background(), ports.CallbackInput{Code: "code", ReturnURL: "/dashboard/orders"})
	if res.Location != "/dashboard/orders" {
		t.Fatalf("expected returnUrl, got %q", res.Location)
	}
	if len(recorder.events) != 1 || recorder.events[0].Type != domain.ActivityOAuthLogin {
		t.Fatalf("expected oauth login activity, got %+v", recorder.events)
	}
}

func TestCallback_ReturnURLDefaultsToHome(t *testing.T) {
	accepted := time.Now().UTC()
	identity := &stubIdentity{
		exchangeFn: func(_ context.Context, _ string) (*domain.Account, string, error) {
			return &domain.Account{ID: "u1", TermsAcceptedAt: &accepted}, "tok1", nil
		},
	}
	svc := newCallbackService(identity, newStubSessions(), &stubRecorder{})

	res := svc.CompleteCallback(context.Background(), ports.CallbackInput{Code: "code"})
	if res.Location != domain.HomePath {
		t.Fatalf("expected home, got %q", res.Location)
	}
}

func TestSafeReturnPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", domain.HomePath},
		{"/chat/42", "/chat/42"},
		{"/dashboard?tab=orders", "/dashboard?tab=orders"},
		{"/auth/customer/login", domain.HomePath},     // would loop
		{"https://evil.example/x", domain.HomePath},   // absolute
		{"//evil.example/x", domain.HomePath},         // protocol-relative
		{"relative/path", domain.HomePath},            // not rooted
		{"/auth/complete-profile", domain.HomePath},   // auth page
		{string([]byte{0x7f}) + "://bad", domain.HomePath},
	}

	for _, tc := range cases {
		if got := SafeReturnPath(tc.in); got != tc.want {
			t.Fatalf("SafeReturnPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

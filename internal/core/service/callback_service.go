package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
)

// CallbackService completes the OAuth redirect flow: exchange the
// authorization code, gate first-time users on terms acceptance, and pick
// the next hop without ever redirecting back into an auth page.
type CallbackService struct {
	identity ports.IdentityProvider
	sessions ports.SessionStore
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewCallbackService(
	identity ports.IdentityProvider,
	sessions ports.SessionStore,
	activity ports.ActivityRecorder,
	log zerolog.Logger,
) *CallbackService {
	return &CallbackService{
		identity: identity,
		sessions: sessions,
		activity: activity,
		log:      log,
	}
}

func (s *CallbackService) CompleteCallback(ctx context.Context, in ports.CallbackInput) ports.CallbackResult {
	// Provider signalled an error on the redirect: surface it, no exchange.
	if in.ProviderError != "" {
		return loginRedirect(in.ProviderError)
	}

	if in.Code == "" {
		return loginRedirect("oauth_failed")
	}

	account, token, err := s.identity.ExchangeCode(ctx, in.Code)
	if err != nil {
		// Covers consumed codes too: authorization codes are single-use,
		// so a replay degrades to the same generic failure.
		s.log.Warn().Err(err).Msg("oauth code exchange failed")
		return loginRedirect("oauth_failed")
	}

	sess, err := s.sessions.Issue(ctx, token)
	if err != nil {
		s.log.Error().Err(err).Msg("session issue after code exchange failed")
		return loginRedirect("oauth_failed")
	}

	s.activity.Record(domain.ActivityEvent{
		ID:         uuid.NewString(),
		Type:       domain.ActivityOAuthLogin,
		UserID:     account.ID,
		Email:      account.Email,
		IP:         in.Meta.IP,
		UserAgent:  in.Meta.UserAgent,
		OccurredAt: time.Now().UTC(),
	})

	// First OAuth login: no terms acceptance on record yet. Carry the
	// original destination through the consent page so it is not lost.
	if account.TermsAcceptedAt == nil {
		q := url.Values{"returnUrl": {SafeReturnPath(in.ReturnURL)}}
		return ports.CallbackResult{
			Location:  domain.CompleteProfilePath + "?" + q.Encode(),
			Token:     token,
			ExpiresAt: sess.ExpiresAt,
		}
	}

	return ports.CallbackResult{Location: SafeReturnPath(in.ReturnURL), Token: token, ExpiresAt: sess.ExpiresAt}
}

func loginRedirect(reason string) ports.CallbackResult {
	q := url.Values{"error": {reason}}
	return ports.CallbackResult{Location: domain.CustomerLoginPath + "?" + q.Encode()}
}

// SafeReturnPath reduces an inbound returnUrl to a same-site path. Absolute
// URLs, protocol-relative URLs, and auth pages all collapse to the home
// path so a post-login redirect can never leave the site or loop back into
// login.
func SafeReturnPath(raw string) string {
	if raw == "" {
		return domain.HomePath
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return domain.HomePath
	}

	path := u.Path
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return domain.HomePath
	}
	if strings.HasPrefix(path, "/auth/") {
		return domain.HomePath
	}

	if u.RawQuery != "" {
		return path + "?" + u.RawQuery
	}
	return path
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/core/ports"
)

// AuthService implements the credential-login policy: verify against the
// identity provider, load the profile, apply portal/approval rules, and
// revoke the provisional session on every denial.
type AuthService struct {
	identity ports.IdentityProvider
	profiles ports.ProfileRepository
	sessions ports.SessionStore
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewAuthService(
	identity ports.IdentityProvider,
	profiles ports.ProfileRepository,
	sessions ports.SessionStore,
	activity ports.ActivityRecorder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		identity: identity,
		profiles: profiles,
		sessions: sessions,
		activity: activity,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, token, err := s.identity.VerifyPassword(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// Audit the failure; never log the attempted password.
			s.record(domain.ActivityLoginDenied, "", in.Email, "invalid_credentials", in.Meta)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", domain.ErrUpstreamUnavailable)
	}

	// The provider issued a token: a session now provisionally exists.
	// Every denial below must revoke it before returning.
	sess, err := s.sessions.Issue(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", domain.ErrUpstreamUnavailable)
	}

	profile, err := s.profiles.FindByUserID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			// First login: the session stays live so the user is not
			// forced to re-authenticate on the profile-setup page.
			return &ports.LoginResult{Account: account, NeedsProfile: true, Token: token, ExpiresAt: sess.ExpiresAt}, nil
		}
		s.revoke(ctx, token)
		return nil, fmt.Errorf("load profile: %w", domain.ErrUpstreamUnavailable)
	}

	if decision := domain.EvaluateLogin(in.Portal, profile); decision.Kind == domain.DecisionDenied {
		return nil, s.deny(ctx, token, in, account, decision.Reason, denyLabel(decision.Reason, profile))
	}

	s.record(domain.ActivityLoginSuccess, account.ID, account.Email, "", in.Meta)
	s.log.Info().Str("user_id", account.ID).Str("portal", string(in.Portal)).Msg("login allowed")

	return &ports.LoginResult{Account: account, Profile: profile, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// deny revokes the provisional session and returns the sentinel. A denied
// user must never retain a live token.
func (s *AuthService) deny(ctx context.Context, token string, in ports.LoginInput, account *domain.Account, reason error, label string) error {
	s.revoke(ctx, token)
	s.record(domain.ActivityLoginDenied, account.ID, account.Email, label, in.Meta)
	s.log.Info().Str("user_id", account.ID).Str("reason", label).Msg("login denied")
	return reason
}

// denyLabel names the denial for audit rows and metrics.
func denyLabel(reason error, profile *domain.UserProfile) string {
	switch {
	case errors.Is(reason, domain.ErrWrongPortal):
		return "wrong_portal"
	case errors.Is(reason, domain.ErrRejected):
		return "rejected"
	case profile.ApprovalStatus != domain.ApprovalPending:
		return "unknown_approval_status"
	default:
		return "pending_approval"
	}
}

func (s *AuthService) revoke(ctx context.Context, token string) {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("session revocation failed")
	}
	if err := s.identity.RevokeToken(ctx, token); err != nil {
		s.log.Warn().Err(err).Msg("provider token revocation failed")
	}
}

// Logout succeeds unconditionally: a missing session is not an error, and
// the audit write is best-effort.
func (s *AuthService) Logout(ctx context.Context, token string, meta domain.RequestMeta) error {
	if token == "" {
		return nil
	}

	sess, err := s.sessions.Resolve(ctx, token)
	s.revoke(ctx, token)

	if err == nil && sess != nil {
		s.record(domain.ActivityLogout, sess.UserID, sess.Email, "", meta)
	}
	return nil
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.Account, error) {
	metadata := in.UserData
	if metadata == nil {
		metadata = map[string]any{}
	}

	account, err := s.identity.AdminCreateUser(ctx, in.Email, in.Password, metadata)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("admin create user: %w", domain.ErrUpstreamUnavailable)
	}

	s.record(domain.ActivitySignup, account.ID, account.Email, "admin_create", in.Meta)
	return account, nil
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	metadata := map[string]any{
		"role":           string(domain.RoleCustomer),
		"company_name":   in.CompanyName,
		"contact_person": in.ContactPerson,
		"phone":          in.Phone,
	}

	account, err := s.identity.SignUp(ctx, in.Email, in.Password, metadata)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("sign up: %w", domain.ErrUpstreamUnavailable)
	}

	s.record(domain.ActivitySignup, account.ID, account.Email, "self_service", in.Meta)
	return account, nil
}

func (s *AuthService) AcceptTerms(ctx context.Context, in ports.TermsInput) (string, error) {
	if !in.TermsAccepted || !in.PrivacyAccepted {
		return "", domain.ErrTermsRequired
	}

	sess, err := s.sessions.Resolve(ctx, in.Token)
	if err != nil {
		return "", domain.ErrSessionInvalid
	}

	now := time.Now().UTC().Format(time.RFC3339)
	metadata := map[string]any{
		"terms_accepted_at":   now,
		"privacy_accepted_at": now,
	}
	if in.MarketingAccepted {
		metadata["marketing_accepted_at"] = now
	}

	if err := s.identity.UpdateMetadata(ctx, sess.Token, metadata); err != nil {
		return "", fmt.Errorf("update metadata: %w", domain.ErrUpstreamUnavailable)
	}

	s.record(domain.ActivityTermsAccepted, sess.UserID, sess.Email, "", in.Meta)
	return SafeReturnPath(in.ReturnURL), nil
}

func (s *AuthService) record(typ domain.ActivityEventType, userID, email, reason string, meta domain.RequestMeta) {
	s.activity.Record(domain.ActivityEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Email:      email,
		Reason:     reason,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		OccurredAt: time.Now().UTC(),
	})
}

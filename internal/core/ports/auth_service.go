package ports

import (
	"context"
	"time"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// LoginInput carries one credential attempt through a specific portal.
type LoginInput struct {
	Portal   domain.Portal
	Email    string
	Password string
	Meta     domain.RequestMeta
}

// LoginResult is returned on Allow and NeedsProfile outcomes. Token is the
// live session token the handler must attach to the response, ExpiresAt its
// cookie lifetime.
type LoginResult struct {
	Account      *domain.Account     `json:"account"`
	Profile      *domain.UserProfile `json:"profile"`
	NeedsProfile bool                `json:"needsProfile"`
	Token        string              `json:"-"`
	ExpiresAt    time.Time           `json:"-"`
}

// SignupInput creates an account; UserData is forwarded to the provider as
// account metadata.
type SignupInput struct {
	Email    string
	Password string
	UserData map[string]any
	Meta     domain.RequestMeta
}

// RegisterInput is the self-service customer sign-up form.
type RegisterInput struct {
	Email         string
	Password      string
	CompanyName   string
	ContactPerson string
	Phone         string
	Meta          domain.RequestMeta
}

// TermsInput records the first-login consent decision.
type TermsInput struct {
	Token             string
	TermsAccepted     bool
	PrivacyAccepted   bool
	MarketingAccepted bool
	ReturnURL         string
	Meta              domain.RequestMeta
}

type AuthService interface {
	// Login evaluates the full approval/role policy. Denials are returned
	// as domain sentinel errors with any provisional session revoked.
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)

	// Logout always succeeds, with or without an active session.
	Logout(ctx context.Context, token string, meta domain.RequestMeta) error

	// Signup creates an unconfirmed account through the admin API.
	Signup(ctx context.Context, in SignupInput) (*domain.Account, error)

	// Register is the self-service customer sign-up.
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)

	// AcceptTerms stamps consent timestamps into the account metadata and
	// returns the destination the client should continue to.
	AcceptTerms(ctx context.Context, in TermsInput) (string, error)
}

// CallbackInput is everything the OAuth redirect landed with.
type CallbackInput struct {
	Code          string
	ReturnURL     string
	ProviderError string
	Meta          domain.RequestMeta
}

// CallbackResult tells the handler where to redirect and which session token
// to attach (empty on failure paths).
type CallbackResult struct {
	Location  string
	Token     string
	ExpiresAt time.Time
}

type CallbackService interface {
	CompleteCallback(ctx context.Context, in CallbackInput) CallbackResult
}

package ports

import (
	"context"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// IdentityProvider is the narrow interface to the external identity store.
// Credential verification and OAuth code exchange happen there; this service
// only layers policy on top of the results.
type IdentityProvider interface {
	// VerifyPassword authenticates email/password and returns the account
	// plus a freshly issued session token. Wrong email and wrong password
	// are indistinguishable: both yield domain.ErrInvalidCredentials.
	VerifyPassword(ctx context.Context, email, password string) (*domain.Account, string, error)

	// ExchangeCode completes the OAuth authorization-code flow. Codes are
	// single-use by provider contract; a consumed code fails with
	// domain.ErrOAuthExchangeFailed like any other exchange failure.
	ExchangeCode(ctx context.Context, code string) (*domain.Account, string, error)

	// SignUp creates a self-service account. The provider dispatches the
	// confirmation email.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Account, error)

	// AdminCreateUser creates an unconfirmed account through the
	// administrative API (service-role credentials required).
	AdminCreateUser(ctx context.Context, email, password string, metadata map[string]any) (*domain.Account, error)

	// UpdateMetadata merges metadata into the account owning the token.
	UpdateMetadata(ctx context.Context, token string, metadata map[string]any) error

	// RevokeToken invalidates the token provider-side. Best effort; the
	// session store's revocation list is the authoritative kill switch.
	RevokeToken(ctx context.Context, token string) error
}

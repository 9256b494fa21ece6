package ports

import (
	"context"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// SessionStore is a thin adapter over provider-issued session tokens. It
// holds no server-side session table beyond a revocation list; tokens carry
// their own identity and expiry.
type SessionStore interface {
	// Issue validates a provider-issued token and returns its session view.
	Issue(ctx context.Context, token string) (*domain.Session, error)

	// Resolve validates the token and checks the revocation list. The
	// returned session token may differ from the input when the store
	// rotated it; callers must propagate it onto the response.
	Resolve(ctx context.Context, token string) (*domain.Session, error)

	// Revoke makes the token unresolvable for the rest of its lifetime.
	// Revoking an unknown or already revoked token is not an error.
	Revoke(ctx context.Context, token string) error

	// Refresh rotates a valid token, revoking the old one.
	Refresh(ctx context.Context, token string) (*domain.Session, error)
}

package ports

import (
	"context"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// ProfileRepository persists UserProfile records keyed by account ID.
type ProfileRepository interface {
	// FindByUserID returns domain.ErrProfileNotFound when no profile
	// exists. Any other error is an upstream failure and must be treated
	// as deny by authorization code paths.
	FindByUserID(ctx context.Context, userID string) (*domain.UserProfile, error)
	Create(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
}

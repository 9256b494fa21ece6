// Package session adapts provider-issued JWT session tokens to the
// SessionStore port. Tokens are self-describing; the only server-side state
// is a revocation list so a denied login can kill its token immediately.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// RevocationList marks tokens dead for the remainder of their lifetime.
type RevocationList interface {
	Revoke(ctx context.Context, key string, ttl time.Duration) error
	IsRevoked(ctx context.Context, key string) (bool, error)
}

// Claims are the session token claims this service reads and mints.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Store validates HS256 session tokens against the identity provider's
// shared JWT secret and consults the revocation list on every resolve.
type Store struct {
	secret        []byte
	revoked       RevocationList
	tokenTTL      time.Duration
	refreshWindow time.Duration
}

func NewStore(secret []byte, revoked RevocationList, tokenTTL, refreshWindow time.Duration) *Store {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Store{
		secret:        secret,
		revoked:       revoked,
		tokenTTL:      tokenTTL,
		refreshWindow: refreshWindow,
	}
}

// Issue validates a freshly provider-issued token and returns its session.
func (s *Store) Issue(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	return s.session(token, claims), nil
}

// Resolve validates the token, rejects revoked ones, and rotates tokens
// close to expiry. The caller must always propagate the returned token onto
// the response: it may differ from the input.
func (s *Store) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	dead, err := s.revoked.IsRevoked(ctx, revocationKey(token, claims))
	if err != nil {
		// Revocation state unknown: fail closed.
		return nil, fmt.Errorf("revocation check: %w", domain.ErrUpstreamUnavailable)
	}
	if dead {
		return nil, domain.ErrSessionInvalid
	}

	if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) < s.refreshWindow {
		return s.rotate(ctx, token, claims)
	}

	return s.session(token, claims), nil
}

// Revoke makes the token unresolvable until it would have expired anyway.
// Unparseable tokens have nothing to revoke and are not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}

	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	return s.revoked.Revoke(ctx, revocationKey(token, claims), ttl)
}

// Refresh forces a rotation of a still-valid token.
func (s *Store) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	dead, err := s.revoked.IsRevoked(ctx, revocationKey(token, claims))
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", domain.ErrUpstreamUnavailable)
	}
	if dead {
		return nil, domain.ErrSessionInvalid
	}

	return s.rotate(ctx, token, claims)
}

func (s *Store) rotate(ctx context.Context, old string, claims *Claims) (*domain.Session, error) {
	now := time.Now().UTC()
	fresh := Claims{
		Email: claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, fresh).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign rotated token: %w", err)
	}

	// The old token dies with the rotation so it cannot be replayed.
	if err := s.Revoke(ctx, old); err != nil {
		return nil, fmt.Errorf("revoke rotated token: %w", domain.ErrUpstreamUnavailable)
	}

	return s.session(signed, &fresh), nil
}

func (s *Store) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrSessionInvalid
	}
	return claims, nil
}

func (s *Store) session(token string, claims *Claims) *domain.Session {
	sess := &domain.Session{
		Token:  token,
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess
}

// revocationKey prefers the token's jti; tokens minted without one fall back
// to a digest of the token itself.
func revocationKey(token string, claims *Claims) string {
	if claims.ID != "" {
		return claims.ID
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

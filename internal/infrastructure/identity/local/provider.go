// Package local implements the IdentityProvider port on top of a local
// credential store. It exists for development and integration environments
// without a reachable auth server; production uses the gotrue driver.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dulytrade/portal-api/internal/core/domain"
	"github.com/dulytrade/portal-api/internal/infrastructure/db/mongo"
	"github.com/dulytrade/portal-api/internal/infrastructure/session"
)

// CredentialStore is the persistence surface the driver needs.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*mongo.CredentialRecord, error)
	FindByID(ctx context.Context, id string) (*mongo.CredentialRecord, error)
	Create(ctx context.Context, rec *mongo.CredentialRecord) (*mongo.CredentialRecord, error)
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error
}

type Provider struct {
	store    CredentialStore
	secret   []byte
	tokenTTL time.Duration
}

func New(store CredentialStore, secret []byte, tokenTTL time.Duration) *Provider {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Provider{store: store, secret: secret, tokenTTL: tokenTTL}
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*domain.Account, string, error) {
	rec, err := p.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find credential: %w", domain.ErrUpstreamUnavailable)
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := p.mint(rec)
	if err != nil {
		return nil, "", err
	}
	return toAccount(rec), token, nil
}

// ExchangeCode is not supported locally; there is no OAuth provider to
// exchange against. Callers see the same generic failure a bad code gets.
func (p *Provider) ExchangeCode(_ context.Context, _ string) (*domain.Account, string, error) {
	return nil, "", domain.ErrOAuthExchangeFailed
}

func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Account, error) {
	return p.create(ctx, email, password, metadata, true)
}

func (p *Provider) AdminCreateUser(ctx context.Context, email, password string, metadata map[string]any) (*domain.Account, error) {
	return p.create(ctx, email, password, metadata, false)
}

func (p *Provider) create(ctx context.Context, email, password string, metadata map[string]any, confirmed bool) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec, err := p.store.Create(ctx, &mongo.CredentialRecord{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   string(hash),
		EmailConfirmed: confirmed,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create credential: %w", domain.ErrUpstreamUnavailable)
	}

	return toAccount(rec), nil
}

func (p *Provider) UpdateMetadata(ctx context.Context, token string, metadata map[string]any) error {
	claims := &session.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return domain.ErrSessionInvalid
	}

	return p.store.UpdateMetadata(ctx, claims.Subject, metadata)
}

// RevokeToken is a no-op: locally minted tokens die through the session
// store's revocation list.
func (p *Provider) RevokeToken(_ context.Context, _ string) error {
	return nil
}

func (p *Provider) mint(rec *mongo.CredentialRecord) (string, error) {
	now := time.Now().UTC()
	claims := session.Claims{
		Email: rec.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func toAccount(rec *mongo.CredentialRecord) *domain.Account {
	account := &domain.Account{
		ID:             rec.ID,
		Email:          rec.Email,
		EmailConfirmed: rec.EmailConfirmed,
		Metadata:       rec.Metadata,
		CreatedAt:      rec.CreatedAt,
	}

	if raw, ok := rec.Metadata["terms_accepted_at"].(string); ok && raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			account.TermsAcceptedAt = &ts
		}
	}

	return account
}

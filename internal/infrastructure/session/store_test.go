package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

type memRevocations struct {
	revoked map[string]bool
	err     error
}

func newMemRevocations() *memRevocations {
	return &memRevocations{revoked: make(map[string]bool)}
}

func (m *memRevocations) Revoke(_ context.Context, key string, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.revoked[key] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.revoked[key], nil
}

const testSecret = "test-secret"

func mintToken(t *testing.T, sub, email, jti string, ttl time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestStore(revoked RevocationList) *Store {
	return NewStore([]byte(testSecret), revoked, 24*time.Hour, time.Hour)
}

func TestStore_ResolveValidToken(t *testing.T) {
	store := newTestStore(newMemRevocations())
	token := mintToken(t, "u1", "a@x.com", "jti-1", 12*time.Hour)

	sess, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if sess.UserID != "u1" || sess.Email != "a@x.com" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Token != token {
		t.Fatalf("token far from expiry must not rotate")
	}
}

func TestStore_ResolveRejectsGarbage(t *testing.T) {
	store := newTestStore(newMemRevocations())

	for _, tok := range []string{"", "not-a-token", mintTokenWrongSecret(t)} {
		if _, err := store.Resolve(context.Background(), tok); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid for %q, got %v", tok, err)
		}
	}
}

func mintTokenWrongSecret(t *testing.T) string {
	t.Helper()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestStore_ResolveRejectsExpired(t *testing.T) {
	store := newTestStore(newMemRevocations())
	token := mintToken(t, "u1", "a@x.com", "jti-1", -time.Minute)

	if _, err := store.Resolve(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestStore_RevokedTokenBecomesUnresolvable(t *testing.T) {
	revocations := newMemRevocations()
	store := newTestStore(revocations)
	token := mintToken(t, "u1", "a@x.com", "jti-1", 12*time.Hour)

	if _, err := store.Resolve(context.Background(), token); err != nil {
		t.Fatalf("pre-revocation resolve failed: %v", err)
	}
	if err := store.Revoke(context.Background(), token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, err := store.Resolve(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after revocation, got %v", err)
	}
}

func TestStore_RevokeUnparseableTokenIsNoop(t *testing.T) {
	store := newTestStore(newMemRevocations())
	if err := store.Revoke(context.Background(), "garbage"); err != nil {
		t.Fatalf("revoking garbage must not fail: %v", err)
	}
}

func TestStore_ResolveRotatesNearExpiry(t *testing.T) {
	revocations := newMemRevocations()
	store := newTestStore(revocations)
	// 30m remaining is inside the 1h refresh window.
	token := mintToken(t, "u1", "a@x.com", "jti-old", 30*time.Minute)

	sess, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if sess.Token == token {
		t.Fatalf("near-expiry token must rotate")
	}
	if sess.UserID != "u1" || sess.Email != "a@x.com" {
		t.Fatalf("rotation must preserve identity: %+v", sess)
	}

	// Old token is dead, new one resolves.
	if _, err := store.Resolve(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("rotated-away token must be revoked, got %v", err)
	}
	if _, err := store.Resolve(context.Background(), sess.Token); err != nil {
		t.Fatalf("rotated token must resolve: %v", err)
	}
}

func TestStore_Refresh(t *testing.T) {
	store := newTestStore(newMemRevocations())
	token := mintToken(t, "u1", "a@x.com", "jti-1", 12*time.Hour)

	sess, err := store.Refresh(context.Background(), token)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if sess.Token == token {
		t.Fatalf("refresh must return a new token")
	}
	if _, err := store.Resolve(context.Background(), token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Fatalf("refreshed-away token must be revoked")
	}
}

func TestStore_FailsClosedWhenRevocationListDown(t *testing.T) {
	revocations := newMemRevocations()
	revocations.err = errors.New("redis down")
	store := newTestStore(revocations)
	token := mintToken(t, "u1", "a@x.com", "jti-1", 12*time.Hour)

	if _, err := store.Resolve(context.Background(), token); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

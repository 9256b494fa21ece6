// Package gotrue implements the IdentityProvider port against a
// GoTrue-compatible auth server (the API Supabase exposes). Only the six
// endpoints the policy layer needs are wired; everything else stays with
// the provider.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for reaching the auth server.
type Config struct {
	// BaseURL is the auth API root, e.g. https://proj.supabase.co/auth/v1
	BaseURL string
	// AnonKey authenticates public endpoints.
	AnonKey string
	// ServiceKey authenticates the admin user-creation endpoint. Optional;
	// AdminCreateUser fails without it.
	ServiceKey string
	Timeout    time.Duration
}

type Provider struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// userPayload mirrors the GoTrue user object.
type userPayload struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        string         `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        *userPayload `json:"user"`
}

type errorResponse struct {
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*domain.Account, string, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	status, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", p.cfg.AnonKey, "", body, &resp)
	if err != nil {
		return nil, "", fmt.Errorf("password grant: %w", domain.ErrUpstreamUnavailable)
	}
	if status >= 500 {
		return nil, "", fmt.Errorf("password grant: status %d: %w", status, domain.ErrUpstreamUnavailable)
	}
	if status != http.StatusOK || resp.User == nil {
		// Wrong email and wrong password are deliberately identical.
		return nil, "", domain.ErrInvalidCredentials
	}

	return toAccount(resp.User), resp.AccessToken, nil
}

func (p *Provider) ExchangeCode(ctx context.Context, code string) (*domain.Account, string, error) {
	body := map[string]string{"auth_code": code}

	var resp tokenResponse
	status, err := p.do(ctx, http.MethodPost, "/token?grant_type=pkce", p.cfg.AnonKey, "", body, &resp)
	if err != nil {
		return nil, "", fmt.Errorf("code exchange: %w", domain.ErrUpstreamUnavailable)
	}
	if status != http.StatusOK || resp.User == nil {
		// Consumed, expired, and unknown codes all land here.
		return nil, "", domain.ErrOAuthExchangeFailed
	}

	return toAccount(resp.User), resp.AccessToken, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Account, error) {
	body := map[string]any{"email": email, "password": password, "data": metadata}

	var user userPayload
	status, raw, err := p.doRaw(ctx, http.MethodPost, "/signup", p.cfg.AnonKey, "", body)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", domain.ErrUpstreamUnavailable)
	}
	if status >= 500 {
		return nil, fmt.Errorf("signup: status %d: %w", status, domain.ErrUpstreamUnavailable)
	}
	if status != http.StatusOK {
		if isAlreadyRegistered(raw) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("signup rejected: status %d", status)
	}
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("signup: decode response: %w", err)
	}

	return toAccount(&user), nil
}

func (p *Provider) AdminCreateUser(ctx context.Context, email, password string, metadata map[string]any) (*domain.Account, error) {
	if p.cfg.ServiceKey == "" {
		return nil, fmt.Errorf("admin create user: service key not configured: %w", domain.ErrUpstreamUnavailable)
	}

	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": false,
		"user_metadata": metadata,
	}

	status, raw, err := p.doRaw(ctx, http.MethodPost, "/admin/users", p.cfg.ServiceKey, p.cfg.ServiceKey, body)
	if err != nil {
		return nil, fmt.Errorf("admin create user: %w", domain.ErrUpstreamUnavailable)
	}
	if status >= 500 {
		return nil, fmt.Errorf("admin create user: status %d: %w", status, domain.ErrUpstreamUnavailable)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		if isAlreadyRegistered(raw) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("admin create user rejected: status %d", status)
	}

	var user userPayload
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("admin create user: decode response: %w", err)
	}
	return toAccount(&user), nil
}

func (p *Provider) UpdateMetadata(ctx context.Context, token string, metadata map[string]any) error {
	body := map[string]any{"data": metadata}

	status, _, err := p.doRaw(ctx, http.MethodPut, "/user", p.cfg.AnonKey, token, body)
	if err != nil {
		return fmt.Errorf("update metadata: %w", domain.ErrUpstreamUnavailable)
	}
	if status != http.StatusOK {
		return fmt.Errorf("update metadata rejected: status %d", status)
	}
	return nil
}

func (p *Provider) RevokeToken(ctx context.Context, token string) error {
	status, _, err := p.doRaw(ctx, http.MethodPost, "/logout", p.cfg.AnonKey, token, nil)
	if err != nil {
		return fmt.Errorf("revoke token: %w", domain.ErrUpstreamUnavailable)
	}
	// 401 means the token is already dead, which is the desired end state.
	if status >= 500 {
		return fmt.Errorf("revoke token: status %d: %w", status, domain.ErrUpstreamUnavailable)
	}
	return nil
}

// Ping checks the auth server's health endpoint, for the readiness probe.
func (p *Provider) Ping(ctx context.Context) error {
	status, _, err := p.doRaw(ctx, http.MethodGet, "/health", p.cfg.AnonKey, "", nil)
	if err != nil {
		return fmt.Errorf("identity health: %w", err)
	}
	if status >= 500 {
		return fmt.Errorf("identity health: status %d", status)
	}
	return nil
}

// do performs a request and decodes a JSON body into out.
func (p *Provider) do(ctx context.Context, method, path, apiKey, bearer string, body, out any) (int, error) {
	status, raw, err := p.doRaw(ctx, method, path, apiKey, bearer, body)
	if err != nil {
		return 0, err
	}
	if out != nil && status < 500 && len(raw) > 0 {
		// Error bodies fail to match the success shape; callers decide by
		// status, so a decode miss here is not fatal.
		_ = json.Unmarshal(raw, out)
	}
	return status, nil
}

func (p *Provider) doRaw(ctx context.Context, method, path, apiKey, bearer string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func isAlreadyRegistered(raw []byte) bool {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		return false
	}
	msg := strings.ToLower(er.Msg + " " + er.ErrorDescription)
	return strings.Contains(msg, "already registered") || strings.Contains(msg, "already exists")
}

func toAccount(u *userPayload) *domain.Account {
	account := &domain.Account{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != "",
		Metadata:       u.UserMetadata,
	}

	if ts, err := time.Parse(time.RFC3339, u.CreatedAt); err == nil {
		account.CreatedAt = ts
	}

	if raw, ok := u.UserMetadata["terms_accepted_at"].(string); ok && raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			account.TermsAcceptedAt = &ts
		}
	}

	return account
}

package domain

import "time"

// Account is the identity-provider view of a user. It is read-only from this
// service except for creation during signup; role and approval live on the
// UserProfile instead.
type Account struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	EmailConfirmed  bool           `json:"email_confirmed"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	TermsAcceptedAt *time.Time     `json:"terms_accepted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Session is the resolved view of a session token. A session always maps to
// exactly one account; anything ambiguous is treated as no session at all.
type Session struct {
	Token     string
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RequestMeta carries best-effort client attribution for audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

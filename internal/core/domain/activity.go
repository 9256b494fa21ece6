package domain

import "time"

// ActivityEventType enumerates the audited auth actions.
type ActivityEventType string

const (
	ActivityLoginSuccess  ActivityEventType = "auth.login.success"
	ActivityLoginDenied   ActivityEventType = "auth.login.denied"
	ActivityOAuthLogin    ActivityEventType = "auth.oauth.login"
	ActivityLogout        ActivityEventType = "auth.logout"
	ActivitySignup        ActivityEventType = "auth.signup"
	ActivityTermsAccepted ActivityEventType = "auth.terms.accepted"
)

// ActivityEvent is an append-only audit row. Recording is best-effort:
// a failed write never fails the auth operation that produced it.
type ActivityEvent struct {
	ID         string
	Type       ActivityEventType
	UserID     string
	Email      string
	Reason     string
	IP         string
	UserAgent  string
	OccurredAt time.Time
}

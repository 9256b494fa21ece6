package domain

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPortal means the credentials are valid but the profile's role
	// does not match the login entry point used.
	ErrWrongPortal = errors.New("wrong login portal for this account")

	// ErrPendingApproval blocks login while the profile awaits review.
	ErrPendingApproval = errors.New("account pending approval")

	// ErrRejected blocks login for profiles an administrator rejected.
	ErrRejected = errors.New("account rejected")

	// ErrProfileNotFound is the explicit not-found result for profile
	// lookups. Callers must handle it; it is a transitional state during
	// first login, not a failure.
	ErrProfileNotFound = errors.New("user profile not found")

	// ErrOAuthExchangeFailed covers every code-exchange failure, including
	// reused or expired authorization codes. Provider internals are never
	// surfaced.
	ErrOAuthExchangeFailed = errors.New("oauth code exchange failed")

	// ErrSessionInvalid means no usable session accompanied the request.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrTermsRequired is returned when the required terms or privacy
	// consent flags are missing from an accept-terms request.
	ErrTermsRequired = errors.New("required terms not accepted")

	// ErrUserExists is returned when signing up an already registered email.
	ErrUserExists = errors.New("user already exists")

	// ErrUpstreamUnavailable marks identity-provider or store outages.
	// It is kept distinct from ErrInvalidCredentials so clients can tell
	// transient outages from rejected logins.
	ErrUpstreamUnavailable = errors.New("upstream dependency unavailable")
)

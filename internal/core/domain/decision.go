package domain

// DecisionKind tags the outcome of a login policy evaluation.
type DecisionKind int

const (
	// DecisionAllow admits the user; the session stays active.
	DecisionAllow DecisionKind = iota
	// DecisionNeedsProfile admits the session but requires profile setup
	// before the user can reach anything protected.
	DecisionNeedsProfile
	// DecisionDenied rejects the login; the provisional session must have
	// been revoked by the time the decision is returned.
	DecisionDenied
)

// AuthDecision is the transient output of AuthGateway policy evaluation.
type AuthDecision struct {
	Kind    DecisionKind
	Profile *UserProfile
	Reason  error // one of the domain sentinel errors when Kind == DecisionDenied
}

// Allow builds an admit decision for an approved profile.
func Allow(p *UserProfile) AuthDecision {
	return AuthDecision{Kind: DecisionAllow, Profile: p}
}

// NeedsProfile builds the first-login decision: authenticated, no profile yet.
func NeedsProfile() AuthDecision {
	return AuthDecision{Kind: DecisionNeedsProfile}
}

// Denied builds a rejection carrying its sentinel reason.
func Denied(reason error) AuthDecision {
	return AuthDecision{Kind: DecisionDenied, Reason: reason}
}

// EvaluateLogin applies the portal and approval policy to a profile loaded
// for an authenticated account. An unknown approval status denies like
// pending: anything the store reports that is not an explicit approval
// fails closed.
func EvaluateLogin(portal Portal, profile *UserProfile) AuthDecision {
	if profile == nil {
		return NeedsProfile()
	}
	if !portal.Allows(profile.Role) {
		return Denied(ErrWrongPortal)
	}
	switch profile.ApprovalStatus {
	case ApprovalApproved:
		return Allow(profile)
	case ApprovalRejected:
		return Denied(ErrRejected)
	default:
		return Denied(ErrPendingApproval)
	}
}

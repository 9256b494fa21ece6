package domain

import "time"

// Role is the closed set of roles a profile can hold. Adding a role requires
// updating staffRoles and Portal.Allows so the guard stays exhaustive.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleKoreanTeam   Role = "korean_team"
	RoleChineseStaff Role = "chinese_staff"
	RoleAdmin        Role = "admin"
)

var staffRoles = map[Role]struct{}{
	RoleKoreanTeam:   {},
	RoleChineseStaff: {},
	RoleAdmin:        {},
}

// ParseRole converts a stored string into a Role, reporting whether it is a
// known value. Unknown roles must never be treated as staff.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleKoreanTeam, RoleChineseStaff, RoleAdmin:
		return r, true
	}
	return "", false
}

// Staff reports whether the role may enter staff-restricted routes.
func (r Role) Staff() bool {
	_, ok := staffRoles[r]
	return ok
}

// ApprovalStatus is the account-approval state machine: every profile starts
// pending and is moved to approved or rejected by an administrator.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus converts a stored string into an ApprovalStatus.
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch a := ApprovalStatus(s); a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return a, true
	}
	return "", false
}

// Portal identifies which login entry point a credential attempt came through.
// A profile whose role does not match the portal is denied even with valid
// credentials.
type Portal string

const (
	PortalCustomer Portal = "customer"
	PortalStaff    Portal = "staff"
)

// Allows reports whether a role may authenticate through this portal.
func (p Portal) Allows(r Role) bool {
	switch p {
	case PortalCustomer:
		return r == RoleCustomer
	case PortalStaff:
		return r.Staff()
	}
	return false
}

// UserProfile is the authorization record attached to an identity-provider
// account. At most one profile exists per account.
type UserProfile struct {
	UserID         string         `json:"user_id"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CompanyName    string         `json:"company_name,omitempty"`
	ContactPerson  string         `json:"contact_person,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

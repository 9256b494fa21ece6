package domain

import (
	"errors"
	"testing"
)

func TestEvaluateLogin(t *testing.T) {
	approved := func(role Role) *UserProfile {
		return &UserProfile{UserID: "u1", Role: role, ApprovalStatus: ApprovalApproved}
	}

	tests := []struct {
		name    string
		portal  Portal
		profile *UserProfile
		kind    DecisionKind
		reason  error
	}{
		{"approved customer on customer portal", PortalCustomer, approved(RoleCustomer), DecisionAllow, nil},
		{"staff role on staff portal", PortalStaff, approved(RoleKoreanTeam), DecisionAllow, nil},
		{"admin on staff portal", PortalStaff, approved(RoleAdmin), DecisionAllow, nil},
		{"customer on staff portal", PortalStaff, approved(RoleCustomer), DecisionDenied, ErrWrongPortal},
		{"staff on customer portal", PortalCustomer, approved(RoleChineseStaff), DecisionDenied, ErrWrongPortal},
		{"pending account", PortalCustomer, &UserProfile{Role: RoleCustomer, ApprovalStatus: ApprovalPending}, DecisionDenied, ErrPendingApproval},
		{"rejected account", PortalCustomer, &UserProfile{Role: RoleCustomer, ApprovalStatus: ApprovalRejected}, DecisionDenied, ErrRejected},
		{"unknown approval status fails closed", PortalCustomer, &UserProfile{Role: RoleCustomer, ApprovalStatus: ApprovalStatus("weird")}, DecisionDenied, ErrPendingApproval},
		{"missing profile", PortalCustomer, nil, DecisionNeedsProfile, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := EvaluateLogin(tc.portal, tc.profile)
			if d.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", d.Kind, tc.kind)
			}
			if tc.reason != nil && !errors.Is(d.Reason, tc.reason) {
				t.Fatalf("reason = %v, want %v", d.Reason, tc.reason)
			}
			if tc.kind == DecisionAllow && d.Profile == nil {
				t.Fatal("allow decision must carry the profile")
			}
		})
	}
}

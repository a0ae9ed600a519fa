package esusu

import "fmt"

// Roles as resolved by the membership directory.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Eligibility denial codes.
const (
	ReasonDefaultCommunity    = "DEFAULT_COMMUNITY"
	ReasonNotAdmin            = "NOT_ADMIN"
	ReasonInsufficientMembers = "INSUFFICIENT_MEMBERS"
	ReasonNoGroupWallet       = "NO_GROUP_WALLET"
)

// EligibilityInput carries the community facts an eligibility decision is
// made from. The caller resolves them; evaluation itself has no side effects.
type EligibilityInput struct {
	RequesterRole      string
	MemberCount        int
	HasGroupWallet     bool
	IsDefaultCommunity bool
}

type Eligibility struct {
	Allowed bool
	Code    string
	Reason  string
}

// EvaluateEligibility decides whether an esusu group may be created in a
// community. Checks run in fixed precedence; the first failing rule wins.
func EvaluateEligibility(in EligibilityInput, minMembers int) Eligibility {
	if in.IsDefaultCommunity {
		return denied(ReasonDefaultCommunity, "esusu groups cannot be created in the default community")
	}
	if in.RequesterRole != RoleAdmin {
		return denied(ReasonNotAdmin, "only community admins can create esusu groups")
	}
	if in.MemberCount < minMembers {
		return denied(ReasonInsufficientMembers,
			fmt.Sprintf("community needs at least %d members, has %d", minMembers, in.MemberCount))
	}
	if !in.HasGroupWallet {
		return denied(ReasonNoGroupWallet, "community has no group wallet")
	}
	return Eligibility{Allowed: true}
}

func denied(code, reason string) Eligibility {
	return Eligibility{Allowed: false, Code: code, Reason: reason}
}

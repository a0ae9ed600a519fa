package esusu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateEligibility(t *testing.T) {
	eligible := EligibilityInput{
		RequesterRole:  RoleAdmin,
		MemberCount:    5,
		HasGroupWallet: true,
	}

	tests := []struct {
		name         string
		input        EligibilityInput
		expectedCode string
	}{
		{
			name:  "all checks pass",
			input: eligible,
		},
		{
			name: "default community rejected first",
			input: EligibilityInput{
				RequesterRole:      RoleMember,
				MemberCount:        1,
				IsDefaultCommunity: true,
			},
			expectedCode: ReasonDefaultCommunity,
		},
		{
			name: "non-admin rejected before member count",
			input: EligibilityInput{
				RequesterRole: RoleMember,
				MemberCount:   1,
			},
			expectedCode: ReasonNotAdmin,
		},
		{
			name: "absent role treated as non-admin",
			input: EligibilityInput{
				MemberCount:    5,
				HasGroupWallet: true,
			},
			expectedCode: ReasonNotAdmin,
		},
		{
			name: "too few members rejected before wallet",
			input: EligibilityInput{
				RequesterRole: RoleAdmin,
				MemberCount:   2,
			},
			expectedCode: ReasonInsufficientMembers,
		},
		{
			name: "missing group wallet",
			input: EligibilityInput{
				RequesterRole: RoleAdmin,
				MemberCount:   3,
			},
			expectedCode: ReasonNoGroupWallet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateEligibility(tt.input, 3)

			if tt.expectedCode == "" {
				assert.True(t, result.Allowed)
				assert.Empty(t, result.Code)
				return
			}

			assert.False(t, result.Allowed)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.NotEmpty(t, result.Reason)
		})
	}
}

func TestEvaluateEligibilityIsPure(t *testing.T) {
	input := EligibilityInput{RequesterRole: RoleAdmin, MemberCount: 3, HasGroupWallet: true}

	first := EvaluateEligibility(input, 3)
	second := EvaluateEligibility(input, 3)

	assert.Equal(t, first, second)
}

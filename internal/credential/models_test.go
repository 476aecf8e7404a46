package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustbridge/internal/reputation"
	id "trustbridge/pkg/domain"
)

func TestMintTokenIsUniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		token, err := MintToken()
		require.NoError(t, err)
		// 32 random bytes, raw URL encoding.
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.NotContains(t, token, "=")
		assert.False(t, seen[token], "duplicate token")
		seen[token] = true
	}
}

func TestAssertionsFromClaimsSortsByType(t *testing.T) {
	owner := id.NewUserID()
	claims := []reputation.Claim{
		{ID: id.NewClaimID(), OwnerID: owner, Type: reputation.ClaimUtilityPayment, Text: "utility"},
		{ID: id.NewClaimID(), OwnerID: owner, Type: reputation.ClaimBankHealth, Text: "bank"},
		{ID: id.NewClaimID(), OwnerID: owner, Type: reputation.ClaimIncomeStability, Text: "income"},
	}

	assertions := AssertionsFromClaims(claims)
	require.Len(t, assertions, 3)
	assert.Equal(t, reputation.ClaimBankHealth, assertions[0].Type)
	assert.Equal(t, reputation.ClaimIncomeStability, assertions[1].Type)
	assert.Equal(t, reputation.ClaimUtilityPayment, assertions[2].Type)
}

package accounts_test

import (
	"strings"
	"testing"

	accounts "github.com/mahibala-njit/user-management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNickname(t *testing.T) {
	for i := 0; i < 100; i++ {
		nickname := accounts.GenerateNickname()
		require.True(t, accounts.ValidNickname(nickname), "generated %q fails validation", nickname)

		parts := strings.Split(nickname, "_")
		require.Len(t, parts, 3)
		assert.NotEmpty(t, parts[0])
		assert.NotEmpty(t, parts[1])
		assert.NotEmpty(t, parts[2])
	}
}

func TestValidNickname(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{"simple", "abc", true},
		{"with separators", "a_b-c9", true},
		{"max length", "a" + strings.Repeat("b", 29), true},
		{"too short", "ab", false},
		{"too long", "a" + strings.Repeat("b", 30), false},
		{"leading digit", "1abc", false},
		{"leading underscore", "_abc", false},
		{"illegal character", "ab cd", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.ValidNickname(tt.value))
		})
	}
}

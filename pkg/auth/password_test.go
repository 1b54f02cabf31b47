package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword1!")
	require.NoError(t, err)
	assert.NotEqual(t, "SecurePassword1!", hash)

	assert.NoError(t, ComparePassword(hash, "SecurePassword1!"))
	assert.Error(t, ComparePassword(hash, "WrongPassword1!"))
}

func TestValidatePassword_Valid(t *testing.T) {
	valid := []string{
		"SecurePassword1!",
		"Aa1!aaaa",
		`Tr0ub4dor&Three`,
		`Quoted"Pass1`,
	}

	for _, password := range valid {
		assert.NoError(t, ValidatePassword(password), "expected %q to be accepted", password)
	}
}

func TestValidatePassword_EachRule(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"too short", "Aa1!", "at least 8 characters"},
		{"no uppercase", "alllowercase1!", "uppercase letter"},
		{"no lowercase", "ALLUPPERCASE1!", "lowercase letter"},
		{"no digit", "NoDigitsHere!", "number"},
		{"no special character", "NoSpecial123", "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			require.Error(t, err)

			var pwErr *PasswordValidationError
			require.ErrorAs(t, err, &pwErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidatePassword_CollectsAllFailures(t *testing.T) {
	err := ValidatePassword("abc")
	require.Error(t, err)

	var pwErr *PasswordValidationError
	require.ErrorAs(t, err, &pwErr)
	// short, no uppercase, no digit, no special character
	assert.Len(t, pwErr.Errors, 4)
}

func TestValidatePassword_TooLong(t *testing.T) {
	long := "Aa1!" + strings.Repeat("x", MaxPasswordLen)
	assert.Error(t, ValidatePassword(long))
}

func TestValidatePassword_AllSpecialCharactersCount(t *testing.T) {
	for _, ch := range SpecialCharacters {
		password := "Password1" + string(ch)
		assert.NoError(t, ValidatePassword(password), "special character %q not accepted", ch)
	}
}

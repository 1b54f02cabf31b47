package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegistrationUsername(t *testing.T) {
	valid := []string{"bob", "alice_smith", "User123", "a_1"}
	for _, username := range valid {
		assert.NoError(t, ValidateRegistrationUsername(username), "expected %q to be accepted", username)
	}

	invalid := []string{
		"ab",          // too short
		"bob smith",   // space
		"bob-smith",   // hyphen
		"bob@example", // symbol
		"böb",         // non-ascii
		"",
	}
	for _, username := range invalid {
		assert.Error(t, ValidateRegistrationUsername(username), "expected %q to be rejected", username)
	}
}

func TestValidateRegistrationUsername_CharsetCheckedBeforeLength(t *testing.T) {
	err := ValidateRegistrationUsername("a@")
	assert.ErrorContains(t, err, "letters, numbers, and underscores")
}

func TestValidateLoginUsername(t *testing.T) {
	assert.NoError(t, ValidateLoginUsername("alice"))
	assert.NoError(t, ValidateLoginUsername("alice.smith@example.com"))

	for _, username := range []string{`ali;ce`, `ali'ce`, `ali"ce`, `ali<ce`, `ali>ce`} {
		assert.Error(t, ValidateLoginUsername(username), "expected %q to be rejected", username)
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"", "5551234567", "555-123-4567", "+1 (555) 123-4567"}
	for _, phone := range valid {
		assert.NoError(t, ValidatePhone(phone), "expected %q to be accepted", phone)
	}

	invalid := []string{"555-ABC-1234", "phone", "555_123"}
	for _, phone := range invalid {
		assert.Error(t, ValidatePhone(phone), "expected %q to be rejected", phone)
	}
}

func TestValidateRichText(t *testing.T) {
	assert.NoError(t, ValidateRichText("Welcome to our health center. We are open 8am-5pm."))
	assert.NoError(t, ValidateRichText(""))

	rejected := []string{
		"anything; DROP TABLE users",
		"1 UNION SELECT password FROM users",
		"comment -- trailing",
		"hash # comment",
		"delete from contents",
	}
	for _, body := range rejected {
		assert.Error(t, ValidateRichText(body), "expected %q to be rejected", body)
	}
}

func TestValidateRequest(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required,max=10"`
	}

	assert.NoError(t, ValidateRequest(form{Email: "a@b.com", Name: "Bob"}))

	err := ValidateRequest(form{Email: "not-an-email", Name: "Bob"})
	assert.ErrorContains(t, err, "valid email address")

	err = ValidateRequest(form{Email: "a@b.com", Name: ""})
	assert.ErrorContains(t, err, "required")
}

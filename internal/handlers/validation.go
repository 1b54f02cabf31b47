package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Global validator instance (reused across all handlers)
var validate = validator.New()

// ValidateRequest validates a request struct using go-playground/validator
// and returns a user-friendly error message for the first failing field.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("validation failed: %s: %s", fe.Field(), formatValidationError(fe))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// FieldRule is a pure predicate over a single field value. Rules compose into
// an ordered pipeline per field; the first failure wins.
type FieldRule func(value string) error

func runRules(field, value string, rules ...FieldRule) error {
	for _, rule := range rules {
		if err := rule(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// Characters rejected outright on the login form, on top of parameterized
	// storage access.
	loginBlacklist = `;'"<>`

	// Crude injection screens applied to rich-text bodies, mirroring the
	// defense-in-depth checks on free-form CMS input.
	sqlInjectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC)\b`),
		regexp.MustCompile(`(--|#)`),
	}
)

func usernameMinLength(value string) error {
	if len(value) < 3 {
		return fmt.Errorf("must be at least 3 characters long")
	}
	return nil
}

func usernameAllowedChars(value string) error {
	if !usernamePattern.MatchString(value) {
		return fmt.Errorf("can only contain letters, numbers, and underscores")
	}
	return nil
}

func loginForbiddenChars(value string) error {
	if strings.ContainsAny(value, loginBlacklist) {
		return fmt.Errorf("contains invalid characters")
	}
	return nil
}

func phoneDigitsOnly(value string) error {
	if value == "" {
		return nil
	}
	cleaned := strings.NewReplacer("-", "", " ", "", "(", "", ")", "", "+", "").Replace(value)
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return fmt.Errorf("should contain only numbers and separators")
		}
	}
	return nil
}

func richTextInjectionScreen(value string) error {
	for _, pattern := range sqlInjectionPatterns {
		if pattern.MatchString(value) {
			return fmt.Errorf("contains disallowed input")
		}
	}
	return nil
}

// ValidateRegistrationUsername runs the registration username pipeline.
func ValidateRegistrationUsername(username string) error {
	return runRules("username", username, usernameAllowedChars, usernameMinLength)
}

// ValidateLoginUsername runs the login-form username pipeline.
func ValidateLoginUsername(username string) error {
	return runRules("username", username, loginForbiddenChars)
}

// ValidatePhone validates an optional phone field.
func ValidatePhone(phone string) error {
	return runRules("phone", phone, phoneDigitsOnly)
}

// ValidateRichText screens free-form CMS body fields.
func ValidateRichText(value string) error {
	return runRules("content", value, richTextInjectionScreen)
}

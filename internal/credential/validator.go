package credential

import (
	"fmt"
	"regexp"
	"strings"
)

// pemMarker must appear in private_key for it to be trusted as key material.
const pemMarker = "PRIVATE KEY"

var requiredFields = []string{"type", "project_id", "private_key", "client_email"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult reports structural validation of a decrypted credential.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// Validate checks the decrypted credential against the required-field
// schema. All rule violations are collected rather than stopping at the
// first, except for the non-object case where no field rules apply.
// Pure function: no side effects, no logging.
func Validate(cred Credential) ValidationResult {
	if cred.Fields == nil {
		return ValidationResult{
			IsValid: false,
			Errors:  []string{"credential must be a JSON object"},
		}
	}

	var errs []string

	for _, field := range requiredFields {
		value, ok := cred.Fields[field]
		str, isString := value.(string)
		if !ok || !isString || strings.TrimSpace(str) == "" {
			errs = append(errs, fmt.Sprintf("missing or empty required field: %s", field))
		}
	}

	if credType := cred.Type(); credType != "" && credType != TypeServiceAccount {
		errs = append(errs, fmt.Sprintf("type must be %q, got %q", TypeServiceAccount, credType))
	}

	if key := cred.PrivateKey(); key != "" && !strings.Contains(key, pemMarker) {
		errs = append(errs, "private_key does not contain a PEM private key header")
	}

	if email := cred.ClientEmail(); email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, fmt.Sprintf("client_email is not a valid email address: %s", email))
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

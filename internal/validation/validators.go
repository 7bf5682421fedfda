// Package validation holds request-parameter validators shared by the API
// handlers. Validation failures are rejected at the HTTP boundary before
// any backend call is made.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateUUID checks that s is a well-formed UUID. The field name is only
// used in the error message.
func ValidateUUID(field, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	// uuid.Parse accepts urn: and braced forms; the API only accepts the
	// plain hex-and-dashes form.
	if len(s) != 36 || strings.Count(s, "-") != 4 {
		return fmt.Errorf("invalid %s: %q", field, s)
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid %s: %q", field, s)
	}
	return nil
}

// ValidateOptionalUUID is ValidateUUID for parameters that may be absent.
func ValidateOptionalUUID(field, s string) error {
	if s == "" {
		return nil
	}
	return ValidateUUID(field, s)
}

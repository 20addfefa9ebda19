package errors

import (
	"strings"
	"unicode"
)

// ValidateFilename validates a board file name received over the API.
// It must be a plain base name without path components or control characters.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidPath, "file name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "file name cannot contain path components")
	}
	return nil
}

// ValidateChoice checks that value is one of allowed, reporting code otherwise.
func ValidateChoice(code Code, what, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(code, "invalid %s %q (want one of %s)", what, value, strings.Join(allowed, ", "))
}

// ValidatePositive checks that a numeric setting is strictly positive.
func ValidatePositive(what string, v float64) error {
	if v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %v", what, v)
	}
	return nil
}

// ValidateNonNegative checks that a numeric setting is zero or positive.
func ValidateNonNegative(what string, v float64) error {
	if v < 0 {
		return New(ErrCodeInvalidConfig, "%s must not be negative, got %v", what, v)
	}
	return nil
}

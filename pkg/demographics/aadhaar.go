// Package demographics holds small validators for registration data:
// Aadhaar numbers, blood groups, family relationships and ages.
package demographics

import (
	"errors"
	"regexp"
	"strings"
)

const (
	AadhaarLength = 12
	// MaskedAadhaar is returned by MaskAadhaar for malformed input.
	MaskedAadhaar = "XXXX XXXX XXXX"
)

var ErrInvalidAadhaar = errors.New("aadhaar must be exactly 12 digits")

var aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// IsValidAadhaar reports whether s holds exactly 12 digits once whitespace is removed.
func IsValidAadhaar(s string) bool {
	return aadhaarPattern.MatchString(stripSpace(s))
}

// FormatAadhaar groups the number as XXXX XXXX XXXX.
func FormatAadhaar(s string) (string, error) {
	n := stripSpace(s)
	if len(n) != AadhaarLength {
		return "", ErrInvalidAadhaar
	}
	return n[0:4] + " " + n[4:8] + " " + n[8:12], nil
}

// MaskAadhaar hides all but the last 4 digits.
func MaskAadhaar(s string) string {
	n := stripSpace(s)
	if len(n) != AadhaarLength {
		return MaskedAadhaar
	}
	return "XXXX XXXX " + n[8:12]
}

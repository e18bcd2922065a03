// Package healthid implements the canonical Health ID format: 14 digits
// grouped as SS-DDDD-PPPP-QQQQ (state, district, two sequence groups).
package healthid

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Length is the number of significant digits in a Health ID.
	Length = 14
	// CanonicalLength is the length of the dashed form.
	CanonicalLength = 17
)

var canonicalPattern = regexp.MustCompile(`^[0-9]{2}-[0-9]{4}-[0-9]{4}-[0-9]{4}$`)

// FormatError reports input that cannot be formatted as a Health ID.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("health id %q: %s", e.Input, e.Reason)
}

// ID is an immutable Health ID split into its segments.
type ID struct {
	state    string
	district string
	sequence string
}

// New assembles an ID from a 2-digit state code, a 4-digit district code and
// an 8-digit sequence. Segments are not validated; use IsValid on String().
func New(state, district, sequence string) ID {
	return ID{state: state, district: district, sequence: sequence}
}

// Parse accepts either the canonical dashed form or 14 raw digits.
func Parse(s string) (ID, error) {
	canonical, err := Format(s)
	if err != nil {
		return ID{}, err
	}
	if !IsValid(canonical) {
		return ID{}, &FormatError{Input: s, Reason: "must contain only digits"}
	}
	return ID{state: canonical[0:2], district: canonical[3:7], sequence: canonical[8:12] + canonical[13:17]}, nil
}

func (id ID) StateCode() string    { return id.state }
func (id ID) DistrictCode() string { return id.district }
func (id ID) Sequence() string     { return id.sequence }

// String returns the canonical SS-DDDD-PPPP-QQQQ form.
func (id ID) String() string {
	var b strings.Builder
	b.Grow(CanonicalLength)
	b.WriteString(id.state)
	b.WriteByte('-')
	b.WriteString(id.district)
	b.WriteByte('-')
	if len(id.sequence) >= 4 {
		b.WriteString(id.sequence[:4])
		b.WriteByte('-')
		b.WriteString(id.sequence[4:])
	} else {
		b.WriteString(id.sequence)
	}
	return b.String()
}

// Normalized returns the 14 digits without dashes.
func (id ID) Normalized() string {
	return id.state + id.district + id.sequence
}

// IsValid reports whether s is exactly in canonical form.
func IsValid(s string) bool {
	return canonicalPattern.MatchString(s)
}

// Normalize strips every dash. It does not check length or digits.
func Normalize(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

// Format normalizes raw and re-inserts dashes after positions 2, 6 and 10.
// Only the length is checked, so callers that need digits must use IsValid
// on the result.
func Format(raw string) (string, error) {
	r := []rune(Normalize(raw))
	if len(r) != Length {
		return "", &FormatError{Input: raw, Reason: "must be exactly 14 digits"}
	}
	return string(r[0:2]) + "-" + string(r[2:6]) + "-" + string(r[6:10]) + "-" + string(r[10:14]), nil
}

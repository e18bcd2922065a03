package demographics

import (
	"errors"
	"time"
)

var ErrInvalidBirthDate = errors.New("invalid date of birth")

var birthDateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseBirthDate accepts YYYY-MM-DD or RFC 3339.
func ParseBirthDate(dob string) (time.Time, error) {
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, dob); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidBirthDate
}

// Age returns completed years between birth and now. A birthday not yet
// reached this year does not count.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// CalculateAge parses dob and returns the age as of today.
func CalculateAge(dob string) (int, error) {
	birth, err := ParseBirthDate(dob)
	if err != nil {
		return 0, err
	}
	return Age(birth, time.Now()), nil
}

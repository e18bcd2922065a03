package demographics

import "slices"

var bloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// BloodGroups returns the accepted blood groups.
func BloodGroups() []string {
	return slices.Clone(bloodGroups)
}

// IsValidBloodGroup matches exactly, so "a+" is rejected.
func IsValidBloodGroup(bg string) bool {
	return slices.Contains(bloodGroups, bg)
}

package healthid

import "regexp"

const (
	// DefaultStateCode is used when no usable state code is supplied.
	DefaultStateCode = "01"
	// UnknownStateName is returned by StateName for unmapped codes.
	UnknownStateName = "Unknown"
)

// State is one entry of the state code table.
type State struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// stateTable is never mutated after package init. Reverse lookups scan it in
// order, so the first entry wins if a code is ever listed twice.
var stateTable = []State{
	{"Andhra Pradesh", "28"},
	{"Arunachal Pradesh", "12"},
	{"Assam", "18"},
	{"Bihar", "10"},
	{"Chhattisgarh", "22"},
	{"Goa", "30"},
	{"Gujarat", "24"},
	{"Haryana", "06"},
	{"Himachal Pradesh", "02"},
	{"Jharkhand", "20"},
	{"Karnataka", "29"},
	{"Kerala", "32"},
	{"Madhya Pradesh", "23"},
	{"Maharashtra", "27"},
	{"Manipur", "14"},
	{"Meghalaya", "17"},
	{"Mizoram", "15"},
	{"Nagaland", "13"},
	{"Odisha", "21"},
	{"Punjab", "03"},
	{"Rajasthan", "08"},
	{"Sikkim", "11"},
	{"Tamil Nadu", "33"},
	{"Telangana", "36"},
	{"Tripura", "16"},
	{"Uttar Pradesh", "09"},
	{"Uttarakhand", "05"},
	{"West Bengal", "19"},
	{"Andaman and Nicobar Islands", "35"},
	{"Chandigarh", "04"},
	{"Dadra and Nagar Haveli and Daman and Diu", "26"},
	{"Delhi", "07"},
	{"Jammu and Kashmir", "01"},
	{"Ladakh", "37"},
	{"Lakshadweep", "31"},
	{"Puducherry", "34"},
}

var codeByName = func() map[string]string {
	m := make(map[string]string, len(stateTable))
	for _, s := range stateTable {
		m[s.Name] = s.Code
	}
	return m
}()

var stateCodePattern = regexp.MustCompile(`^[0-9]{2}$`)

// StateCode returns the code for a state name, or DefaultStateCode.
// Names are matched exactly.
func StateCode(name string) string {
	if code, ok := codeByName[name]; ok {
		return code
	}
	return DefaultStateCode
}

// StateName returns the first state name mapped to code, or UnknownStateName.
func StateName(code string) string {
	for _, s := range stateTable {
		if s.Code == code {
			return s.Name
		}
	}
	return UnknownStateName
}

// States returns a copy of the table in declaration order.
func States() []State {
	out := make([]State, len(stateTable))
	copy(out, stateTable)
	return out
}

// IsWellFormedStateCode reports whether code is two ASCII digits. Unknown but
// well-formed codes are accepted by the generator as-is.
func IsWellFormedStateCode(code string) bool {
	return stateCodePattern.MatchString(code)
}

// IsKnownStateCode reports whether code appears in the table.
func IsKnownStateCode(code string) bool {
	return StateName(code) != UnknownStateName
}

package healthid

import "testing"

func TestStateCode(t *testing.T) {
	if got := StateCode("Maharashtra"); got != "27" {
		t.Errorf("expected 27, got %s", got)
	}
	if got := StateCode("Atlantis"); got != DefaultStateCode {
		t.Errorf("expected default code for unknown name, got %s", got)
	}
	if got := StateCode("maharashtra"); got != DefaultStateCode {
		t.Errorf("expected exact-match lookup, got %s", got)
	}
}

func TestStateName(t *testing.T) {
	if got := StateName("01"); got != "Jammu and Kashmir" {
		t.Errorf("expected Jammu and Kashmir, got %s", got)
	}
	if got := StateName("99"); got != UnknownStateName {
		t.Errorf("expected %s, got %s", UnknownStateName, got)
	}
}

func TestStates_RoundTrip(t *testing.T) {
	for _, s := range States() {
		if StateCode(s.Name) != s.Code {
			t.Errorf("StateCode(%s) != %s", s.Name, s.Code)
		}
		if !IsWellFormedStateCode(s.Code) {
			t.Errorf("code %s for %s is not two digits", s.Code, s.Name)
		}
	}
}

func TestStates_ReturnsCopy(t *testing.T) {
	states := States()
	states[0].Code = "XX"
	if StateCode("Andhra Pradesh") != "28" {
		t.Error("mutating the returned slice must not affect the table")
	}
}

func TestIsWellFormedStateCode(t *testing.T) {
	for code, want := range map[string]bool{"01": true, "99": true, "1": false, "001": false, "ab": false, "": false} {
		if got := IsWellFormedStateCode(code); got != want {
			t.Errorf("IsWellFormedStateCode(%q) = %v, want %v", code, got, want)
		}
	}
	if IsKnownStateCode("99") {
		t.Error("99 is not in the table")
	}
	if !IsKnownStateCode("36") {
		t.Error("36 is Telangana")
	}
}

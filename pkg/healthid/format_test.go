package healthid

import (
	"errors"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"01-2345-6789-0123", true},
		{"99-0000-0000-0000", true},
		{"1-2345-6789-0123", false},
		{"01-2345-6789-012", false},
		{"01234567890123", false},
		{"01-2345-6789-01234", false},
		{" 01-2345-6789-0123", false},
		{"01-2345-6789-0123\n", false},
		{"0a-2345-6789-0123", false},
		{"01_2345_6789_0123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.in); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("01-2345-6789-0123"); got != "01234567890123" {
		t.Errorf("expected 01234567890123, got %s", got)
	}
	// No validation happens.
	if got := Normalize("a-b--c"); got != "abc" {
		t.Errorf("expected abc, got %s", got)
	}
}

func TestFormat(t *testing.T) {
	got, err := Format("12345678901234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "12-3456-7890-1234" {
		t.Errorf("expected 12-3456-7890-1234, got %s", got)
	}

	got, err = Format("1-2345-67890-1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "12-3456-7890-1234" {
		t.Errorf("expected dashes to be re-grouped, got %s", got)
	}
}

func TestFormat_WrongLength(t *testing.T) {
	for _, in := range []string{"1234", "", "123456789012345", "01-2345-6789-012"} {
		_, err := Format(in)
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("Format(%q): expected FormatError, got %v", in, err)
			continue
		}
		if fe.Reason != "must be exactly 14 digits" {
			t.Errorf("unexpected reason %q", fe.Reason)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, s := range []string{"01-2345-6789-0123", "37-0000-9999-4242", "00-0000-0000-0000"} {
		got, err := Format(Normalize(s))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", s, err)
		}
		if got != s {
			t.Errorf("round trip of %s produced %s", s, got)
		}
	}
}

func TestID_String(t *testing.T) {
	id := New("27", "1234", "56789012")
	if id.String() != "27-1234-5678-9012" {
		t.Errorf("expected 27-1234-5678-9012, got %s", id.String())
	}
	if !IsValid(id.String()) {
		t.Error("expected canonical form to be valid")
	}
	if id.Normalized() != "27123456789012" {
		t.Errorf("unexpected normalized form %s", id.Normalized())
	}
}

func TestParse(t *testing.T) {
	id, err := Parse("27123456789012")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.StateCode() != "27" || id.DistrictCode() != "1234" || id.Sequence() != "56789012" {
		t.Errorf("unexpected segments: %s %s %s", id.StateCode(), id.DistrictCode(), id.Sequence())
	}

	if _, err := Parse("2712345678901x"); err == nil {
		t.Error("expected error for non-digit input")
	}
	if _, err := Parse("123"); err == nil {
		t.Error("expected error for short input")
	}
}

package healthid

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEncodeQRData(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	raw := EncodeQRData("01-2345-6789-0123", "Asha Rao", "1990-02-03", at)

	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	want := map[string]string{
		"healthId":  "01-2345-6789-0123",
		"name":      "Asha Rao",
		"dob":       "1990-02-03",
		"timestamp": "2024-03-01T10:30:00.000Z",
		"version":   "1.0",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, m[k])
		}
	}
}

func TestParseQRData(t *testing.T) {
	raw := GenerateQRData("01-2345-6789-0123", "Asha Rao", "1990-02-03")
	data := ParseQRData(raw)
	if data == nil {
		t.Fatal("expected parsed data")
	}
	if data.HealthID != "01-2345-6789-0123" || data.Name != "Asha Rao" || data.Version != QRVersion {
		t.Errorf("unexpected data: %+v", data)
	}
}

func TestParseQRData_Invalid(t *testing.T) {
	inputs := []string{
		"not json",
		"",
		"null",
		"[]",
		"42",
		`{"healthId":"01-2345-6789-0123","name":"A"}`,
		`{"name":"A","dob":"1990-01-01"}`,
		`{"healthId":"","name":"A","dob":"1990-01-01"}`,
		`{"healthId":1234567890123,"name":"A","dob":"1990-01-01"}`,
		`{"healthId":"01-2345-6789-0123","name":true,"dob":"1990-01-01"}`,
	}
	for _, in := range inputs {
		if got := ParseQRData(in); got != nil {
			t.Errorf("ParseQRData(%q) = %+v, want nil", in, got)
		}
	}
}

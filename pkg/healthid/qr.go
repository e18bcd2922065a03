package healthid

import (
	"encoding/json"
	"time"
)

// QRVersion is written into every QR payload.
const QRVersion = "1.0"

// QRData is the JSON document encoded into a Health ID card QR code.
type QRData struct {
	HealthID  string `json:"healthId"`
	Name      string `json:"name"`
	DOB       string `json:"dob"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// GenerateQRData serializes the QR payload stamped with the current time.
func GenerateQRData(healthID, fullName, dob string) string {
	return EncodeQRData(healthID, fullName, dob, time.Now())
}

// EncodeQRData is GenerateQRData with an explicit timestamp.
func EncodeQRData(healthID, fullName, dob string, at time.Time) string {
	data := QRData{
		HealthID:  healthID,
		Name:      fullName,
		DOB:       dob,
		Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Version:   QRVersion,
	}
	// Marshalling a struct of strings cannot fail.
	raw, _ := json.Marshal(data)
	return string(raw)
}

// ParseQRData decodes a QR payload. It returns nil, never an error, when the
// input is not a JSON object or lacks healthId, name or dob. Fields are typed:
// a non-string value such as a numeric healthId also yields nil.
func ParseQRData(qrData string) *QRData {
	var data QRData
	if err := json.Unmarshal([]byte(qrData), &data); err != nil {
		return nil
	}
	if data.HealthID == "" || data.Name == "" || data.DOB == "" {
		return nil
	}
	return &data
}

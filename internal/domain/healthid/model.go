package healthid

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the health_ids table.
type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	HealthIDNumber string     `db:"health_id_number" json:"health_id_number"`
	FullName       *string    `db:"full_name" json:"full_name,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	StateCode      string     `db:"state_code" json:"state_code"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// DOBString returns the birth date as YYYY-MM-DD, or "" when unset.
func (r *Record) DOBString() string {
	if r.DateOfBirth == nil {
		return ""
	}
	return r.DateOfBirth.Format("2006-01-02")
}

// VerifyResult is the outcome of Service.Verify.
type VerifyResult struct {
	Valid  bool    `json:"valid"`
	Exists bool    `json:"exists"`
	Active bool    `json:"active"`
	Data   *Record `json:"data,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// IssueRequest asks for a new Health ID assigned to a person.
type IssueRequest struct {
	StateCode   string `json:"state_code"`
	StateName   string `json:"state_name"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
}

// IssueResult carries the stored record and its QR payload.
type IssueResult struct {
	Record *Record `json:"record"`
	QRData string  `json:"qr_data"`
}

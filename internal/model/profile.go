package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DBT seeding status values as stored in student_profiles.dbt_status.
// "Active" means the bank account is seeded for Direct Benefit
// Transfer and can receive disbursements.
const (
	DBTActive    = "Active"
	DBTPending   = "Pending"
	DBTNotActive = "Not Active"
)

// NullFloat is a float64 that is either a valid number or explicitly
// absent.  Profile data arrives from heterogeneous sources (form
// submissions, stored JSON, DB rows) where numeric fields may be
// encoded as numbers, numeric strings, empty strings or null.  All
// of those decode without error; anything non-numeric simply leaves
// Valid false so downstream scoring treats the rule as a non-match
// instead of propagating garbage.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a NullFloat holding v.
func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// UnmarshalJSON accepts a JSON number, a quoted numeric string,
// an empty string, or null.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	*n = NullFloat{}
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			// Not a number; treat as absent rather than failing the
			// whole profile decode.
			return nil
		}
		*n = NullFloat{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = NullFloat{Value: v, Valid: true}
	return nil
}

// MarshalJSON emits the number, or null when absent.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// StudentProfile is the canonical student record used by the
// matching pipeline.  The json tags mirror the field names used by
// the profile API so the same struct serves DB rows, request bodies
// and session snapshots.
//
// Identity fields cover who the student is, academic fields where
// they study, financial fields whether their bank account is seeded
// for DBT.  Age is derived from DOB at evaluation time by the
// normalizer and is never persisted.
type StudentProfile struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Category     string    `json:"category,omitempty"`
	FatherName   string    `json:"father_name,omitempty"`
	MotherName   string    `json:"mother_name,omitempty"`
	DOB          string    `json:"dob,omitempty"` // ISO date string, e.g. "2004-07-15"
	Address      string    `json:"address,omitempty"`
	District     string    `json:"district,omitempty"`
	State        string    `json:"state,omitempty"`
	CollegeName  string    `json:"college_name,omitempty"`
	Course       string    `json:"course,omitempty"`
	YearOfStudy  string    `json:"year_of_study,omitempty"`
	CGPA         NullFloat `json:"cgpa"`
	FamilyIncome NullFloat `json:"family_income"`
	BankAccount  string    `json:"bank_account,omitempty"`
	IFSCCode     string    `json:"ifsc_code,omitempty"`
	DBTStatus    string    `json:"dbt_status,omitempty"`
	Aadhaar      string    `json:"aadhaar,omitempty"`
	Disabilities []string  `json:"disabilities,omitempty"`
	Achievements []string  `json:"achievements,omitempty"`

	// Age is filled by profile.Normalize from DOB; nil when the DOB
	// is missing or unparseable.
	Age *int `json:"age,omitempty"`
}

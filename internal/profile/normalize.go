// Package profile derives the canonical student profile consumed by
// the matching pipeline from heterogeneous raw user data.
package profile

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

// Defaults applied when a field is missing.  Gender has no default:
// unset gender is treated as a wildcard by the matching rules.
const (
	DefaultCategory    = "General"
	DefaultYearOfStudy = "1st Year"
)

// dobLayouts are the date formats accepted for the date of birth.
var dobLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// Normalize returns a canonical copy of raw: defaults filled in,
// identity strings trimmed, and Age derived from DOB at evaluation
// time.  The input is never mutated.
//
// Age is calendar-year subtraction only — year(now) minus year(dob),
// ignoring month and day.  An unparseable DOB leaves Age nil, which
// the scoring rules treat as a non-match rather than an error.
func Normalize(raw model.StudentProfile, now time.Time) model.StudentProfile {
	p := raw
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Category = strings.TrimSpace(p.Category)
	p.Course = strings.TrimSpace(p.Course)

	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.YearOfStudy == "" {
		p.YearOfStudy = DefaultYearOfStudy
	}
	if p.DBTStatus == "" {
		p.DBTStatus = model.DBTNotActive
	}

	p.Age = nil
	if dob, ok := parseDOB(p.DOB); ok {
		age := now.Year() - dob.Year()
		p.Age = &age
	}

	// Disabilities are copied so callers holding the input cannot
	// alias the normalized record's slice.
	if raw.Disabilities != nil {
		p.Disabilities = append([]string(nil), raw.Disabilities...)
	}
	if raw.Achievements != nil {
		p.Achievements = append([]string(nil), raw.Achievements...)
	}
	return p
}

// FromUserData decodes a session user snapshot into a StudentProfile.
// The tolerant numeric types absorb string-encoded numbers; anything
// unusable simply yields zero values, keeping login flows total over
// whatever the snapshot holds.
func FromUserData(user map[string]any) model.StudentProfile {
	var p model.StudentProfile
	body, err := json.Marshal(user)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(body, &p)
	return p
}

func parseDOB(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

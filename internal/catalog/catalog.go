// Package catalog supplies the read-only scholarship catalog.  The
// default catalog ships embedded in the binary; deployments may
// override it with a JSON file of the same shape.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

//go:embed scholarships.json
var embedded []byte

// Load parses the embedded catalog.
func Load() ([]model.Scholarship, error) {
	return parse(embedded)
}

// LoadFile parses a catalog override from disk.
func LoadFile(path string) ([]model.Scholarship, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(body)
}

func parse(body []byte) ([]model.Scholarship, error) {
	var list []model.Scholarship
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	for i, sch := range list {
		if sch.ID == "" || sch.Name == "" {
			return nil, fmt.Errorf("catalog: entry %d missing id or name", i)
		}
	}
	return list, nil
}

// Query defines the browse filters exposed by the scholarship list
// endpoint.  Empty or "all" values do not constrain the result.
type Query struct {
	Category string
	Field    string
	Gender   string
	AgeBand  string // "<18", "18-25" or "25+"
}

// Filter returns the catalog entries matching q, in catalog order.
func Filter(list []model.Scholarship, q Query) []model.Scholarship {
	out := make([]model.Scholarship, 0, len(list))
	for _, sch := range list {
		if !matchValue(sch.Category, q.Category) {
			continue
		}
		if !matchValue(sch.Field, q.Field) {
			continue
		}
		if !matchGender(sch.Gender, q.Gender) {
			continue
		}
		if !matchAgeBand(sch.AgeRange, q.AgeBand) {
			continue
		}
		out = append(out, sch)
	}
	return out
}

// FindByID returns the entry with the given id.
func FindByID(list []model.Scholarship, id string) (model.Scholarship, bool) {
	for _, sch := range list {
		if sch.ID == id {
			return sch, true
		}
	}
	return model.Scholarship{}, false
}

func matchValue(have, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, "all") {
		return true
	}
	return strings.EqualFold(have, want)
}

// matchGender keeps awards open to the requested gender: "any"
// awards always pass, gender-specific awards only for their gender.
func matchGender(have, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, "all") {
		return true
	}
	return have == "any" || strings.EqualFold(have, want)
}

// matchAgeBand implements the browse page's coarse age buckets over
// the award's inclusive [min, max] range.
func matchAgeBand(ageRange [2]int, band string) bool {
	switch strings.TrimSpace(band) {
	case "", "all":
		return true
	case "<18":
		return ageRange[0] < 18
	case "18-25":
		return ageRange[0] <= 25 && ageRange[1] >= 18
	case "25+":
		return ageRange[1] >= 25
	default:
		return true
	}
}

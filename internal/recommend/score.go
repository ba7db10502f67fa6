// Package recommend implements the scholarship eligibility scoring
// engine: a pure, synchronous transform from a normalized student
// profile and a read-only catalog to a ranked list of scored
// matches.
package recommend

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

// Points awarded per rule.  Rules are independent: each is checked
// against the profile on its own, with no early exit and no state
// shared across scholarships.  The capped total is an integer in
// [0, 100].
const (
	pointsAge     = 20
	pointsGender  = 20
	pointsIncome  = 20
	pointsSpecial = 20
	pointsField   = 10

	maxScore = 100
)

// disabilityAward is the one catalog entry whose special rule keys
// off the profile's declared disabilities instead of its category.
const disabilityAward = "AICTE Saksham Scholarship"

// minorityCategories enumerates the profile categories recognised by
// the minority-scholarship rule.
var minorityCategories = map[string]bool{
	"Muslim":    true,
	"Christian": true,
	"Sikh":      true,
	"Buddhist":  true,
	"Jain":      true,
	"Parsi":     true,
}

// incomeCeilingPattern extracts the rupee amount from legacy
// requirement sentences of the form "Family income < ₹2,00,000".
// Newer catalog entries carry the bound in the structured
// income_ceiling field, which takes precedence.
var incomeCeilingPattern = regexp.MustCompile(`< ₹([\d,]+)`)

// Score evaluates every catalog entry against the profile and
// returns the matches ranked by descending eligibility score.
// Entries scoring zero are dropped.  Equal scores keep their catalog
// order (stable sort).  Identical inputs always produce identical
// ordered output.
//
// Malformed profile data (missing age, absent income) makes the
// affected rule a non-match; it never aborts the run.
func Score(p model.StudentProfile, catalog []model.Scholarship) []model.ScoredMatch {
	matches := make([]model.ScoredMatch, 0, len(catalog))
	for _, sch := range catalog {
		score, reasons := evaluate(p, sch)
		if score == 0 {
			continue
		}
		matches = append(matches, model.ScoredMatch{
			Scholarship:      sch,
			EligibilityScore: score,
			MatchReasons:     reasons,
			ApplicationLink:  sch.Link,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].EligibilityScore > matches[j].EligibilityScore
	})
	return matches
}

// evaluate applies the five rules in order and accumulates points and
// reasons.  Reason order mirrors rule order.
func evaluate(p model.StudentProfile, sch model.Scholarship) (int, []string) {
	score := 0
	var reasons []string

	// Age: inclusive on both ends; unknown age never matches.
	if p.Age != nil && *p.Age >= sch.AgeRange[0] && *p.Age <= sch.AgeRange[1] {
		score += pointsAge
		reasons = append(reasons, fmt.Sprintf("Matches age range (%d-%d)", sch.AgeRange[0], sch.AgeRange[1]))
	}

	// Gender: "any" matches everyone; an unset profile gender is a
	// wildcard and matches gender-specific awards too.
	if sch.Gender == "any" || p.Gender == "" || strings.EqualFold(sch.Gender, p.Gender) {
		score += pointsGender
		reasons = append(reasons, "Matches gender")
	}

	// Income: at most one of the two sub-rules fires.
	if varies(sch.Requirements) {
		score += pointsIncome
		reasons = append(reasons, "Matches general income criteria")
	} else if ceiling, ok := incomeCeiling(sch); ok {
		if p.FamilyIncome.Valid && p.FamilyIncome.Value <= float64(ceiling) {
			score += pointsIncome
			reasons = append(reasons, fmt.Sprintf("Family income is below the limit (%d)", ceiling))
		}
	}

	// Special cases: the disability award keys off declared
	// disabilities, minority awards off the profile category.
	if sch.Name == disabilityAward && len(p.Disabilities) > 0 {
		score += pointsSpecial
		reasons = append(reasons, "Matches disability criteria")
	}
	if sch.Category == model.CategoryMinority && minorityCategories[p.Category] {
		score += pointsSpecial
		reasons = append(reasons, fmt.Sprintf("Matches minority category (%s)", p.Category))
	}

	// Field of study: "general" is open to all; otherwise the course
	// string must contain the field name.
	if sch.Field == model.FieldGeneral {
		score += pointsField
		reasons = append(reasons, "General scholarship, open to all fields")
	} else if sch.Field != "" && strings.Contains(strings.ToLower(p.Course), strings.ToLower(sch.Field)) {
		score += pointsField
		reasons = append(reasons, fmt.Sprintf("Matches field of study: %s", sch.Field))
	}

	if score > maxScore {
		score = maxScore
	}
	return score, reasons
}

func varies(requirements []string) bool {
	for _, req := range requirements {
		if strings.Contains(req, "Income criteria varies") {
			return true
		}
	}
	return false
}

// incomeCeiling resolves the award's income bound: the structured
// field when set, otherwise the amount parsed out of a legacy
// "Family income < ₹N" requirement sentence.  The contract is the
// numeric comparison, not the sentence format.
func incomeCeiling(sch model.Scholarship) (uint64, bool) {
	if sch.IncomeCeiling > 0 {
		return sch.IncomeCeiling, true
	}
	for _, req := range sch.Requirements {
		if !strings.Contains(req, "Family income <") {
			continue
		}
		m := incomeCeilingPattern.FindStringSubmatch(req)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

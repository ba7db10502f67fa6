package recommend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

func intp(v int) *int { return &v }

// student returns a profile that matches most rules; tests override
// individual fields to probe a single rule.
func student() model.StudentProfile {
	return model.StudentProfile{
		Name:         "Asha Rao",
		Gender:       "female",
		Category:     "General",
		Course:       "B.Tech Computer Science Engineering",
		FamilyIncome: model.Float(200000),
		Age:          intp(20),
	}
}

func TestScoreSingleAward(t *testing.T) {
	sch := model.Scholarship{
		ID:            "pragati",
		Name:          "AICTE Pragati Scholarship",
		Category:      model.CategoryTechnical,
		Field:         model.FieldEngineering,
		Gender:        "female",
		AgeRange:      [2]int{18, 25},
		IncomeCeiling: 800000,
		Link:          "https://example.gov/pragati",
	}

	got := Score(student(), []model.Scholarship{sch})
	require.Len(t, got, 1)

	m := got[0]
	require.Equal(t, 70, m.EligibilityScore)
	require.Equal(t, []string{
		"Matches age range (18-25)",
		"Matches gender",
		"Family income is below the limit (800000)",
		"Matches field of study: engineering",
	}, m.MatchReasons)
	require.Equal(t, sch.Link, m.ApplicationLink)
}

func TestScoreAgeRule(t *testing.T) {
	sch := model.Scholarship{ID: "a", Name: "A", AgeRange: [2]int{18, 25}, Gender: "any"}

	cases := []struct {
		name    string
		age     *int
		matched bool
	}{
		{"inside", intp(20), true},
		{"lower bound inclusive", intp(18), true},
		{"upper bound inclusive", intp(25), true},
		{"below", intp(17), false},
		{"above", intp(26), false},
		{"unknown age", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := student()
			p.Age = tc.age
			score, reasons := evaluate(p, sch)
			if tc.matched {
				require.Contains(t, reasons, "Matches age range (18-25)")
			} else {
				require.NotContains(t, reasons, "Matches age range (18-25)")
			}
			_ = score
		})
	}
}

func TestScoreGenderRule(t *testing.T) {
	cases := []struct {
		name      string
		schGender string
		pGender   string
		matched   bool
	}{
		{"any matches everyone", "any", "male", true},
		{"exact match", "female", "female", true},
		{"case folded", "Female", "female", true},
		{"mismatch", "female", "male", false},
		{"unset profile gender is wildcard", "female", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := student()
			p.Gender = tc.pGender
			sch := model.Scholarship{Name: "A", Gender: tc.schGender}
			_, reasons := evaluate(p, sch)
			if tc.matched {
				require.Contains(t, reasons, "Matches gender")
			} else {
				require.NotContains(t, reasons, "Matches gender")
			}
		})
	}
}

func TestScoreIncomeRule(t *testing.T) {
	t.Run("varies matches without income", func(t *testing.T) {
		p := student()
		p.FamilyIncome = model.NullFloat{}
		sch := model.Scholarship{Name: "A", Requirements: []string{"Income criteria varies by state"}}
		_, reasons := evaluate(p, sch)
		require.Contains(t, reasons, "Matches general income criteria")
	})

	t.Run("legacy requirement sentence", func(t *testing.T) {
		sch := model.Scholarship{Name: "A", Requirements: []string{"Family income < ₹2,50,000 per annum"}}
		_, reasons := evaluate(student(), sch)
		require.Contains(t, reasons, "Family income is below the limit (250000)")
	})

	t.Run("structured ceiling wins over sentence", func(t *testing.T) {
		sch := model.Scholarship{
			Name:          "A",
			IncomeCeiling: 300000,
			Requirements:  []string{"Family income < ₹1,00,000"},
		}
		_, reasons := evaluate(student(), sch)
		require.Contains(t, reasons, "Family income is below the limit (300000)")
	})

	t.Run("income above ceiling", func(t *testing.T) {
		p := student()
		p.FamilyIncome = model.Float(900000)
		sch := model.Scholarship{Name: "A", IncomeCeiling: 800000}
		_, reasons := evaluate(p, sch)
		require.NotContains(t, reasons, "Family income is below the limit (800000)")
	})

	t.Run("missing income never matches a ceiling", func(t *testing.T) {
		p := student()
		p.FamilyIncome = model.NullFloat{}
		sch := model.Scholarship{Name: "A", IncomeCeiling: 800000}
		_, reasons := evaluate(p, sch)
		require.NotContains(t, reasons, "Family income is below the limit (800000)")
	})
}

func TestScoreSpecialRules(t *testing.T) {
	t.Run("disability award", func(t *testing.T) {
		sch := model.Scholarship{Name: "AICTE Saksham Scholarship"}
		p := student()
		p.Disabilities = []string{"Low vision"}
		_, reasons := evaluate(p, sch)
		require.Contains(t, reasons, "Matches disability criteria")

		p.Disabilities = nil
		_, reasons = evaluate(p, sch)
		require.NotContains(t, reasons, "Matches disability criteria")
	})

	t.Run("minority categories", func(t *testing.T) {
		sch := model.Scholarship{Name: "A", Category: model.CategoryMinority}
		for _, cat := range []string{"Muslim", "Christian", "Sikh", "Buddhist", "Jain", "Parsi"} {
			p := student()
			p.Category = cat
			_, reasons := evaluate(p, sch)
			require.Contains(t, reasons, "Matches minority category ("+cat+")", "category %s", cat)
		}

		p := student()
		p.Category = "General"
		_, reasons := evaluate(p, sch)
		require.NotContains(t, reasons, "Matches minority category (General)")
	})
}

func TestScoreFieldRule(t *testing.T) {
	t.Run("general open to all", func(t *testing.T) {
		sch := model.Scholarship{Name: "A", Field: model.FieldGeneral}
		p := student()
		p.Course = "BA History"
		_, reasons := evaluate(p, sch)
		require.Contains(t, reasons, "General scholarship, open to all fields")
	})

	t.Run("course must contain the field", func(t *testing.T) {
		sch := model.Scholarship{Name: "A", Field: "nursing"}
		p := student()
		p.Course = "B.Sc Nursing"
		_, reasons := evaluate(p, sch)
		require.Contains(t, reasons, "Matches field of study: nursing")

		p.Course = "B.Com"
		_, reasons = evaluate(p, sch)
		require.NotContains(t, reasons, "Matches field of study: nursing")
	})
}

func TestScoreCapAt100(t *testing.T) {
	// An entry where every rule fires, including both special rules:
	// the raw sum is 110, capped to 100.
	sch := model.Scholarship{
		Name:          "AICTE Saksham Scholarship",
		Category:      model.CategoryMinority,
		Field:         model.FieldGeneral,
		Gender:        "any",
		AgeRange:      [2]int{18, 25},
		IncomeCeiling: 800000,
	}
	p := student()
	p.Category = "Muslim"
	p.Disabilities = []string{"Low vision"}

	score, _ := evaluate(p, sch)
	require.Equal(t, 100, score)
}

func TestScoreDropsZeroAndSorts(t *testing.T) {
	catalog := []model.Scholarship{
		{ID: "first", Name: "First", Gender: "any", AgeRange: [2]int{18, 25}},  // 40
		{ID: "none", Name: "None", Gender: "female", AgeRange: [2]int{30, 40}}, // 0
		{ID: "big", Name: "Big", Gender: "any", AgeRange: [2]int{18, 25}, IncomeCeiling: 800000}, // 60
		{ID: "second", Name: "Second", Gender: "any", AgeRange: [2]int{18, 25}}, // 40
	}
	p := student()
	p.Gender = "male" // rules out the female-only entry entirely
	p.Course = ""     // no field matches

	got := Score(p, catalog)
	require.Len(t, got, 3)
	require.Equal(t, "big", got[0].ID)
	// Ties keep catalog order.
	require.Equal(t, "first", got[1].ID)
	require.Equal(t, "second", got[2].ID)

	// Identical inputs produce identical ordered output.
	again := Score(p, catalog)
	require.Equal(t, got, again)
}

package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

var evalTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestNormalizeDefaults(t *testing.T) {
	got := Normalize(model.StudentProfile{Name: "Asha"}, evalTime)

	require.Equal(t, DefaultCategory, got.Category)
	require.Equal(t, DefaultYearOfStudy, got.YearOfStudy)
	require.Equal(t, model.DBTNotActive, got.DBTStatus)
	require.Empty(t, got.Gender) // unset gender stays a wildcard
	require.Nil(t, got.Age)
}

func TestNormalizeTrimsAndLowercases(t *testing.T) {
	got := Normalize(model.StudentProfile{
		Name:     "  Asha Rao ",
		Email:    " Asha.Rao@Example.COM ",
		Category: " OBC ",
		Course:   " B.Tech Computer Science ",
	}, evalTime)

	require.Equal(t, "Asha Rao", got.Name)
	require.Equal(t, "asha.rao@example.com", got.Email)
	require.Equal(t, "OBC", got.Category)
	require.Equal(t, "B.Tech Computer Science", got.Course)
}

func TestNormalizeAge(t *testing.T) {
	cases := []struct {
		name string
		dob  string
		want *int
	}{
		// Calendar-year subtraction: month and day do not matter.
		{"iso date", "2005-03-15", intp(20)},
		{"birthday not yet reached", "2005-12-31", intp(20)},
		{"indian format", "15/03/2005", intp(20)},
		{"rfc3339", "2005-03-15T00:00:00Z", intp(20)},
		{"empty", "", nil},
		{"garbage", "15th March 2005", nil},
		{"partial", "2005-03", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(model.StudentProfile{DOB: tc.dob}, evalTime)
			if tc.want == nil {
				require.Nil(t, got.Age)
				return
			}
			require.NotNil(t, got.Age)
			require.Equal(t, *tc.want, *got.Age)
		})
	}
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	raw := model.StudentProfile{Disabilities: []string{"Low vision"}}
	got := Normalize(raw, evalTime)

	raw.Disabilities[0] = "changed"
	require.Equal(t, []string{"Low vision"}, got.Disabilities)
}

func TestFromUserData(t *testing.T) {
	got := FromUserData(map[string]any{
		"name":          "Asha Rao",
		"email":         "asha@example.com",
		"category":      "Muslim",
		"dob":           "2004-01-20",
		"course":        "B.Sc Nursing",
		"family_income": "250000", // string-encoded numbers are absorbed
		"dbt_status":    "Active",
	})

	require.Equal(t, "Asha Rao", got.Name)
	require.Equal(t, "Muslim", got.Category)
	require.Equal(t, "B.Sc Nursing", got.Course)
	require.True(t, got.FamilyIncome.Valid)
	require.Equal(t, 250000.0, got.FamilyIncome.Value)
	require.Equal(t, model.DBTActive, got.DBTStatus)
}

func TestFromUserDataUnusableFields(t *testing.T) {
	got := FromUserData(map[string]any{
		"name":          "Asha",
		"family_income": "not a number",
	})
	require.Equal(t, "Asha", got.Name)
	require.False(t, got.FamilyIncome.Valid)
}

func intp(v int) *int { return &v }

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullFloatTolerantDecoding(t *testing.T) {
	cases := []struct {
		name string
		body string
		want NullFloat
	}{
		{"number", `{"family_income": 250000}`, Float(250000)},
		{"quoted number", `{"family_income": "2500.50"}`, Float(2500.50)},
		{"empty string", `{"family_income": ""}`, NullFloat{}},
		{"null", `{"family_income": null}`, NullFloat{}},
		{"non-numeric string", `{"family_income": "unknown"}`, NullFloat{}},
		{"absent", `{}`, NullFloat{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p StudentProfile
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))
			require.Equal(t, tc.want, p.FamilyIncome)
		})
	}
}

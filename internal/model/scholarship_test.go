package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoredMatchPromotesCatalogFields(t *testing.T) {
	m := ScoredMatch{
		Scholarship: Scholarship{
			ID:       "pragati",
			Name:     "AICTE Pragati Scholarship",
			Deadline: "2025-10-31",
		},
		EligibilityScore: 70,
		MatchReasons:     []string{"Matches gender"},
	}

	// Catalog fields read directly off the match.
	require.Equal(t, "pragati", m.ID)
	require.Equal(t, "AICTE Pragati Scholarship", m.Name)
	require.Equal(t, "2025-10-31", m.Deadline)

	// The wire shape keeps the catalog entry nested under its own
	// key, with the score alongside it.
	body, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &out))
	require.Contains(t, out, "scholarship")
	require.Contains(t, out, "eligibility_score")

	var nested Scholarship
	require.NoError(t, json.Unmarshal(out["scholarship"], &nested))
	require.Equal(t, "pragati", nested.ID)
}

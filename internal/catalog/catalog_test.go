package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

func TestLoadEmbedded(t *testing.T) {
	list, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for _, sch := range list {
		require.NotEmpty(t, sch.ID)
		require.NotEmpty(t, sch.Name)
		require.LessOrEqual(t, sch.AgeRange[0], sch.AgeRange[1], "entry %s", sch.ID)
	}

	// The disability award the matcher special-cases must exist.
	var found bool
	for _, sch := range list {
		if sch.Name == "AICTE Saksham Scholarship" {
			found = true
		}
	}
	require.True(t, found)
}

func TestParseRejectsIncompleteEntries(t *testing.T) {
	_, err := parse([]byte(`[{"id": "x"}]`))
	require.Error(t, err)

	_, err = parse([]byte(`not json`))
	require.Error(t, err)
}

func testCatalog() []model.Scholarship {
	return []model.Scholarship{
		{ID: "a", Name: "A", Category: "merit", Field: "general", Gender: "any", AgeRange: [2]int{16, 32}},
		{ID: "b", Name: "B", Category: "technical", Field: "engineering", Gender: "female", AgeRange: [2]int{18, 25}},
		{ID: "c", Name: "C", Category: "minority", Field: "general", Gender: "any", AgeRange: [2]int{26, 35}},
	}
}

func TestFilter(t *testing.T) {
	list := testCatalog()

	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"no filters", Query{}, []string{"a", "b", "c"}},
		{"all keyword", Query{Category: "all", Gender: "All"}, []string{"a", "b", "c"}},
		{"category", Query{Category: "technical"}, []string{"b"}},
		{"category case folded", Query{Category: "Minority"}, []string{"c"}},
		{"field", Query{Field: "engineering"}, []string{"b"}},
		{"gender keeps any-awards", Query{Gender: "male"}, []string{"a", "c"}},
		{"gender female", Query{Gender: "female"}, []string{"a", "b", "c"}},
		{"age band young", Query{AgeBand: "<18"}, []string{"a"}},
		{"age band middle", Query{AgeBand: "18-25"}, []string{"a", "b"}},
		{"age band older", Query{AgeBand: "25+"}, []string{"a", "b", "c"}},
		{"combined", Query{Category: "minority", AgeBand: "25+"}, []string{"c"}},
		{"no match", Query{Category: "technical", Gender: "male"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(list, tc.q)
			ids := make([]string, 0, len(got))
			for _, sch := range got {
				ids = append(ids, sch.ID)
			}
			require.Equal(t, tc.want, ids)
		})
	}
}

func TestFindByID(t *testing.T) {
	list := testCatalog()

	sch, ok := FindByID(list, "b")
	require.True(t, ok)
	require.Equal(t, "B", sch.Name)

	_, ok = FindByID(list, "missing")
	require.False(t, ok)
}

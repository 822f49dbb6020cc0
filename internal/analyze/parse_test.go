package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validResponse = `{
	"summary": "Well kept graphics card",
	"selling_points": ["original box", "under warranty"],
	"score": 78,
	"reasoning": "complete listing with photos",
	"missing_fields": []
}`

func TestParseAnalysis_Valid(t *testing.T) {
	t.Parallel()

	a, err := ParseAnalysis(validResponse)
	require.NoError(t, err)
	require.Equal(t, "Well kept graphics card", a.Summary)
	require.Equal(t, []string{"original box", "under warranty"}, a.SellingPoints)
	require.Equal(t, 78, a.Score)
	require.Empty(t, a.MissingFields)
}

func TestParseAnalysis_StripsCodeFences(t *testing.T) {
	t.Parallel()

	a, err := ParseAnalysis("```json\n" + validResponse + "\n```")
	require.NoError(t, err)
	require.Equal(t, 78, a.Score)
}

func TestParseAnalysis_ExtractsObjectFromProse(t *testing.T) {
	t.Parallel()

	raw := "Sure! Here is the analysis you asked for:\n" + validResponse + "\nLet me know if you need anything else."
	a, err := ParseAnalysis(raw)
	require.NoError(t, err)
	require.Equal(t, 78, a.Score)
}

func TestParseAnalysis_BracesInsideStrings(t *testing.T) {
	t.Parallel()

	raw := `{"summary": "card {8GB}", "selling_points": [], "score": 60, "reasoning": "ok", "missing_fields": []}`
	a, err := ParseAnalysis(raw)
	require.NoError(t, err)
	require.Equal(t, "card {8GB}", a.Summary)
}

func TestParseAnalysis_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"no object", "I could not analyze this listing."},
		{"unbalanced", `{"summary": "x", "score": 50`},
		{"missing summary", `{"selling_points": [], "score": 50, "reasoning": "r", "missing_fields": []}`},
		{"missing score", `{"summary": "s", "selling_points": [], "reasoning": "r", "missing_fields": []}`},
		{"missing reasoning", `{"summary": "s", "selling_points": [], "score": 50, "missing_fields": []}`},
		{"fractional score", `{"summary": "s", "selling_points": [], "score": 72.5, "reasoning": "r", "missing_fields": []}`},
		{"string score", `{"summary": "s", "selling_points": [], "score": "high", "reasoning": "r", "missing_fields": []}`},
		{"score above range", `{"summary": "s", "selling_points": [], "score": 140, "reasoning": "r", "missing_fields": []}`},
		{"score below range", `{"summary": "s", "selling_points": [], "score": -5, "reasoning": "r", "missing_fields": []}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAnalysis(tc.raw)
			require.Error(t, err)
		})
	}
}

func TestCleanJSONBlock(t *testing.T) {
	t.Parallel()

	require.Equal(t, `{"a": 1}`, CleanJSONBlock("```json\n{\"a\": 1}\n```"))
	require.Equal(t, `{"a": 1}`, CleanJSONBlock("```\n{\"a\": 1}\n```"))
	require.Equal(t, `{"a": 1}`, CleanJSONBlock(`{"a": 1}`))
}

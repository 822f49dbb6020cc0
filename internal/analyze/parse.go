package analyze

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the validated verdict for one listing. IsFallback marks a
// verdict computed by the local heuristic rather than the model. At most
// three selling points are kept.
type Analysis struct {
	Summary       string   `json:"summary"`
	SellingPoints []string `json:"selling_points"`
	Score         int      `json:"score"`
	Reasoning     string   `json:"reasoning"`
	MissingFields []string `json:"missing_fields"`
	IsFallback    bool     `json:"is_fallback"`
}

// analysisProbe mirrors Analysis with pointer fields so a missing key can be
// told apart from a zero value. Score staying an int pointer also rejects
// fractional scores at unmarshal time.
type analysisProbe struct {
	Summary       *string   `json:"summary"`
	SellingPoints *[]string `json:"selling_points"`
	Score         *int      `json:"score"`
	Reasoning     *string   `json:"reasoning"`
	MissingFields []string  `json:"missing_fields"`
}

// CleanJSONBlock strips markdown code fences that chat models like to wrap
// around JSON payloads.
func CleanJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first balanced top-level JSON object in s.
// Braces inside strings are skipped, so prose around the object is tolerated.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object")
}

// ParseAnalysis validates a raw model response into an Analysis. It fails on
// missing keys, non-integer scores and scores outside [0, 100]; the error
// message describes the defect so a correction prompt can quote it.
func ParseAnalysis(raw string) (Analysis, error) {
	cleaned := CleanJSONBlock(raw)
	obj, err := ExtractJSONObject(cleaned)
	if err != nil {
		return Analysis{}, err
	}

	var probe analysisProbe
	if err := json.Unmarshal([]byte(obj), &probe); err != nil {
		return Analysis{}, fmt.Errorf("malformed JSON: %w", err)
	}

	switch {
	case probe.Summary == nil:
		return Analysis{}, fmt.Errorf("missing required key %q", "summary")
	case probe.SellingPoints == nil:
		return Analysis{}, fmt.Errorf("missing required key %q", "selling_points")
	case probe.Score == nil:
		return Analysis{}, fmt.Errorf("missing required key %q", "score")
	case probe.Reasoning == nil:
		return Analysis{}, fmt.Errorf("missing required key %q", "reasoning")
	}

	if *probe.Score < 0 || *probe.Score > 100 {
		return Analysis{}, fmt.Errorf("score %d outside [0, 100]", *probe.Score)
	}

	points := *probe.SellingPoints
	if len(points) > 3 {
		points = points[:3]
	}
	missing := probe.MissingFields
	if missing == nil {
		missing = []string{}
	}

	return Analysis{
		Summary:       *probe.Summary,
		SellingPoints: points,
		Score:         *probe.Score,
		Reasoning:     *probe.Reasoning,
		MissingFields: missing,
	}, nil
}

package planner

import (
	"encoding/json"
	"strings"
)

// Plan is the structured output of query planning.
type Plan struct {
	Query       string   `json:"sql_query"`
	Explanation string   `json:"explanation"`
	Parameters  []string `json:"required_parameters"`
}

const (
	fallbackQuery       = "SELECT 1"
	fallbackExplanation = "Error: Could not generate valid query"
)

// sentinelPlan is the harmless no-op plan returned when planning cannot
// produce real SQL.
func sentinelPlan(explanation string) Plan {
	return Plan{
		Query:       fallbackQuery,
		Explanation: explanation,
		Parameters:  []string{},
	}
}

// StripCodeFences removes a leading ```json (or bare ```) fence and a
// trailing ``` fence from a model response.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first balanced {...} block in s, or ""
// when none exists. Braces inside JSON string literals are skipped.
func ExtractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// ParsePlan decodes a model response into a Plan. Malformed responses never
// fail: they produce the sentinel "SELECT 1" plan so callers always have a
// well-formed structure to inspect.
func ParsePlan(raw string) Plan {
	cleaned := StripCodeFences(raw)

	var decoded struct {
		Query       *string  `json:"sql_query"`
		Explanation string   `json:"explanation"`
		Parameters  []string `json:"required_parameters"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return sentinelPlan(fallbackExplanation)
	}

	plan := Plan{
		Explanation: decoded.Explanation,
		Parameters:  decoded.Parameters,
	}
	if decoded.Query != nil {
		plan.Query = strings.TrimSpace(*decoded.Query)
	}
	if plan.Explanation == "" {
		plan.Explanation = "Could not explain due to error."
	}
	if plan.Parameters == nil {
		plan.Parameters = []string{}
	}
	return plan
}

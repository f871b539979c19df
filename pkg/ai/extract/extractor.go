package extract

import (
	"encoding/json"
	"strings"
)

// GeneratedQuery is the structured output contract for SQL generation.
// Models are instructed to reply with this JSON shape, but replies arrive
// as free text and frequently carry markdown fences around the payload.
type GeneratedQuery struct {
	SQL         string   `json:"sql"`
	Explanation string   `json:"explanation"`
	TablesUsed  []string `json:"tables_used"`
}

// StripFences removes a single leading/trailing markdown code fence
// (``` or ```lang) from the text, if present.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		// Drop the opening fence line, language tag included
		if idx := strings.Index(cleaned, "\n"); idx != -1 {
			cleaned = cleaned[idx+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "```")
		}
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = cleaned[:len(cleaned)-3]
	}

	return strings.TrimSpace(cleaned)
}

// ParseGeneratedQuery parses a model reply into a GeneratedQuery.
// Strict path: strip fences, unmarshal JSON, require a non-empty "sql" key.
// Returns ok=false when the reply is not parseable as the JSON contract;
// callers then fall back to ExtractCodeBlock.
func ParseGeneratedQuery(text string) (*GeneratedQuery, bool) {
	cleaned := StripFences(text)

	var result GeneratedQuery
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, false
	}
	if strings.TrimSpace(result.SQL) == "" {
		return nil, false
	}
	return &result, true
}

// ExtractCodeBlock pulls the contents of the first markdown code block,
// preferring a ```sql block. If the text has no fences at all it is
// returned trimmed, on the assumption the model answered with bare SQL.
func ExtractCodeBlock(text string) string {
	if idx := strings.Index(text, "```sql"); idx != -1 {
		start := idx + len("```sql")
		if end := strings.Index(text[start:], "```"); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	if idx := strings.Index(text, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(text[start:], "```"); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	return strings.TrimSpace(text)
}

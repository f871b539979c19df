package catalog

import "strings"

// Summary is the parsed form of an LLM-generated table summary.
type Summary struct {
	Description     string
	BusinessContext string
	SampleQuestions []string
}

// ParseSummary extracts the labeled sections from the model's response.
// Expected line format:
//
//	DESCRIPTION: <text>
//	BUSINESS_CONTEXT: <text>
//	SAMPLE_QUESTIONS: <q1> | <q2> | <q3>
//
// Returns false when no DESCRIPTION line is present.
func ParseSummary(text string) (*Summary, bool) {
	summary := &Summary{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "DESCRIPTION:"):
			summary.Description = strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:"))
		case strings.HasPrefix(line, "BUSINESS_CONTEXT:"):
			summary.BusinessContext = strings.TrimSpace(strings.TrimPrefix(line, "BUSINESS_CONTEXT:"))
		case strings.HasPrefix(line, "SAMPLE_QUESTIONS:"):
			raw := strings.TrimPrefix(line, "SAMPLE_QUESTIONS:")
			for _, q := range strings.Split(raw, "|") {
				q = strings.TrimSpace(q)
				if q != "" {
					summary.SampleQuestions = append(summary.SampleQuestions, q)
				}
			}
		}
	}

	if summary.Description == "" {
		return nil, false
	}
	return summary, true
}

// extractKeywords pulls searchable words out of a question for the
// keyword-match discovery tier.
func extractKeywords(question string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if len(word) > 3 && !stopwords[word] {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

var stopwords = map[string]bool{
	"what": true, "which": true, "where": true, "when": true, "whose": true,
	"this": true, "that": true, "these": true, "those": true,
	"have": true, "does": true, "with": true, "from": true, "about": true,
	"show": true, "list": true, "give": true, "tell": true, "find": true,
	"many": true, "much": true, "there": true, "their": true,
}

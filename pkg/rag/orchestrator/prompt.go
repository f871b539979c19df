package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"
)

const routingSystemPrompt = `You are a query router for a company knowledge system. Decide which data sources can answer the user's question and call the matching tools.

- Call query_structured_data for questions about records, counts, totals, or metrics stored in database tables.
- Call search_unstructured_documents for questions about policies, procedures, reports, or other written documents.
- Call both tools when the question needs both kinds of information.
- If the question needs neither (greetings, chit-chat), answer directly without calling any tool.`

const synthesisSystemPrompt = `You are a helpful assistant. Answer the user's question using only the provided context. Be concise and factual. If the context does not contain the answer, say so.`

func buildSynthesisPrompt(question, contextBlock string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)
}

// buildContextBlock renders the successful retrieval results as synthesis
// context. Failed or empty paths contribute nothing.
func buildContextBlock(results *ExecutionResults) string {
	var sections []string

	if s := results.Structured; s != nil && s.Success && s.Result != nil && s.Result.RowCount > 0 {
		var b strings.Builder
		b.WriteString("Database query results")
		if s.Result.Explanation != "" {
			fmt.Fprintf(&b, " (%s)", s.Result.Explanation)
		}
		b.WriteString(":\n")
		fmt.Fprintf(&b, "Query: %s\n", s.Result.SQL)
		if len(s.Result.TablesUsed) > 0 {
			fmt.Fprintf(&b, "Tables used: %s\n", strings.Join(s.Result.TablesUsed, ", "))
		}
		for _, row := range s.Result.Rows {
			raw, err := json.Marshal(row)
			if err != nil {
				continue
			}
			b.Write(raw)
			b.WriteString("\n")
		}
		sections = append(sections, b.String())
	}

	if u := results.Unstructured; u != nil && u.Success && len(u.Matches) > 0 {
		var b strings.Builder
		b.WriteString("Relevant documents:\n")
		for i, m := range u.Matches {
			fmt.Fprintf(&b, "[%d] (similarity %.2f) %s\n", i+1, m.Similarity, m.Content)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n")
}

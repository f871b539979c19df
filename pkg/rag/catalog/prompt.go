package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

const summarySystemPrompt = `You are a database analyst. Given a table's column definitions and sample rows, produce a concise summary of what the table stores and how a business would use it.

Respond with exactly three lines in this format:
DESCRIPTION: <one or two sentences describing the table's contents>
BUSINESS_CONTEXT: <one sentence on how the business uses this data>
SAMPLE_QUESTIONS: <question 1> | <question 2> | <question 3>

Do not add any other text.`

func buildSummaryPrompt(tableName, columns string, sampleRows []map[string]interface{}) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Table: %s\n\nColumns:\n%s\n", tableName, columns)

	if len(sampleRows) > 0 {
		b.WriteString("\nSample rows:\n")
		for _, row := range sampleRows {
			raw, err := json.Marshal(row)
			if err != nil {
				continue
			}
			b.Write(raw)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// fallbackDescription is used when the LLM cannot produce a summary, so the
// table still becomes discoverable by name.
func fallbackDescription(tableName string) string {
	return fmt.Sprintf("Database table: %s", tableName)
}

// embeddingText composes the text whose embedding drives semantic table
// discovery.
func embeddingText(tableName, description, businessContext string, questions []string) string {
	parts := []string{fmt.Sprintf("Table %s: %s", tableName, description)}
	if businessContext != "" {
		parts = append(parts, businessContext)
	}
	if len(questions) > 0 {
		parts = append(parts, strings.Join(questions, " "))
	}
	return strings.Join(parts, " ")
}

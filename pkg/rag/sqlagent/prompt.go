package sqlagent

import (
	"fmt"
	"strings"

	"db-rag-be/internal/entity"
)

const generateSystemPrompt = `You are a PostgreSQL expert. Generate a single SELECT query that answers the user's question using only the tables described below.

Rules:
- Only SELECT statements. Never modify data.
- Use only tables and columns that appear in the schema context.
- Prefer explicit column lists over SELECT *.
- Add LIMIT when the question does not ask for an aggregate.

Respond with JSON only, in this exact shape:
{"sql": "<the query>", "explanation": "<one sentence>", "tables_used": ["<table>", ...]}`

func buildGenerationPrompt(question string, tables []*entity.TableCatalogEntry) string {
	var b strings.Builder

	b.WriteString("Schema context:\n\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "Table: %s\n", t.TableName)
		if t.TableDescription != "" {
			fmt.Fprintf(&b, "Description: %s\n", t.TableDescription)
		}
		if t.BusinessContext != "" {
			fmt.Fprintf(&b, "Business context: %s\n", t.BusinessContext)
		}
		fmt.Fprintf(&b, "Columns:\n%s\n", t.ColumnDefinitions)
	}

	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

package contract

import "context"

// SchemaRepository introspects and queries the business schema directly,
// outside the GORM model layer.
type SchemaRepository interface {
	// ListTables returns all user tables in the public schema, minus the
	// excluded ones (the RAG system's own tables).
	ListTables(ctx context.Context, exclude []string) ([]string, error)
	// DescribeTable renders the table's column definitions as text.
	DescribeTable(ctx context.Context, tableName string) (string, error)
	// SampleRows fetches up to limit rows for catalog generation context.
	SampleRows(ctx context.Context, tableName string, limit int) ([]map[string]interface{}, error)
	// ValidateQuery checks a SELECT statement without executing it, using
	// EXPLAIN inside a transaction that is always rolled back.
	ValidateQuery(ctx context.Context, query string) error
	// ExecuteQuery runs a SELECT and returns column-keyed rows, capped at
	// maxRows.
	ExecuteQuery(ctx context.Context, query string, maxRows int) ([]map[string]interface{}, error)
}

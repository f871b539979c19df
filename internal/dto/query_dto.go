package dto

type QueryRequest struct {
	Question string `json:"question" validate:"required,min=3"`
	// Mode forces a single retrieval path: "auto" (default), "sql", "vector".
	Mode string `json:"mode" validate:"omitempty,oneof=auto sql vector"`
}

// StructuredResult reports the SQL path's own outcome: a failed path is
// still present with Success false and its error text.
type StructuredResult struct {
	Success     bool                     `json:"success"`
	Error       string                   `json:"error,omitempty"`
	SQL         string                   `json:"sql,omitempty"`
	Explanation string                   `json:"explanation,omitempty"`
	TablesUsed  []string                 `json:"tables_used,omitempty"`
	Rows        []map[string]interface{} `json:"rows,omitempty"`
	RowCount    int                      `json:"row_count"`
}

type DocumentMatch struct {
	Id         string                 `json:"id"`
	Content    string                 `json:"content"`
	Similarity float64                `json:"similarity"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// UnstructuredResult reports the document path's own outcome, failed or not.
type UnstructuredResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Matches []DocumentMatch `json:"matches"`
}

type QueryResponse struct {
	Success      bool                `json:"success"`
	Answer       string              `json:"answer"`
	Error        string              `json:"error,omitempty"`
	ToolsUsed    []string            `json:"tools_used"`
	Structured   *StructuredResult   `json:"structured,omitempty"`
	Unstructured *UnstructuredResult `json:"unstructured,omitempty"`
	ElapsedMs    int64               `json:"elapsed_ms"`
}

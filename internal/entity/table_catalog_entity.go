package entity

import "time"

// TableCatalogEntry describes one business table: its raw column definitions
// plus the LLM-generated summary used for semantic table discovery.
type TableCatalogEntry struct {
	Id                   uint
	TableName            string
	ColumnDefinitions    string
	TableDescription     string
	BusinessContext      string
	SampleQuestions      []string
	DescriptionEmbedding []float32
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

package dto

import "time"

type SyncCatalogRequest struct {
	// TableName limits the sync to one table; empty means all tables.
	TableName string `json:"table_name"`
	// Force regenerates entries even when the schema is unchanged.
	Force bool `json:"force"`
}

type SyncCatalogResponse struct {
	Synced int      `json:"synced"`
	Failed []string `json:"failed,omitempty"`
}

type CatalogEntryResponse struct {
	TableName        string    `json:"table_name"`
	TableDescription string    `json:"table_description"`
	BusinessContext  string    `json:"business_context,omitempty"`
	SampleQuestions  []string  `json:"sample_questions,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ListCatalogResponse struct {
	Entries []CatalogEntryResponse `json:"entries"`
	Total   int64                  `json:"total"`
}

package dto

import "time"

// IngestDocumentMessage is the queue payload for async ingestion.
type IngestDocumentMessage struct {
	Content      string                 `json:"content"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	ChunkSize    int                    `json:"chunk_size"`
	ChunkOverlap int                    `json:"chunk_overlap"`
}

type IngestDocumentRequest struct {
	Content  string                 `json:"content" validate:"required,min=1"`
	Metadata map[string]interface{} `json:"metadata"`
}

type IngestDocumentResponse struct {
	Queued bool `json:"queued"`
}

type DocumentResponse struct {
	Id        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int64              `json:"total"`
}

type SearchDocumentsRequest struct {
	Query    string                 `json:"query" validate:"required,min=1"`
	Limit    int                    `json:"limit" validate:"omitempty,min=1,max=50"`
	Metadata map[string]interface{} `json:"metadata"`
}

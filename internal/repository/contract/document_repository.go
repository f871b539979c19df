package contract

import (
	"context"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocument wraps a Document with its cosine similarity score
type ScoredDocument struct {
	Document   *entity.Document
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentRepository interface {
	// EnsureTable creates the documents table if it does not exist.
	EnsureTable(ctx context.Context) error
	Create(ctx context.Context, document *entity.Document) error
	CreateBulk(ctx context.Context, documents []*entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns the nearest documents with their
	// similarity scores, optionally constrained by a JSONB metadata filter.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, metadataFilter map[string]interface{}) ([]*ScoredDocument, error)
}

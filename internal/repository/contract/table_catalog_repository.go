package contract

import (
	"context"

	"db-rag-be/internal/entity"
)

// ScoredTableCatalogEntry wraps a catalog entry with its similarity score.
// Keyword and fallback matches carry pinned scores so callers can rank
// mixed results uniformly.
type ScoredTableCatalogEntry struct {
	Entry      *entity.TableCatalogEntry
	Similarity float64
}

type TableCatalogRepository interface {
	// EnsureTable creates the catalog table if it does not exist.
	EnsureTable(ctx context.Context) error
	FindByName(ctx context.Context, tableName string) (*entity.TableCatalogEntry, error)
	FindAll(ctx context.Context) ([]*entity.TableCatalogEntry, error)
	// Upsert inserts or replaces the entry keyed by table name.
	Upsert(ctx context.Context, entry *entity.TableCatalogEntry) error
	DeleteByName(ctx context.Context, tableName string) error
	Count(ctx context.Context) (int64, error)
	// SearchSimilarWithScore returns entries whose description embedding is
	// within the similarity threshold of the query embedding.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredTableCatalogEntry, error)
	// SearchKeyword matches table names and descriptions case-insensitively.
	SearchKeyword(ctx context.Context, keywords []string, limit int) ([]*entity.TableCatalogEntry, error)
	// FindAny returns up to limit arbitrary entries.
	FindAny(ctx context.Context, limit int) ([]*entity.TableCatalogEntry, error)
}

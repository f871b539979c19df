package vectoragent

import (
	"context"
	"fmt"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/pkg/embedding"
	"db-rag-be/pkg/rag/ragerr"
)

type Config struct {
	MaxResults int
}

// Match is one retrieved document with its cosine similarity.
type Match struct {
	Id         string
	Content    string
	Metadata   map[string]interface{}
	Similarity float64
}

// Agent retrieves documents by embedding the query and running cosine
// similarity search over the document store.
type Agent struct {
	documentRepo contract.DocumentRepository
	embedder     embedding.EmbeddingProvider
	log          logger.ILogger
	cfg          Config
}

func NewAgent(
	documentRepo contract.DocumentRepository,
	embedder embedding.EmbeddingProvider,
	log logger.ILogger,
	cfg Config,
) *Agent {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}

	return &Agent{
		documentRepo: documentRepo,
		embedder:     embedder,
		log:          log,
		cfg:          cfg,
	}
}

// EnsureDocumentsTable creates the backing table if needed. Idempotent.
func (a *Agent) EnsureDocumentsTable(ctx context.Context) error {
	return a.documentRepo.EnsureTable(ctx)
}

// AddDocument embeds and stores one document, returning its generated id.
func (a *Agent) AddDocument(ctx context.Context, content string, metadata map[string]interface{}) (string, error) {
	embedRes, err := a.embedder.Generate(ctx, content, embedding.TaskRetrievalDocument)
	if err != nil {
		return "", fmt.Errorf("%w: embed document: %v", ragerr.ErrProvider, err)
	}

	doc := &entity.Document{
		Content:   content,
		Metadata:  metadata,
		Embedding: embedRes.Embedding.Values,
	}
	if err := a.documentRepo.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}

	a.log.Info("vectoragent", "Document added", map[string]interface{}{
		"id": doc.Id.String(),
	})
	return doc.Id.String(), nil
}

// Search returns the documents nearest to the query. An empty store yields
// an empty slice, not an error; a failed embedding is a hard error since
// no retrieval is possible without it.
func (a *Agent) Search(ctx context.Context, query string, limit int, metadataFilter map[string]interface{}) ([]Match, error) {
	if limit <= 0 {
		limit = a.cfg.MaxResults
	}

	embedRes, err := a.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ragerr.ErrProvider, err)
	}

	scored, err := a.documentRepo.SearchSimilarWithScore(ctx, embedRes.Embedding.Values, limit, metadataFilter)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]Match, len(scored))
	for i, s := range scored {
		matches[i] = Match{
			Id:         s.Document.Id.String(),
			Content:    s.Document.Content,
			Metadata:   s.Document.Metadata,
			Similarity: s.Similarity,
		}
	}

	a.log.Debug("vectoragent", "Search complete", map[string]interface{}{
		"query":   query,
		"matches": len(matches),
	})
	return matches, nil
}

// Count reports the number of stored documents.
func (a *Agent) Count(ctx context.Context) (int64, error) {
	return a.documentRepo.Count(ctx)
}

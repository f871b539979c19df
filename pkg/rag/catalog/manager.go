package catalog

import (
	"context"
	"fmt"
	"time"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/pkg/embedding"
	"db-rag-be/pkg/llm"
	"db-rag-be/pkg/rag/ragerr"

	gocache "github.com/patrickmn/go-cache"
)

// SelfTables are the system's own tables, always excluded from cataloging.
var SelfTables = []string{"table_metadata_catalog", "company_documents"}

// Similarity scores pinned onto non-vector discovery tiers so mixed results
// rank uniformly.
const (
	keywordMatchScore  = 0.5
	fallbackMatchScore = 0.3
)

type Config struct {
	MaxContextTables    int
	SimilarityThreshold float64
	SampleRowLimit      int
}

// Manager maintains the table metadata catalog: LLM-generated summaries of
// every business table, embedded for semantic discovery.
type Manager struct {
	catalogRepo contract.TableCatalogRepository
	schemaRepo  contract.SchemaRepository
	llm         llm.LLMProvider
	embedder    embedding.EmbeddingProvider
	log         logger.ILogger
	cache       *gocache.Cache
	cfg         Config
}

func NewManager(
	catalogRepo contract.TableCatalogRepository,
	schemaRepo contract.SchemaRepository,
	llmProvider llm.LLMProvider,
	embedder embedding.EmbeddingProvider,
	log logger.ILogger,
	cfg Config,
) *Manager {
	if cfg.MaxContextTables <= 0 {
		cfg.MaxContextTables = 5
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.3
	}
	if cfg.SampleRowLimit <= 0 {
		cfg.SampleRowLimit = 3
	}

	return &Manager{
		catalogRepo: catalogRepo,
		schemaRepo:  schemaRepo,
		llm:         llmProvider,
		embedder:    embedder,
		log:         log,
		cache:       gocache.New(5*time.Minute, 10*time.Minute),
		cfg:         cfg,
	}
}

// EnsureCatalogTable creates the catalog table if needed. Idempotent.
func (m *Manager) EnsureCatalogTable(ctx context.Context) error {
	return m.catalogRepo.EnsureTable(ctx)
}

// SyncTable regenerates the catalog entry for one table. Unless force is
// set, an existing entry with unchanged column definitions is left alone.
func (m *Manager) SyncTable(ctx context.Context, tableName string, force bool) error {
	columns, err := m.schemaRepo.DescribeTable(ctx, tableName)
	if err != nil {
		return fmt.Errorf("describe table %s: %w", tableName, err)
	}

	if !force {
		existing, err := m.catalogRepo.FindByName(ctx, tableName)
		if err != nil {
			return err
		}
		if existing != nil && existing.ColumnDefinitions == columns {
			m.log.Debug("catalog", "Table unchanged, skipping sync", map[string]interface{}{
				"table": tableName,
			})
			return nil
		}
	}

	sampleRows, err := m.schemaRepo.SampleRows(ctx, tableName, m.cfg.SampleRowLimit)
	if err != nil {
		// Sample rows only enrich the prompt
		m.log.Warn("catalog", "Failed to fetch sample rows", map[string]interface{}{
			"table": tableName,
			"error": err.Error(),
		})
		sampleRows = nil
	}

	summary := m.generateSummary(ctx, tableName, columns, sampleRows)

	embedText := embeddingText(tableName, summary.Description, summary.BusinessContext, summary.SampleQuestions)
	embedRes, err := m.embedder.Generate(ctx, embedText, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("embed catalog entry for %s: %w", tableName, err)
	}

	entry := &entity.TableCatalogEntry{
		TableName:            tableName,
		ColumnDefinitions:    columns,
		TableDescription:     summary.Description,
		BusinessContext:      summary.BusinessContext,
		SampleQuestions:      summary.SampleQuestions,
		DescriptionEmbedding: embedRes.Embedding.Values,
	}

	if err := m.catalogRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("upsert catalog entry for %s: %w", tableName, err)
	}

	m.cache.Delete(tableName)

	m.log.Info("catalog", "Table synced", map[string]interface{}{
		"table": tableName,
	})
	return nil
}

// generateSummary asks the LLM for a table summary, degrading to a bare
// fallback description when the model fails or responds off-format.
func (m *Manager) generateSummary(ctx context.Context, tableName, columns string, sampleRows []map[string]interface{}) *Summary {
	history := []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: buildSummaryPrompt(tableName, columns, sampleRows)},
	}

	response, err := m.llm.Chat(ctx, history, llm.WithTemperature(0.0))
	if err != nil {
		m.log.Warn("catalog", "LLM summary generation failed, using fallback", map[string]interface{}{
			"table": tableName,
			"error": err.Error(),
		})
		return &Summary{Description: fallbackDescription(tableName)}
	}

	summary, ok := ParseSummary(response)
	if !ok {
		m.log.Warn("catalog", "Unparseable LLM summary, using fallback", map[string]interface{}{
			"table": tableName,
		})
		return &Summary{Description: fallbackDescription(tableName)}
	}
	return summary
}

// Count reports the number of cataloged tables.
func (m *Manager) Count(ctx context.Context) (int64, error) {
	return m.catalogRepo.Count(ctx)
}

// SyncAll catalogs every business table. Individual failures are collected
// rather than aborting the run.
func (m *Manager) SyncAll(ctx context.Context, force bool) (int, []string, error) {
	tables, err := m.schemaRepo.ListTables(ctx, SelfTables)
	if err != nil {
		return 0, nil, fmt.Errorf("list tables: %w", err)
	}

	synced := 0
	var failed []string
	for _, table := range tables {
		if err := m.SyncTable(ctx, table, force); err != nil {
			m.log.Error("catalog", "Table sync failed", map[string]interface{}{
				"table": table,
				"error": err.Error(),
			})
			failed = append(failed, table)
			continue
		}
		synced++
	}

	return synced, failed, nil
}

// DiscoverTables finds catalog entries relevant to a question. Three tiers:
// vector similarity over description embeddings, then case-insensitive
// keyword match, then arbitrary entries so generation always has context.
func (m *Manager) DiscoverTables(ctx context.Context, question string, limit int) ([]*contract.ScoredTableCatalogEntry, error) {
	if limit <= 0 {
		limit = m.cfg.MaxContextTables
	}

	embedRes, err := m.embedder.Generate(ctx, question, embedding.TaskRetrievalQuery)
	if err == nil {
		scored, serr := m.catalogRepo.SearchSimilarWithScore(ctx, embedRes.Embedding.Values, limit, m.cfg.SimilarityThreshold)
		if serr != nil {
			return nil, serr
		}
		if len(scored) > 0 {
			return scored, nil
		}
	} else {
		m.log.Warn("catalog", "Question embedding failed, falling back to keyword discovery", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries, err := m.catalogRepo.SearchKeyword(ctx, extractKeywords(question), limit)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return pinScores(entries, keywordMatchScore), nil
	}

	entries, err = m.catalogRepo.FindAny(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ragerr.ErrNoRelevantTables
	}
	return pinScores(entries, fallbackMatchScore), nil
}

// GetTableMetadata returns one catalog entry, cached briefly since query
// generation reads the same entries repeatedly.
func (m *Manager) GetTableMetadata(ctx context.Context, tableName string) (*entity.TableCatalogEntry, error) {
	if cached, found := m.cache.Get(tableName); found {
		return cached.(*entity.TableCatalogEntry), nil
	}

	entry, err := m.catalogRepo.FindByName(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		m.cache.Set(tableName, entry, gocache.DefaultExpiration)
	}
	return entry, nil
}

func pinScores(entries []*entity.TableCatalogEntry, score float64) []*contract.ScoredTableCatalogEntry {
	scored := make([]*contract.ScoredTableCatalogEntry, len(entries))
	for i, e := range entries {
		scored[i] = &contract.ScoredTableCatalogEntry{Entry: e, Similarity: score}
	}
	return scored
}

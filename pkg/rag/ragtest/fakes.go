// Package ragtest provides in-memory fakes for the retrieval stack, used
// by the catalog, agent, and orchestrator tests.
package ragtest

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/internal/repository/specification"
	"db-rag-be/pkg/embedding"
	"db-rag-be/pkg/llm"

	"github.com/google/uuid"
)

// NopLogger satisfies logger.ILogger and discards everything.
type NopLogger struct{}

func (NopLogger) Debug(module, message string, details map[string]interface{}) {}
func (NopLogger) Info(module, message string, details map[string]interface{})  {}
func (NopLogger) Warn(module, message string, details map[string]interface{})  {}
func (NopLogger) Error(module, message string, details map[string]interface{}) {}
func (NopLogger) Sync() error                                                  { return nil }

// FakeEmbedder produces deterministic unit vectors derived from the text,
// so identical texts embed identically and similarity is reproducible.
type FakeEmbedder struct {
	Dim  int
	Err  error
	Call int
}

func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{Dim: 8}
}

func (f *FakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.Call++
	if f.Err != nil {
		return nil, f.Err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingValues{Values: DeterministicVector(text, f.Dim)},
	}, nil
}

func (f *FakeEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*embedding.EmbeddingResponse, error) {
	responses := make([]*embedding.EmbeddingResponse, len(texts))
	for i, text := range texts {
		res, err := f.Generate(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		responses[i] = res
	}
	return responses, nil
}

// DeterministicVector hashes text into a normalized vector.
func DeterministicVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	var norm float64
	for i := 0; i < dim; i++ {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%s", i, text)
		v := float32(h.Sum32()%1000) / 1000.0
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / math.Sqrt(norm))
		}
	}
	return vec
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// FakeLLM replays scripted chat responses and tool results in order.
type FakeLLM struct {
	Responses   []string
	ToolResults []*llm.ToolResult
	ChatErr     error
	ToolErr     error

	ChatCalls []string
	ToolCalls int

	chatIdx int
	toolIdx int
}

func (f *FakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.ChatCalls = append(f.ChatCalls, history[len(history)-1].Content)
	}
	if f.ChatErr != nil {
		return "", f.ChatErr
	}
	if f.chatIdx >= len(f.Responses) {
		return "", fmt.Errorf("fake llm: no scripted response for call %d", f.chatIdx+1)
	}
	res := f.Responses[f.chatIdx]
	f.chatIdx++
	return res, nil
}

func (f *FakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (f *FakeLLM) ChatWithTools(ctx context.Context, history []llm.Message, tools []llm.Tool, options ...llm.Option) (*llm.ToolResult, error) {
	f.ToolCalls++
	if f.ToolErr != nil {
		return nil, f.ToolErr
	}
	if f.toolIdx >= len(f.ToolResults) {
		return nil, fmt.Errorf("fake llm: no scripted tool result for call %d", f.toolIdx+1)
	}
	res := f.ToolResults[f.toolIdx]
	f.toolIdx++
	return res, nil
}

// FakeCatalogRepo is an in-memory TableCatalogRepository.
type FakeCatalogRepo struct {
	Entries map[string]*entity.TableCatalogEntry
	nextId  uint
}

func NewFakeCatalogRepo() *FakeCatalogRepo {
	return &FakeCatalogRepo{Entries: make(map[string]*entity.TableCatalogEntry)}
}

func (f *FakeCatalogRepo) EnsureTable(ctx context.Context) error { return nil }

func (f *FakeCatalogRepo) FindByName(ctx context.Context, tableName string) (*entity.TableCatalogEntry, error) {
	e, ok := f.Entries[tableName]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *FakeCatalogRepo) FindAll(ctx context.Context) ([]*entity.TableCatalogEntry, error) {
	names := make([]string, 0, len(f.Entries))
	for name := range f.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*entity.TableCatalogEntry, len(names))
	for i, name := range names {
		cp := *f.Entries[name]
		out[i] = &cp
	}
	return out, nil
}

func (f *FakeCatalogRepo) Upsert(ctx context.Context, entry *entity.TableCatalogEntry) error {
	if existing, ok := f.Entries[entry.TableName]; ok {
		entry.Id = existing.Id
	} else {
		f.nextId++
		entry.Id = f.nextId
	}
	cp := *entry
	f.Entries[entry.TableName] = &cp
	return nil
}

func (f *FakeCatalogRepo) DeleteByName(ctx context.Context, tableName string) error {
	delete(f.Entries, tableName)
	return nil
}

func (f *FakeCatalogRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.Entries)), nil
}

func (f *FakeCatalogRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, threshold float64) ([]*contract.ScoredTableCatalogEntry, error) {
	var scored []*contract.ScoredTableCatalogEntry
	for _, e := range f.Entries {
		if len(e.DescriptionEmbedding) == 0 {
			continue
		}
		sim := cosine(emb, e.DescriptionEmbedding)
		if sim > threshold {
			cp := *e
			scored = append(scored, &contract.ScoredTableCatalogEntry{Entry: &cp, Similarity: sim})
		}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (f *FakeCatalogRepo) SearchKeyword(ctx context.Context, keywords []string, limit int) ([]*entity.TableCatalogEntry, error) {
	var out []*entity.TableCatalogEntry
	all, _ := f.FindAll(ctx)
	for _, e := range all {
		haystack := strings.ToLower(e.TableName + " " + e.TableDescription + " " + e.BusinessContext + " " + e.ColumnDefinitions)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
				out = append(out, e)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *FakeCatalogRepo) FindAny(ctx context.Context, limit int) ([]*entity.TableCatalogEntry, error) {
	all, _ := f.FindAll(ctx)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// FakeSchemaRepo is an in-memory SchemaRepository backed by static fixtures.
type FakeSchemaRepo struct {
	Tables       map[string]string                   // name -> column definitions
	Samples      map[string][]map[string]interface{} // name -> sample rows
	Rows         []map[string]interface{}            // returned by ExecuteQuery
	DescribeErrs map[string]error                    // per-table introspection failures
	ValidateErr  error
	ExecuteErr   error

	ValidatedQueries []string
	ExecutedQueries  []string
}

func NewFakeSchemaRepo() *FakeSchemaRepo {
	return &FakeSchemaRepo{
		Tables:  make(map[string]string),
		Samples: make(map[string][]map[string]interface{}),
	}
}

func (f *FakeSchemaRepo) ListTables(ctx context.Context, exclude []string) ([]string, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, t := range exclude {
		excluded[t] = true
	}
	var names []string
	for name := range f.Tables {
		if !excluded[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeSchemaRepo) DescribeTable(ctx context.Context, tableName string) (string, error) {
	if err, ok := f.DescribeErrs[tableName]; ok {
		return "", err
	}
	columns, ok := f.Tables[tableName]
	if !ok {
		return "", fmt.Errorf("table %q not found", tableName)
	}
	return columns, nil
}

func (f *FakeSchemaRepo) SampleRows(ctx context.Context, tableName string, limit int) ([]map[string]interface{}, error) {
	rows := f.Samples[tableName]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *FakeSchemaRepo) ValidateQuery(ctx context.Context, query string) error {
	f.ValidatedQueries = append(f.ValidatedQueries, query)
	return f.ValidateErr
}

func (f *FakeSchemaRepo) ExecuteQuery(ctx context.Context, query string, maxRows int) ([]map[string]interface{}, error) {
	f.ExecutedQueries = append(f.ExecutedQueries, query)
	if f.ExecuteErr != nil {
		return nil, f.ExecuteErr
	}
	rows := f.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, nil
}

// FakeDocumentRepo is an in-memory DocumentRepository.
type FakeDocumentRepo struct {
	Documents []*entity.Document
	CreateErr error
	SearchErr error
}

func NewFakeDocumentRepo() *FakeDocumentRepo {
	return &FakeDocumentRepo{}
}

func (f *FakeDocumentRepo) EnsureTable(ctx context.Context) error { return nil }

func (f *FakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	if document.Id == uuid.Nil {
		document.Id = uuid.New()
	}
	cp := *document
	f.Documents = append(f.Documents, &cp)
	return nil
}

func (f *FakeDocumentRepo) CreateBulk(ctx context.Context, documents []*entity.Document) error {
	for _, d := range documents {
		if err := f.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, d := range f.Documents {
		if d.Id == id {
			f.Documents = append(f.Documents[:i], f.Documents[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *FakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	if len(f.Documents) == 0 {
		return nil, nil
	}
	cp := *f.Documents[0]
	return &cp, nil
}

func (f *FakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	out := make([]*entity.Document, len(f.Documents))
	for i, d := range f.Documents {
		cp := *d
		out[i] = &cp
	}
	return out, nil
}

func (f *FakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.Documents)), nil
}

func (f *FakeDocumentRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, metadataFilter map[string]interface{}) ([]*contract.ScoredDocument, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	var scored []*contract.ScoredDocument
	for _, d := range f.Documents {
		if !metadataMatches(d.Metadata, metadataFilter) {
			continue
		}
		cp := *d
		scored = append(scored, &contract.ScoredDocument{
			Document:   &cp,
			Similarity: cosine(emb, d.Embedding),
		})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func metadataMatches(metadata, filter map[string]interface{}) bool {
	for k, v := range filter {
		if metadata == nil || metadata[k] != v {
			return false
		}
	}
	return true
}

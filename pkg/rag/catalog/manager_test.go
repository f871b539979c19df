package catalog

import (
	"context"
	"errors"
	"testing"

	"db-rag-be/internal/entity"
	"db-rag-be/pkg/rag/ragerr"
	"db-rag-be/pkg/rag/ragtest"
)

const ordersColumns = "id integer NOT NULL\ncustomer_id integer NOT NULL\ntotal numeric\n"

const ordersSummary = `DESCRIPTION: Customer orders with totals and timestamps.
BUSINESS_CONTEXT: Used by sales to track revenue.
SAMPLE_QUESTIONS: How many orders last month? | What is total revenue? | Who are the top customers?`

func newTestManager(llmFake *ragtest.FakeLLM, embedder *ragtest.FakeEmbedder) (*Manager, *ragtest.FakeCatalogRepo, *ragtest.FakeSchemaRepo) {
	catalogRepo := ragtest.NewFakeCatalogRepo()
	schemaRepo := ragtest.NewFakeSchemaRepo()
	m := NewManager(catalogRepo, schemaRepo, llmFake, embedder, ragtest.NopLogger{}, Config{})
	return m, catalogRepo, schemaRepo
}

func TestSyncTableCreatesEntry(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{ordersSummary}}
	m, catalogRepo, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns

	if err := m.SyncTable(context.Background(), "orders", false); err != nil {
		t.Fatalf("SyncTable() error = %v", err)
	}

	entry, _ := catalogRepo.FindByName(context.Background(), "orders")
	if entry == nil {
		t.Fatal("expected catalog entry for orders")
	}
	if entry.TableDescription != "Customer orders with totals and timestamps." {
		t.Errorf("unexpected description: %q", entry.TableDescription)
	}
	if entry.BusinessContext != "Used by sales to track revenue." {
		t.Errorf("unexpected business context: %q", entry.BusinessContext)
	}
	if len(entry.SampleQuestions) != 3 {
		t.Errorf("expected 3 sample questions, got %d", len(entry.SampleQuestions))
	}
	if len(entry.DescriptionEmbedding) == 0 {
		t.Error("expected description embedding to be populated")
	}
}

func TestSyncTableSkipsUnchangedSchema(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{ordersSummary, ordersSummary}}
	m, _, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns

	if err := m.SyncTable(context.Background(), "orders", false); err != nil {
		t.Fatalf("first SyncTable() error = %v", err)
	}
	if err := m.SyncTable(context.Background(), "orders", false); err != nil {
		t.Fatalf("second SyncTable() error = %v", err)
	}

	if len(llmFake.ChatCalls) != 1 {
		t.Errorf("expected 1 LLM call for unchanged schema, got %d", len(llmFake.ChatCalls))
	}
}

func TestSyncTableForceRegenerates(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{ordersSummary, ordersSummary}}
	m, _, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns

	if err := m.SyncTable(context.Background(), "orders", false); err != nil {
		t.Fatalf("SyncTable() error = %v", err)
	}
	if err := m.SyncTable(context.Background(), "orders", true); err != nil {
		t.Fatalf("forced SyncTable() error = %v", err)
	}

	if len(llmFake.ChatCalls) != 2 {
		t.Errorf("expected 2 LLM calls with force, got %d", len(llmFake.ChatCalls))
	}
}

func TestSyncTableFallsBackWhenLLMFails(t *testing.T) {
	llmFake := &ragtest.FakeLLM{ChatErr: errors.New("model overloaded")}
	m, catalogRepo, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns

	if err := m.SyncTable(context.Background(), "orders", false); err != nil {
		t.Fatalf("SyncTable() error = %v", err)
	}

	entry, _ := catalogRepo.FindByName(context.Background(), "orders")
	if entry.TableDescription != "Database table: orders" {
		t.Errorf("expected fallback description, got %q", entry.TableDescription)
	}
}

func TestSyncAllCollectsFailures(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{ordersSummary, ordersSummary}}
	m, catalogRepo, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns
	schemaRepo.Tables["broken"] = "id integer\n"
	schemaRepo.DescribeErrs = map[string]error{"broken": errors.New("permission denied")}

	synced, failed, err := m.SyncAll(context.Background(), false)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if synced != 1 {
		t.Errorf("expected 1 synced, got %d", synced)
	}
	if len(failed) != 1 || failed[0] != "broken" {
		t.Errorf("expected broken to fail, got %v", failed)
	}
	if count, _ := catalogRepo.Count(context.Background()); count != 1 {
		t.Errorf("expected 1 catalog entry, got %d", count)
	}
}

func TestSyncAllExcludesSelfTables(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{ordersSummary}}
	m, catalogRepo, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns
	schemaRepo.Tables["table_metadata_catalog"] = "id integer\n"
	schemaRepo.Tables["company_documents"] = "id uuid\n"

	synced, failed, err := m.SyncAll(context.Background(), false)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if synced != 1 || len(failed) != 0 {
		t.Fatalf("expected only orders synced, got synced=%d failed=%v", synced, failed)
	}
	if count, _ := catalogRepo.Count(context.Background()); count != 1 {
		t.Errorf("expected 1 catalog entry, got %d", count)
	}
}

func TestDiscoverTablesVectorTier(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{ordersSummary}}
	m, _, schemaRepo := newTestManager(llmFake, ragtest.NewFakeEmbedder())
	schemaRepo.Tables["orders"] = ordersColumns

	if err := m.SyncTable(context.Background(), "orders", false); err != nil {
		t.Fatalf("SyncTable() error = %v", err)
	}

	scored, err := m.DiscoverTables(context.Background(), "How many orders last month?", 5)
	if err != nil {
		t.Fatalf("DiscoverTables() error = %v", err)
	}
	if len(scored) == 0 {
		t.Fatal("expected at least one discovered table")
	}
	if scored[0].Entry.TableName != "orders" {
		t.Errorf("expected orders first, got %s", scored[0].Entry.TableName)
	}
}

func TestDiscoverTablesKeywordFallback(t *testing.T) {
	// Embedding discovery unavailable: the embedder errors on the question
	embedder := ragtest.NewFakeEmbedder()
	m, catalogRepo, _ := newTestManager(&ragtest.FakeLLM{}, embedder)

	seedEntry(t, catalogRepo, "orders", "Customer orders and revenue.")
	embedder.Err = errors.New("embedding service down")

	scored, err := m.DiscoverTables(context.Background(), "show me customer orders please", 5)
	if err != nil {
		t.Fatalf("DiscoverTables() error = %v", err)
	}
	if len(scored) != 1 {
		t.Fatalf("expected 1 keyword match, got %d", len(scored))
	}
	if scored[0].Similarity != 0.5 {
		t.Errorf("expected keyword tier score 0.5, got %f", scored[0].Similarity)
	}
}

func TestDiscoverTablesArbitraryFallback(t *testing.T) {
	embedder := ragtest.NewFakeEmbedder()
	m, catalogRepo, _ := newTestManager(&ragtest.FakeLLM{}, embedder)

	seedEntry(t, catalogRepo, "inventory", "Warehouse stock levels.")
	embedder.Err = errors.New("embedding service down")

	scored, err := m.DiscoverTables(context.Background(), "zzzz qqqq xxxx", 5)
	if err != nil {
		t.Fatalf("DiscoverTables() error = %v", err)
	}
	if len(scored) != 1 {
		t.Fatalf("expected 1 fallback entry, got %d", len(scored))
	}
	if scored[0].Similarity != 0.3 {
		t.Errorf("expected fallback tier score 0.3, got %f", scored[0].Similarity)
	}
}

func TestDiscoverTablesEmptyCatalog(t *testing.T) {
	embedder := ragtest.NewFakeEmbedder()
	m, _, _ := newTestManager(&ragtest.FakeLLM{}, embedder)
	embedder.Err = errors.New("embedding service down")

	_, err := m.DiscoverTables(context.Background(), "anything", 5)
	if !errors.Is(err, ragerr.ErrNoRelevantTables) {
		t.Fatalf("expected ErrNoRelevantTables, got %v", err)
	}
}

func TestGetTableMetadataCaches(t *testing.T) {
	m, catalogRepo, _ := newTestManager(&ragtest.FakeLLM{}, ragtest.NewFakeEmbedder())
	seedEntry(t, catalogRepo, "orders", "Customer orders.")

	entry, err := m.GetTableMetadata(context.Background(), "orders")
	if err != nil || entry == nil {
		t.Fatalf("GetTableMetadata() = %v, %v", entry, err)
	}

	// Mutate the repo; the cached copy should still be served
	catalogRepo.Entries["orders"].TableDescription = "changed"
	cached, err := m.GetTableMetadata(context.Background(), "orders")
	if err != nil {
		t.Fatalf("GetTableMetadata() error = %v", err)
	}
	if cached.TableDescription != "Customer orders." {
		t.Errorf("expected cached entry, got %q", cached.TableDescription)
	}
}

func seedEntry(t *testing.T, repo *ragtest.FakeCatalogRepo, tableName, description string) {
	t.Helper()
	err := repo.Upsert(context.Background(), &entity.TableCatalogEntry{
		TableName:        tableName,
		TableDescription: description,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", tableName, err)
	}
}

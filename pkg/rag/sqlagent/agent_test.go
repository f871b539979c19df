package sqlagent

import (
	"context"
	"errors"
	"testing"

	"db-rag-be/internal/entity"
	"db-rag-be/pkg/rag/catalog"
	"db-rag-be/pkg/rag/ragerr"
	"db-rag-be/pkg/rag/ragtest"
)

func newTestAgent(llmFake *ragtest.FakeLLM, schemaRepo *ragtest.FakeSchemaRepo, seed ...*entity.TableCatalogEntry) *Agent {
	catalogRepo := ragtest.NewFakeCatalogRepo()
	for _, e := range seed {
		_ = catalogRepo.Upsert(context.Background(), e)
	}

	manager := catalog.NewManager(catalogRepo, schemaRepo, llmFake, ragtest.NewFakeEmbedder(), ragtest.NopLogger{}, catalog.Config{})
	return NewAgent(manager, schemaRepo, llmFake, ragtest.NopLogger{}, Config{
		EnableValidation: true,
	})
}

func ordersEntry() *entity.TableCatalogEntry {
	return &entity.TableCatalogEntry{
		TableName:            "orders",
		ColumnDefinitions:    "id integer NOT NULL\ncustomer_id integer\ntotal numeric\n",
		TableDescription:     "Customer orders with totals.",
		DescriptionEmbedding: ragtest.DeterministicVector("orders table customer orders totals", 8),
	}
}

func TestAnswerHappyPath(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	schemaRepo.Rows = []map[string]interface{}{
		{"count": int64(42)},
	}

	llmFake := &ragtest.FakeLLM{Responses: []string{
		`{"sql": "SELECT COUNT(*) AS count FROM orders", "explanation": "Counts all orders.", "tables_used": ["orders"]}`,
	}}

	agent := newTestAgent(llmFake, schemaRepo, ordersEntry())

	result, err := agent.Answer(context.Background(), "How many orders are there?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.SQL != "SELECT COUNT(*) AS count FROM orders" {
		t.Errorf("unexpected SQL: %q", result.SQL)
	}
	if result.RowCount != 1 {
		t.Errorf("expected 1 row, got %d", result.RowCount)
	}
	if len(schemaRepo.ValidatedQueries) != 1 {
		t.Errorf("expected query to be validated before execution, validated=%d", len(schemaRepo.ValidatedQueries))
	}
	if len(schemaRepo.ExecutedQueries) != 1 {
		t.Errorf("expected 1 execution, got %d", len(schemaRepo.ExecutedQueries))
	}
}

func TestAnswerFallsBackToCodeBlock(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	schemaRepo.Rows = []map[string]interface{}{{"id": 1}}

	llmFake := &ragtest.FakeLLM{Responses: []string{
		"Here is the query:\n```sql\nSELECT id FROM orders LIMIT 10\n```",
	}}

	agent := newTestAgent(llmFake, schemaRepo, ordersEntry())

	result, err := agent.Answer(context.Background(), "List some orders")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.SQL != "SELECT id FROM orders LIMIT 10" {
		t.Errorf("unexpected SQL: %q", result.SQL)
	}
	// Bare SQL carries no tables_used; the candidate tables stand in
	if len(result.TablesUsed) != 1 || result.TablesUsed[0] != "orders" {
		t.Errorf("expected candidate tables as tables_used, got %v", result.TablesUsed)
	}
	if result.Explanation == "" {
		t.Error("expected a generic explanation on the fallback path")
	}
}

func TestAnswerNoTables(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	agent := newTestAgent(&ragtest.FakeLLM{}, schemaRepo)

	_, err := agent.Answer(context.Background(), "Anything at all?")
	if !errors.Is(err, ragerr.ErrNoRelevantTables) {
		t.Fatalf("expected ErrNoRelevantTables, got %v", err)
	}
	if len(schemaRepo.ExecutedQueries) != 0 {
		t.Error("nothing should execute without tables")
	}
}

func TestAnswerRejectsNonSelect(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	llmFake := &ragtest.FakeLLM{Responses: []string{
		`{"sql": "DELETE FROM orders", "explanation": "", "tables_used": ["orders"]}`,
	}}

	agent := newTestAgent(llmFake, schemaRepo, ordersEntry())

	_, err := agent.Answer(context.Background(), "Remove all orders")
	if !errors.Is(err, ragerr.ErrQueryGeneration) {
		t.Fatalf("expected ErrQueryGeneration for non-SELECT, got %v", err)
	}
	if len(schemaRepo.ValidatedQueries) != 0 || len(schemaRepo.ExecutedQueries) != 0 {
		t.Error("non-SELECT must never reach the database")
	}
}

func TestAnswerValidationGateBlocksExecution(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	schemaRepo.ValidateErr = ragerr.ErrQueryValidation

	llmFake := &ragtest.FakeLLM{Responses: []string{
		`{"sql": "SELECT bogus FROM orders", "explanation": "", "tables_used": ["orders"]}`,
	}}

	agent := newTestAgent(llmFake, schemaRepo, ordersEntry())

	_, err := agent.Answer(context.Background(), "Show me bogus")
	if !errors.Is(err, ragerr.ErrQueryValidation) {
		t.Fatalf("expected ErrQueryValidation, got %v", err)
	}
	if len(schemaRepo.ExecutedQueries) != 0 {
		t.Error("invalid query must not execute")
	}
}

func TestAnswerUnparseableResponse(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	llmFake := &ragtest.FakeLLM{Responses: []string{
		"I am sorry, I cannot help with that.",
	}}

	agent := newTestAgent(llmFake, schemaRepo, ordersEntry())

	_, err := agent.Answer(context.Background(), "How many orders?")
	if !errors.Is(err, ragerr.ErrQueryGeneration) {
		t.Fatalf("expected ErrQueryGeneration, got %v", err)
	}
}

func TestAnswerRowCap(t *testing.T) {
	schemaRepo := ragtest.NewFakeSchemaRepo()
	for i := 0; i < 10; i++ {
		schemaRepo.Rows = append(schemaRepo.Rows, map[string]interface{}{"id": i})
	}

	llmFake := &ragtest.FakeLLM{Responses: []string{
		`{"sql": "SELECT id FROM orders", "explanation": "", "tables_used": ["orders"]}`,
	}}

	catalogRepo := ragtest.NewFakeCatalogRepo()
	_ = catalogRepo.Upsert(context.Background(), ordersEntry())
	manager := catalog.NewManager(catalogRepo, schemaRepo, llmFake, ragtest.NewFakeEmbedder(), ragtest.NopLogger{}, catalog.Config{})
	agent := NewAgent(manager, schemaRepo, llmFake, ragtest.NopLogger{}, Config{MaxResultRows: 5})

	result, err := agent.Answer(context.Background(), "List orders")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.RowCount != 5 {
		t.Errorf("expected row cap of 5, got %d", result.RowCount)
	}
}

package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"db-rag-be/internal/entity"
	"db-rag-be/pkg/llm"
	"db-rag-be/pkg/rag/catalog"
	"db-rag-be/pkg/rag/ragerr"
	"db-rag-be/pkg/rag/ragtest"
	"db-rag-be/pkg/rag/sqlagent"
	"db-rag-be/pkg/rag/vectoragent"
)

type fixture struct {
	orch        *Orchestrator
	llmFake     *ragtest.FakeLLM
	schemaRepo  *ragtest.FakeSchemaRepo
	docRepo     *ragtest.FakeDocumentRepo
	catalogRepo *ragtest.FakeCatalogRepo
}

func newFixture(llmFake *ragtest.FakeLLM) *fixture {
	catalogRepo := ragtest.NewFakeCatalogRepo()
	schemaRepo := ragtest.NewFakeSchemaRepo()
	docRepo := ragtest.NewFakeDocumentRepo()
	embedder := ragtest.NewFakeEmbedder()

	_ = catalogRepo.Upsert(context.Background(), &entity.TableCatalogEntry{
		TableName:            "orders",
		ColumnDefinitions:    "id integer NOT NULL\ntotal numeric\n",
		TableDescription:     "Customer orders with totals.",
		DescriptionEmbedding: ragtest.DeterministicVector("orders", 8),
	})

	manager := catalog.NewManager(catalogRepo, schemaRepo, llmFake, embedder, ragtest.NopLogger{}, catalog.Config{})
	sqlAgent := sqlagent.NewAgent(manager, schemaRepo, llmFake, ragtest.NopLogger{}, sqlagent.Config{EnableValidation: true})
	vectorAgent := vectoragent.NewAgent(docRepo, embedder, ragtest.NopLogger{}, vectoragent.Config{})

	orch := New(manager, sqlAgent, vectorAgent, llmFake, ragtest.NopLogger{}, Config{
		EnableSQLSearch:    true,
		EnableVectorSearch: true,
	})

	return &fixture{
		orch:        orch,
		llmFake:     llmFake,
		schemaRepo:  schemaRepo,
		docRepo:     docRepo,
		catalogRepo: catalogRepo,
	}
}

func structuredCall(query string) llm.ToolCall {
	return llm.ToolCall{Id: "call_1", Name: "query_structured_data", Arguments: `{"query": "` + query + `"}`}
}

func unstructuredCall(query string) llm.ToolCall {
	return llm.ToolCall{Id: "call_2", Name: "search_unstructured_documents", Arguments: `{"query": "` + query + `"}`}
}

func seedDoc(f *fixture, content string) {
	_ = f.docRepo.Create(context.Background(), &entity.Document{
		Content:   content,
		Embedding: ragtest.DeterministicVector(content, 8),
	})
}

func TestInterpretToolCalls(t *testing.T) {
	tests := []struct {
		name      string
		calls     []llm.ToolCall
		wantCaps  []Capability
		wantQuery string
	}{
		{
			name:     "no calls",
			calls:    nil,
			wantCaps: nil,
		},
		{
			name:      "single structured call",
			calls:     []llm.ToolCall{structuredCall("count orders")},
			wantCaps:  []Capability{CapabilityStructured},
			wantQuery: "count orders",
		},
		{
			name:     "both capabilities",
			calls:    []llm.ToolCall{structuredCall("count orders"), unstructuredCall("refund policy")},
			wantCaps: []Capability{CapabilityStructured, CapabilityUnstructured},
		},
		{
			name:     "unknown tool dropped",
			calls:    []llm.ToolCall{{Name: "delete_everything", Arguments: "{}"}},
			wantCaps: nil,
		},
		{
			name:     "duplicate capability keeps first",
			calls:    []llm.ToolCall{structuredCall("first"), structuredCall("second")},
			wantCaps: []Capability{CapabilityStructured},
		},
		{
			name:      "malformed arguments fall back to question",
			calls:     []llm.ToolCall{{Name: "query_structured_data", Arguments: "not json"}},
			wantCaps:  []Capability{CapabilityStructured},
			wantQuery: "original question",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := interpretToolCalls("original question", tt.calls)
			if len(decisions) != len(tt.wantCaps) {
				t.Fatalf("got %d decisions, want %d", len(decisions), len(tt.wantCaps))
			}
			for i, want := range tt.wantCaps {
				if decisions[i].Capability != want {
					t.Errorf("decision %d capability = %v, want %v", i, decisions[i].Capability, want)
				}
			}
			if tt.wantQuery != "" && len(decisions) > 0 && decisions[0].Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", decisions[0].Query, tt.wantQuery)
			}
		})
	}
}

func TestQueryZeroToolsReturnsModelContent(t *testing.T) {
	f := newFixture(&ragtest.FakeLLM{
		ToolResults: []*llm.ToolResult{{Content: "Hello! How can I help?"}},
	})

	result, err := f.orch.Query(context.Background(), "hi there")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Answer != "Hello! How can I help?" {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if len(result.Routing) != 0 {
		t.Errorf("expected no routing decisions, got %v", result.Routing)
	}
	// No retrieval ran, so the pipeline did not succeed even though the
	// conversational answer is kept
	if result.Success {
		t.Error("zero-tool routing must not be marked successful")
	}
	if !errors.Is(result.Err, ragerr.ErrRoutingAmbiguous) {
		t.Errorf("expected ErrRoutingAmbiguous, got %v", result.Err)
	}
}

func TestQueryStructuredPath(t *testing.T) {
	llmFake := &ragtest.FakeLLM{
		ToolResults: []*llm.ToolResult{{ToolCalls: []llm.ToolCall{structuredCall("How many orders?")}}},
		Responses: []string{
			`{"sql": "SELECT COUNT(*) AS count FROM orders", "explanation": "Counts orders.", "tables_used": ["orders"]}`,
			"There are 42 orders.",
		},
	}
	f := newFixture(llmFake)
	f.schemaRepo.Rows = []map[string]interface{}{{"count": int64(42)}}

	result, err := f.orch.Query(context.Background(), "How many orders?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if result.Answer != "There are 42 orders." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Structured == nil || !result.Structured.Success {
		t.Fatalf("expected successful structured outcome, got %+v", result.Structured)
	}
	if result.Structured.Result == nil || result.Structured.Result.RowCount != 1 {
		t.Errorf("expected structured result with 1 row, got %+v", result.Structured.Result)
	}
}

func TestQueryBothPaths(t *testing.T) {
	llmFake := &ragtest.FakeLLM{
		ToolResults: []*llm.ToolResult{{ToolCalls: []llm.ToolCall{
			structuredCall("revenue by month"),
			unstructuredCall("revenue policy"),
		}}},
		Responses: []string{
			`{"sql": "SELECT SUM(total) AS revenue FROM orders", "explanation": "", "tables_used": ["orders"]}`,
			"Total revenue is 1000; policy says revenue is recognized on delivery.",
		},
	}
	f := newFixture(llmFake)
	f.schemaRepo.Rows = []map[string]interface{}{{"revenue": 1000}}
	seedDoc(f, "Revenue is recognized on delivery.")

	result, err := f.orch.Query(context.Background(), "What is our revenue and how is it recognized?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(result.Routing) != 2 {
		t.Fatalf("expected 2 routing decisions, got %d", len(result.Routing))
	}
	if result.Structured == nil || !result.Structured.Success {
		t.Error("expected successful structured outcome")
	}
	if result.Unstructured == nil || len(result.Unstructured.Matches) == 0 {
		t.Error("expected document matches")
	}
}

func TestQueryPartialFailureStillAnswers(t *testing.T) {
	// Structured path fails at execution; unstructured succeeds. The
	// failing path must stay visible with its own flag and error text.
	llmFake := &ragtest.FakeLLM{
		ToolResults: []*llm.ToolResult{{ToolCalls: []llm.ToolCall{
			structuredCall("count things"),
			unstructuredCall("policy"),
		}}},
		Responses: []string{
			`{"sql": "SELECT 1/0 AS boom", "explanation": "", "tables_used": ["orders"]}`,
			"The policy says returns are allowed within 30 days.",
		},
	}
	f := newFixture(llmFake)
	f.schemaRepo.ExecuteErr = errors.New("division by zero")
	seedDoc(f, "Returns are allowed within 30 days.")

	result, err := f.orch.Query(context.Background(), "What does the returns policy say?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !result.Success {
		t.Error("expected success from the surviving path")
	}
	if result.Structured == nil {
		t.Fatal("failed structured path must still be reported")
	}
	if result.Structured.Success {
		t.Error("failed structured path must carry success=false")
	}
	if result.Structured.Err == nil || !strings.Contains(result.Structured.Err.Error(), "division by zero") {
		t.Errorf("expected execution error text on the failed path, got %v", result.Structured.Err)
	}
	if result.Unstructured == nil || !result.Unstructured.Success {
		t.Fatal("expected successful unstructured outcome")
	}
	if len(result.Unstructured.Matches) == 0 {
		t.Error("expected document matches from the surviving path")
	}
}

func TestQueryNoEvidence(t *testing.T) {
	llmFake := &ragtest.FakeLLM{
		ToolResults: []*llm.ToolResult{{ToolCalls: []llm.ToolCall{unstructuredCall("missing topic")}}},
	}
	f := newFixture(llmFake)
	// Empty document store: search succeeds with zero matches

	result, err := f.orch.Query(context.Background(), "Tell me about something we have no data on")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Answer != NoEvidenceAnswer {
		t.Errorf("expected fixed no-evidence answer, got %q", result.Answer)
	}
	if result.Success {
		t.Error("no-evidence answer must not be marked successful")
	}
}

func TestSynthesisFailureReturnsRawContext(t *testing.T) {
	llmFake := &ragtest.FakeLLM{
		ToolResults: []*llm.ToolResult{{ToolCalls: []llm.ToolCall{unstructuredCall("policy")}}},
		ChatErr:     errors.New("model overloaded"),
	}
	f := newFixture(llmFake)
	seedDoc(f, "Returns are allowed within 30 days.")

	result, err := f.orch.Query(context.Background(), "What is the returns policy?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !strings.Contains(result.Answer, "Returns are allowed within 30 days.") {
		t.Errorf("expected raw context in answer, got %q", result.Answer)
	}
	if !strings.Contains(result.Answer, "could not summarize") {
		t.Errorf("expected degradation note in answer, got %q", result.Answer)
	}
}

func TestQueryUnstructuredOnlySkipsRouting(t *testing.T) {
	llmFake := &ragtest.FakeLLM{
		Responses: []string{"The handbook covers leave policy."},
	}
	f := newFixture(llmFake)
	seedDoc(f, "The handbook covers leave policy.")

	result, err := f.orch.QueryUnstructuredOnly(context.Background(), "What does the handbook cover?")
	if err != nil {
		t.Fatalf("QueryUnstructuredOnly() error = %v", err)
	}
	if f.llmFake.ToolCalls != 0 {
		t.Error("forced path must not invoke the router")
	}
	if result.Unstructured == nil || len(result.Unstructured.Matches) == 0 {
		t.Error("expected document matches")
	}
}

func TestContextBlockCarriesQueryAndTables(t *testing.T) {
	results := &ExecutionResults{
		Structured: &StructuredOutcome{
			Success: true,
			Result: &sqlagent.Result{
				SQL:        "SELECT COUNT(*) AS count FROM orders",
				TablesUsed: []string{"orders"},
				Rows:       []map[string]interface{}{{"count": 42}},
				RowCount:   1,
			},
		},
	}

	block := buildContextBlock(results)
	if !strings.Contains(block, "Query: SELECT COUNT(*) AS count FROM orders") {
		t.Errorf("expected query text in context block, got %q", block)
	}
	if !strings.Contains(block, "Tables used: orders") {
		t.Errorf("expected referenced tables in context block, got %q", block)
	}
	if !strings.Contains(block, `"count":42`) {
		t.Errorf("expected row data in context block, got %q", block)
	}
}

func TestExecuteHonorsCapabilityGates(t *testing.T) {
	llmFake := &ragtest.FakeLLM{}
	f := newFixture(llmFake)

	gated := New(f.orch.catalog, f.orch.sqlAgent, f.orch.vectorAgent, llmFake, ragtest.NopLogger{}, Config{
		EnableSQLSearch:    false,
		EnableVectorSearch: false,
	})

	results := gated.Execute(context.Background(), []Decision{
		{Capability: CapabilityStructured, Query: "q"},
		{Capability: CapabilityUnstructured, Query: "q"},
	})
	if results.Structured != nil || results.Unstructured != nil {
		t.Error("disabled capabilities must not execute")
	}
}

func TestInitializeAutoSync(t *testing.T) {
	llmFake := &ragtest.FakeLLM{Responses: []string{
		"DESCRIPTION: Customer orders.\nBUSINESS_CONTEXT: Sales.\nSAMPLE_QUESTIONS: How many orders?",
	}}

	catalogRepo := ragtest.NewFakeCatalogRepo()
	schemaRepo := ragtest.NewFakeSchemaRepo()
	schemaRepo.Tables["orders"] = "id integer\n"
	embedder := ragtest.NewFakeEmbedder()

	manager := catalog.NewManager(catalogRepo, schemaRepo, llmFake, embedder, ragtest.NopLogger{}, catalog.Config{})
	sqlAgent := sqlagent.NewAgent(manager, schemaRepo, llmFake, ragtest.NopLogger{}, sqlagent.Config{})
	vectorAgent := vectoragent.NewAgent(ragtest.NewFakeDocumentRepo(), embedder, ragtest.NopLogger{}, vectoragent.Config{})

	orch := New(manager, sqlAgent, vectorAgent, llmFake, ragtest.NopLogger{}, Config{
		EnableSQLSearch:    true,
		EnableVectorSearch: true,
		EnableAutoSync:     true,
	})

	if err := orch.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if count, _ := catalogRepo.Count(context.Background()); count != 1 {
		t.Errorf("expected auto-sync to catalog 1 table, got %d", count)
	}
}

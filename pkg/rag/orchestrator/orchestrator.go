package orchestrator

import (
	"context"
	"fmt"

	"db-rag-be/internal/pkg/logger"
	"db-rag-be/pkg/llm"
	"db-rag-be/pkg/rag/catalog"
	"db-rag-be/pkg/rag/ragerr"
	"db-rag-be/pkg/rag/sqlagent"
	"db-rag-be/pkg/rag/vectoragent"
)

// NoEvidenceAnswer is returned verbatim when every retrieval path came back
// empty or failed.
const NoEvidenceAnswer = "I could not find any relevant information to answer your question."

type Config struct {
	EnableSQLSearch    bool
	EnableVectorSearch bool
	EnableAutoSync     bool
	MaxVectorResults   int
}

// RouteResult carries the routing decisions, plus the model's free-text
// content when it chose to answer directly instead of calling tools.
type RouteResult struct {
	Decisions []Decision
	Content   string
}

// StructuredOutcome is the structured path's result or failure.
type StructuredOutcome struct {
	Success bool
	Result  *sqlagent.Result
	Err     error
}

// UnstructuredOutcome is the document path's result or failure.
type UnstructuredOutcome struct {
	Success bool
	Matches []vectoragent.Match
	Err     error
}

// ExecutionResults aggregates both retrieval paths. Either field may be nil
// when that path was not routed to.
type ExecutionResults struct {
	Structured   *StructuredOutcome
	Unstructured *UnstructuredOutcome
}

// QueryResult is the full answer to one question. Both path outcomes are
// carried even when a path failed, so callers can see each path's own
// success flag and error alongside the synthesized answer.
type QueryResult struct {
	Success      bool
	Answer       string
	Err          error
	Routing      []Decision
	Structured   *StructuredOutcome
	Unstructured *UnstructuredOutcome
}

// Orchestrator routes questions across the structured and unstructured
// retrieval paths and synthesizes a single answer.
type Orchestrator struct {
	catalog     *catalog.Manager
	sqlAgent    *sqlagent.Agent
	vectorAgent *vectoragent.Agent
	llm         llm.LLMProvider
	log         logger.ILogger
	cfg         Config
}

func New(
	catalogManager *catalog.Manager,
	sqlAgent *sqlagent.Agent,
	vectorAgent *vectoragent.Agent,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
	cfg Config,
) *Orchestrator {
	if cfg.MaxVectorResults <= 0 {
		cfg.MaxVectorResults = 3
	}

	return &Orchestrator{
		catalog:     catalogManager,
		sqlAgent:    sqlAgent,
		vectorAgent: vectorAgent,
		llm:         llmProvider,
		log:         log,
		cfg:         cfg,
	}
}

// Initialize prepares storage: the catalog and documents tables, and an
// initial catalog sync when auto-sync is on and the catalog is empty.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.catalog.EnsureCatalogTable(ctx); err != nil {
		return fmt.Errorf("ensure catalog table: %w", err)
	}
	if err := o.vectorAgent.EnsureDocumentsTable(ctx); err != nil {
		return fmt.Errorf("ensure documents table: %w", err)
	}

	if o.cfg.EnableAutoSync {
		count, err := o.catalog.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			synced, failed, err := o.catalog.SyncAll(ctx, false)
			if err != nil {
				return err
			}
			o.log.Info("orchestrator", "Initial catalog sync complete", map[string]interface{}{
				"synced": synced,
				"failed": failed,
			})
		}
	}
	return nil
}

// Route asks the model which retrieval paths apply. The model may pick
// zero, one, or both tools; with zero it usually answered directly and its
// content is surfaced in RouteResult.
func (o *Orchestrator) Route(ctx context.Context, question string) (*RouteResult, error) {
	tools := routingTools(o.cfg.EnableSQLSearch, o.cfg.EnableVectorSearch)
	if len(tools) == 0 {
		return nil, fmt.Errorf("%w: all retrieval paths are disabled", ragerr.ErrRoutingAmbiguous)
	}

	history := []llm.Message{
		{Role: "system", Content: routingSystemPrompt},
		{Role: "user", Content: question},
	}

	result, err := o.llm.ChatWithTools(ctx, history, tools, llm.WithTemperature(0.0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrProvider, err)
	}

	decisions := interpretToolCalls(question, result.ToolCalls)
	o.log.Debug("orchestrator", "Routing complete", map[string]interface{}{
		"question":  question,
		"decisions": len(decisions),
	})

	return &RouteResult{Decisions: decisions, Content: result.Content}, nil
}

// Execute runs each routed path. Paths are independent: one failing does
// not stop the other, and both outcomes are reported.
func (o *Orchestrator) Execute(ctx context.Context, decisions []Decision) *ExecutionResults {
	results := &ExecutionResults{}

	for _, d := range decisions {
		switch d.Capability {
		case CapabilityStructured:
			if !o.cfg.EnableSQLSearch {
				continue
			}
			res, err := o.sqlAgent.Answer(ctx, d.Query)
			results.Structured = &StructuredOutcome{
				Success: err == nil,
				Result:  res,
				Err:     err,
			}
			if err != nil {
				o.log.Warn("orchestrator", "Structured path failed", map[string]interface{}{
					"query": d.Query,
					"error": err.Error(),
				})
			}
		case CapabilityUnstructured:
			if !o.cfg.EnableVectorSearch {
				continue
			}
			matches, err := o.vectorAgent.Search(ctx, d.Query, o.cfg.MaxVectorResults, nil)
			results.Unstructured = &UnstructuredOutcome{
				Success: err == nil,
				Matches: matches,
				Err:     err,
			}
			if err != nil {
				o.log.Warn("orchestrator", "Unstructured path failed", map[string]interface{}{
					"query": d.Query,
					"error": err.Error(),
				})
			}
		}
	}

	return results
}

// Synthesize composes the final answer from successful retrieval results.
// With no evidence it returns the fixed no-information answer; when the
// synthesis model fails it degrades to the raw context.
func (o *Orchestrator) Synthesize(ctx context.Context, question string, results *ExecutionResults) string {
	contextBlock := buildContextBlock(results)
	if contextBlock == "" {
		return NoEvidenceAnswer
	}

	history := []llm.Message{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: buildSynthesisPrompt(question, contextBlock)},
	}

	answer, err := o.llm.Chat(ctx, history, llm.WithTemperature(0.0))
	if err != nil {
		o.log.Error("orchestrator", "Synthesis failed, returning raw context", map[string]interface{}{
			"error": err.Error(),
		})
		return "I found the following information but could not summarize it:\n\n" + contextBlock
	}
	return answer
}

// Query is the full pipeline: route, execute, synthesize.
func (o *Orchestrator) Query(ctx context.Context, question string) (*QueryResult, error) {
	route, err := o.Route(ctx, question)
	if err != nil {
		return nil, err
	}

	// No tools selected: the model answered (or deflected) directly. The
	// conversational answer is kept, but no retrieval happened, so the
	// pipeline as a whole did not succeed.
	if len(route.Decisions) == 0 {
		answer := route.Content
		if answer == "" {
			answer = NoEvidenceAnswer
		}
		return &QueryResult{
			Success: false,
			Answer:  answer,
			Err:     fmt.Errorf("%w: model selected no retrieval tool", ragerr.ErrRoutingAmbiguous),
		}, nil
	}

	results := o.Execute(ctx, route.Decisions)
	answer := o.Synthesize(ctx, question, results)

	return o.buildQueryResult(answer, route.Decisions, results), nil
}

// QueryStructuredOnly bypasses routing and runs only the SQL path.
func (o *Orchestrator) QueryStructuredOnly(ctx context.Context, question string) (*QueryResult, error) {
	if !o.cfg.EnableSQLSearch {
		return nil, fmt.Errorf("%w: structured search is disabled", ragerr.ErrRoutingAmbiguous)
	}
	decisions := []Decision{{Capability: CapabilityStructured, Query: question}}
	results := o.Execute(ctx, decisions)
	answer := o.Synthesize(ctx, question, results)
	return o.buildQueryResult(answer, decisions, results), nil
}

// QueryUnstructuredOnly bypasses routing and runs only the document path.
func (o *Orchestrator) QueryUnstructuredOnly(ctx context.Context, question string) (*QueryResult, error) {
	if !o.cfg.EnableVectorSearch {
		return nil, fmt.Errorf("%w: unstructured search is disabled", ragerr.ErrRoutingAmbiguous)
	}
	decisions := []Decision{{Capability: CapabilityUnstructured, Query: question}}
	results := o.Execute(ctx, decisions)
	answer := o.Synthesize(ctx, question, results)
	return o.buildQueryResult(answer, decisions, results), nil
}

func (o *Orchestrator) buildQueryResult(answer string, decisions []Decision, results *ExecutionResults) *QueryResult {
	return &QueryResult{
		Success:      answer != NoEvidenceAnswer,
		Answer:       answer,
		Routing:      decisions,
		Structured:   results.Structured,
		Unstructured: results.Unstructured,
	}
}

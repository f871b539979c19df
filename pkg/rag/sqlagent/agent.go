package sqlagent

import (
	"context"
	"fmt"
	"strings"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/pkg/ai/extract"
	"db-rag-be/pkg/llm"
	"db-rag-be/pkg/rag/catalog"
	"db-rag-be/pkg/rag/ragerr"
)

// State tracks the agent's progress through its pipeline, mostly for
// logging and error attribution.
type State string

const (
	StateDiscoverTables State = "DISCOVER_TABLES"
	StateGenerateQuery  State = "GENERATE_QUERY"
	StateValidate       State = "VALIDATE"
	StateExecute        State = "EXECUTE"
	StateDone           State = "DONE"
)

type Config struct {
	MaxContextTables int
	MaxResultRows    int
	EnableValidation bool
}

// Result is the full outcome of one structured retrieval: the generated
// query, the tables that grounded it, and the capped result rows.
type Result struct {
	SQL         string
	Explanation string
	TablesUsed  []string
	Rows        []map[string]interface{}
	RowCount    int
}

// Agent answers natural-language questions by generating and executing SQL
// against the cataloged business tables.
type Agent struct {
	catalog    *catalog.Manager
	schemaRepo contract.SchemaRepository
	llm        llm.LLMProvider
	log        logger.ILogger
	cfg        Config
}

func NewAgent(
	catalogManager *catalog.Manager,
	schemaRepo contract.SchemaRepository,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
	cfg Config,
) *Agent {
	if cfg.MaxContextTables <= 0 {
		cfg.MaxContextTables = 5
	}
	if cfg.MaxResultRows <= 0 {
		cfg.MaxResultRows = 500
	}

	return &Agent{
		catalog:    catalogManager,
		schemaRepo: schemaRepo,
		llm:        llmProvider,
		log:        log,
		cfg:        cfg,
	}
}

// Answer runs the full pipeline: discover relevant tables, generate a
// query, validate it without executing, then execute with a row cap.
func (a *Agent) Answer(ctx context.Context, question string) (*Result, error) {
	a.transition(StateDiscoverTables, question)
	tables, err := a.discoverTables(ctx, question)
	if err != nil {
		return nil, err
	}

	a.transition(StateGenerateQuery, question)
	generated, err := a.generateQuery(ctx, question, tables)
	if err != nil {
		return nil, err
	}

	if a.cfg.EnableValidation {
		a.transition(StateValidate, question)
		if err := a.schemaRepo.ValidateQuery(ctx, generated.SQL); err != nil {
			a.log.Warn("sqlagent", "Generated query failed validation", map[string]interface{}{
				"sql":   generated.SQL,
				"error": err.Error(),
			})
			return nil, err
		}
	}

	a.transition(StateExecute, question)
	rows, err := a.schemaRepo.ExecuteQuery(ctx, generated.SQL, a.cfg.MaxResultRows)
	if err != nil {
		return nil, err
	}

	a.transition(StateDone, question)
	a.log.Info("sqlagent", "Query answered", map[string]interface{}{
		"sql":       generated.SQL,
		"row_count": len(rows),
	})

	return &Result{
		SQL:         generated.SQL,
		Explanation: generated.Explanation,
		TablesUsed:  generated.TablesUsed,
		Rows:        rows,
		RowCount:    len(rows),
	}, nil
}

func (a *Agent) transition(state State, question string) {
	a.log.Debug("sqlagent", "State transition", map[string]interface{}{
		"state":    string(state),
		"question": question,
	})
}

func (a *Agent) discoverTables(ctx context.Context, question string) ([]*entity.TableCatalogEntry, error) {
	scored, err := a.catalog.DiscoverTables(ctx, question, a.cfg.MaxContextTables)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, ragerr.ErrNoRelevantTables
	}

	tables := make([]*entity.TableCatalogEntry, len(scored))
	for i, s := range scored {
		tables[i] = s.Entry
	}
	return tables, nil
}

func (a *Agent) generateQuery(ctx context.Context, question string, tables []*entity.TableCatalogEntry) (*extract.GeneratedQuery, error) {
	history := []llm.Message{
		{Role: "system", Content: generateSystemPrompt},
		{Role: "user", Content: buildGenerationPrompt(question, tables)},
	}

	response, err := a.llm.Chat(ctx, history, llm.WithTemperature(0.0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrQueryGeneration, err)
	}

	generated, ok := extract.ParseGeneratedQuery(response)
	if !ok {
		// Some models ignore the JSON contract and return bare SQL. The
		// candidate tables stand in for the missing tables_used field.
		sql := extract.ExtractCodeBlock(response)
		if !looksLikeSelect(sql) {
			return nil, fmt.Errorf("%w: unparseable response", ragerr.ErrQueryGeneration)
		}
		names := make([]string, len(tables))
		for i, tbl := range tables {
			names[i] = tbl.TableName
		}
		generated = &extract.GeneratedQuery{
			SQL:         sql,
			Explanation: "Generated SQL query",
			TablesUsed:  names,
		}
	}

	if !looksLikeSelect(generated.SQL) {
		return nil, fmt.Errorf("%w: only SELECT statements are allowed", ragerr.ErrQueryGeneration)
	}
	return generated, nil
}

// looksLikeSelect is the read-only gate: only SELECT and WITH ... SELECT
// statements pass.
func looksLikeSelect(sql string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))
	return strings.HasPrefix(trimmed, "SELECT") || strings.HasPrefix(trimmed, "WITH")
}

package service

import (
	"context"
	"time"

	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/pkg/rag/orchestrator"
)

type IQueryService interface {
	Query(ctx context.Context, req dto.QueryRequest) (*dto.QueryResponse, error)
}

type queryService struct {
	orch *orchestrator.Orchestrator
	log  logger.ILogger
}

func NewQueryService(orch *orchestrator.Orchestrator, log logger.ILogger) IQueryService {
	return &queryService{orch: orch, log: log}
}

func (s *queryService) Query(ctx context.Context, req dto.QueryRequest) (*dto.QueryResponse, error) {
	start := time.Now()

	var (
		result *orchestrator.QueryResult
		err    error
	)
	switch req.Mode {
	case "sql":
		result, err = s.orch.QueryStructuredOnly(ctx, req.Question)
	case "vector":
		result, err = s.orch.QueryUnstructuredOnly(ctx, req.Question)
	default:
		result, err = s.orch.Query(ctx, req.Question)
	}
	if err != nil {
		return nil, err
	}

	res := &dto.QueryResponse{
		Success:   result.Success,
		Answer:    result.Answer,
		ToolsUsed: make([]string, len(result.Routing)),
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	if result.Err != nil {
		res.Error = result.Err.Error()
	}
	for i, d := range result.Routing {
		res.ToolsUsed[i] = d.Capability.String()
	}

	if s := result.Structured; s != nil {
		res.Structured = &dto.StructuredResult{Success: s.Success}
		if s.Err != nil {
			res.Structured.Error = s.Err.Error()
		}
		if s.Result != nil {
			res.Structured.SQL = s.Result.SQL
			res.Structured.Explanation = s.Result.Explanation
			res.Structured.TablesUsed = s.Result.TablesUsed
			res.Structured.Rows = s.Result.Rows
			res.Structured.RowCount = s.Result.RowCount
		}
	}
	if u := result.Unstructured; u != nil {
		res.Unstructured = &dto.UnstructuredResult{
			Success: u.Success,
			Matches: make([]dto.DocumentMatch, len(u.Matches)),
		}
		if u.Err != nil {
			res.Unstructured.Error = u.Err.Error()
		}
		for i, m := range u.Matches {
			res.Unstructured.Matches[i] = dto.DocumentMatch{
				Id:         m.Id,
				Content:    m.Content,
				Similarity: m.Similarity,
				Metadata:   m.Metadata,
			}
		}
	}

	s.log.Info("query", "Question answered", map[string]interface{}{
		"question":   req.Question,
		"mode":       req.Mode,
		"tools_used": res.ToolsUsed,
		"elapsed_ms": res.ElapsedMs,
	})
	return res, nil
}

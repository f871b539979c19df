package service

import (
	"context"
	"encoding/json"
	"fmt"

	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/internal/repository/specification"
	"db-rag-be/pkg/rag/vectoragent"

	"github.com/google/uuid"
)

type IDocumentService interface {
	// Ingest queues a document for async chunking and embedding.
	Ingest(ctx context.Context, req dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	// AddSync embeds and stores a document inline, returning its id.
	AddSync(ctx context.Context, req dto.IngestDocumentRequest) (string, error)
	List(ctx context.Context, limit, offset int) (*dto.ListDocumentsResponse, error)
	Search(ctx context.Context, req dto.SearchDocumentsRequest) ([]dto.DocumentMatch, error)
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	documentRepo     contract.DocumentRepository
	vectorAgent      *vectoragent.Agent
	publisherService IPublisherService
	log              logger.ILogger
	chunkSize        int
	chunkOverlap     int
}

func NewDocumentService(
	documentRepo contract.DocumentRepository,
	vectorAgent *vectoragent.Agent,
	publisherService IPublisherService,
	log logger.ILogger,
	chunkSize, chunkOverlap int,
) IDocumentService {
	return &documentService{
		documentRepo:     documentRepo,
		vectorAgent:      vectorAgent,
		publisherService: publisherService,
		log:              log,
		chunkSize:        chunkSize,
		chunkOverlap:     chunkOverlap,
	}
}

func (s *documentService) Ingest(ctx context.Context, req dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	payload := dto.IngestDocumentMessage{
		Content:      req.Content,
		Metadata:     req.Metadata,
		ChunkSize:    s.chunkSize,
		ChunkOverlap: s.chunkOverlap,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, raw); err != nil {
		return nil, fmt.Errorf("queue document: %w", err)
	}

	s.log.Info("document", "Document queued for ingestion", map[string]interface{}{
		"length": len(req.Content),
	})
	return &dto.IngestDocumentResponse{Queued: true}, nil
}

func (s *documentService) AddSync(ctx context.Context, req dto.IngestDocumentRequest) (string, error) {
	return s.vectorAgent.AddDocument(ctx, req.Content, req.Metadata)
}

func (s *documentService) List(ctx context.Context, limit, offset int) (*dto.ListDocumentsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	documents, err := s.documentRepo.FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	total, err := s.documentRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.ListDocumentsResponse{
		Documents: make([]dto.DocumentResponse, len(documents)),
		Total:     total,
	}
	for i, d := range documents {
		res.Documents[i] = dto.DocumentResponse{
			Id:        d.Id.String(),
			Content:   d.Content,
			Metadata:  d.Metadata,
			CreatedAt: d.CreatedAt,
		}
	}
	return res, nil
}

func (s *documentService) Search(ctx context.Context, req dto.SearchDocumentsRequest) ([]dto.DocumentMatch, error) {
	matches, err := s.vectorAgent.Search(ctx, req.Query, req.Limit, req.Metadata)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DocumentMatch, len(matches))
	for i, m := range matches {
		out[i] = dto.DocumentMatch{
			Id:         m.Id,
			Content:    m.Content,
			Similarity: m.Similarity,
			Metadata:   m.Metadata,
		}
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}
	return s.documentRepo.Delete(ctx, parsed)
}

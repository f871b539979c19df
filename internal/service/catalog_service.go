package service

import (
	"context"

	"db-rag-be/internal/dto"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/pkg/events"
	pkgNats "db-rag-be/pkg/nats"
	"db-rag-be/pkg/rag/catalog"
)

type ICatalogService interface {
	// Sync runs a catalog sync inline and reports the outcome.
	Sync(ctx context.Context, req dto.SyncCatalogRequest) (*dto.SyncCatalogResponse, error)
	// RequestSync publishes a sync request for the background worker.
	RequestSync(ctx context.Context, req dto.SyncCatalogRequest) error
	List(ctx context.Context) (*dto.ListCatalogResponse, error)
	// Get returns one table's catalog entry, or nil when uncataloged.
	Get(ctx context.Context, tableName string) (*dto.CatalogEntryResponse, error)
}

type catalogService struct {
	manager        *catalog.Manager
	catalogRepo    contract.TableCatalogRepository
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewCatalogService(
	manager *catalog.Manager,
	catalogRepo contract.TableCatalogRepository,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) ICatalogService {
	return &catalogService{
		manager:        manager,
		catalogRepo:    catalogRepo,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *catalogService) Sync(ctx context.Context, req dto.SyncCatalogRequest) (*dto.SyncCatalogResponse, error) {
	var res dto.SyncCatalogResponse

	if req.TableName != "" {
		if err := s.manager.SyncTable(ctx, req.TableName, req.Force); err != nil {
			return nil, err
		}
		res.Synced = 1
	} else {
		synced, failed, err := s.manager.SyncAll(ctx, req.Force)
		if err != nil {
			return nil, err
		}
		res.Synced = synced
		res.Failed = failed
	}

	if s.eventPublisher != nil {
		evt := events.NewCatalogSyncCompleted(req.TableName, res.Synced)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("catalog", "Failed to publish sync-completed event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return &res, nil
}

func (s *catalogService) RequestSync(ctx context.Context, req dto.SyncCatalogRequest) error {
	if s.eventPublisher == nil {
		// No bus configured; degrade to an inline sync
		_, err := s.Sync(ctx, req)
		return err
	}
	return s.eventPublisher.Publish(ctx, events.NewCatalogSyncRequested(req.TableName, req.Force))
}

func (s *catalogService) Get(ctx context.Context, tableName string) (*dto.CatalogEntryResponse, error) {
	entry, err := s.manager.GetTableMetadata(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return &dto.CatalogEntryResponse{
		TableName:        entry.TableName,
		TableDescription: entry.TableDescription,
		BusinessContext:  entry.BusinessContext,
		SampleQuestions:  entry.SampleQuestions,
		UpdatedAt:        entry.UpdatedAt,
	}, nil
}

func (s *catalogService) List(ctx context.Context) (*dto.ListCatalogResponse, error) {
	entries, err := s.catalogRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.catalogRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.ListCatalogResponse{
		Entries: make([]dto.CatalogEntryResponse, len(entries)),
		Total:   total,
	}
	for i, e := range entries {
		res.Entries[i] = dto.CatalogEntryResponse{
			TableName:        e.TableName,
			TableDescription: e.TableDescription,
			BusinessContext:  e.BusinessContext,
			SampleQuestions:  e.SampleQuestions,
			UpdatedAt:        e.UpdatedAt,
		}
	}
	return res, nil
}

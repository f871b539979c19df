package service

import (
	"context"
	"encoding/json"

	"db-rag-be/internal/dto"
	"db-rag-be/internal/entity"
	"db-rag-be/internal/pkg/logger"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/pkg/embedding"
	"db-rag-be/pkg/events"
	pkgNats "db-rag-be/pkg/nats"
	"db-rag-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IIngestConsumerService interface {
	Consume(ctx context.Context) error
}

type ingestConsumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	documentRepo      contract.DocumentRepository
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pkgNats.Publisher
	log               logger.ILogger
}

func NewIngestConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	documentRepo contract.DocumentRepository,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IIngestConsumerService {
	return &ingestConsumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		documentRepo:      documentRepo,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		log:               log,
	}
}

func (cs *ingestConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *ingestConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ingest", "Failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	chunks := utils.SplitText(payload.Content, payload.ChunkSize, payload.ChunkOverlap)
	cs.log.Info("ingest", "Processing document", map[string]interface{}{
		"length": len(payload.Content),
		"chunks": len(chunks),
	})

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	responses, err := cs.embeddingProvider.GenerateBatch(ctx, texts, embedding.TaskRetrievalDocument)
	if err != nil {
		cs.log.Error("ingest", "Failed to generate embeddings", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	documents := make([]*entity.Document, len(chunks))
	for i, c := range chunks {
		metadata := make(map[string]interface{}, len(payload.Metadata)+4)
		for k, v := range payload.Metadata {
			metadata[k] = v
		}
		metadata["chunk_index"] = i
		metadata["chunk_total"] = len(chunks)
		metadata["chunk_start"] = c.Start
		metadata["chunk_end"] = c.End

		documents[i] = &entity.Document{
			Content:   c.Text,
			Metadata:  metadata,
			Embedding: responses[i].Embedding.Values,
		}
	}

	if err := cs.documentRepo.CreateBulk(ctx, documents); err != nil {
		cs.log.Error("ingest", "Failed to store document chunks", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		ids := make([]string, len(documents))
		for i, d := range documents {
			ids[i] = d.Id.String()
		}
		if err := cs.eventPublisher.Publish(ctx, events.NewDocumentIngested(ids, len(chunks))); err != nil {
			// The documents are stored; the event is informational
			cs.log.Warn("ingest", "Failed to publish ingestion event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	cs.log.Info("ingest", "Document ingested", map[string]interface{}{
		"chunks": len(documents),
	})
	msg.Ack()
}

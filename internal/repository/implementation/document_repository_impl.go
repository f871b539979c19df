package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/mapper"
	"db-rag-be/internal/model"
	"db-rag-be/internal/repository/contract"
	"db-rag-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) EnsureTable(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&model.Document{})
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) CreateBulk(ctx context.Context, documents []*entity.Document) error {
	if len(documents) == 0 {
		return nil
	}

	models := make([]*model.Document, len(documents))
	for i, d := range documents {
		models[i] = r.mapper.ToModel(d)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Write generated IDs back to entities
	for i, m := range models {
		*documents[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Document{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore ranks documents by cosine similarity. pgvector's
// <=> operator yields cosine distance, so similarity = 1 - distance.
func (r *DocumentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, metadataFilter map[string]interface{}) ([]*contract.ScoredDocument, error) {
	if limit <= 0 {
		limit = 3
	}

	type result struct {
		model.Document
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("company_documents").
		Select("company_documents.*, 1 - (embedding <=> ?) as similarity", queryVector)

	if len(metadataFilter) > 0 {
		raw, err := json.Marshal(metadataFilter)
		if err != nil {
			return nil, err
		}
		query = query.Where("metadata @> ?::jsonb", string(raw))
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocument, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDocument{
			Document:   r.mapper.ToEntity(&res.Document),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

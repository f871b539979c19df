package mapper

import (
	"db-rag-be/internal/entity"
	"db-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	return &entity.Document{
		Id:        d.Id,
		Content:   d.Content,
		Metadata:  map[string]interface{}(d.Metadata),
		Embedding: d.Embedding.Slice(),
		CreatedAt: d.CreatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	return &model.Document{
		Id:        d.Id,
		Content:   d.Content,
		Metadata:  datatypes.JSONMap(d.Metadata),
		Embedding: pgvector.NewVector(d.Embedding),
		CreatedAt: d.CreatedAt,
	}
}

func (m *DocumentMapper) ToEntities(documents []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(documents))
	for i, d := range documents {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ToModels(documents []*entity.Document) []*model.Document {
	models := make([]*model.Document, len(documents))
	for i, d := range documents {
		models[i] = m.ToModel(d)
	}
	return models
}

package mapper

import (
	"encoding/json"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TableCatalogMapper struct{}

func NewTableCatalogMapper() *TableCatalogMapper {
	return &TableCatalogMapper{}
}

func (m *TableCatalogMapper) ToEntity(e *model.TableCatalogEntry) *entity.TableCatalogEntry {
	if e == nil {
		return nil
	}

	var questions []string
	if len(e.SampleQuestions) > 0 {
		// Corrupt JSON in the column degrades to no sample questions
		_ = json.Unmarshal(e.SampleQuestions, &questions)
	}

	return &entity.TableCatalogEntry{
		Id:                   e.Id,
		TableName:            e.Name,
		ColumnDefinitions:    e.ColumnDefinitions,
		TableDescription:     e.TableDescription,
		BusinessContext:      e.BusinessContext,
		SampleQuestions:      questions,
		DescriptionEmbedding: e.DescriptionEmbedding.Slice(),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func (m *TableCatalogMapper) ToModel(e *entity.TableCatalogEntry) *model.TableCatalogEntry {
	if e == nil {
		return nil
	}

	questions := datatypes.JSON("[]")
	if len(e.SampleQuestions) > 0 {
		if raw, err := json.Marshal(e.SampleQuestions); err == nil {
			questions = datatypes.JSON(raw)
		}
	}

	return &model.TableCatalogEntry{
		Id:                   e.Id,
		Name:                 e.TableName,
		ColumnDefinitions:    e.ColumnDefinitions,
		TableDescription:     e.TableDescription,
		BusinessContext:      e.BusinessContext,
		SampleQuestions:      questions,
		DescriptionEmbedding: pgvector.NewVector(e.DescriptionEmbedding),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func (m *TableCatalogMapper) ToEntities(entries []*model.TableCatalogEntry) []*entity.TableCatalogEntry {
	entities := make([]*entity.TableCatalogEntry, len(entries))
	for i, e := range entries {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

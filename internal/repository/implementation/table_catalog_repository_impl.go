package implementation

import (
	"context"
	"errors"
	"strings"

	"db-rag-be/internal/entity"
	"db-rag-be/internal/mapper"
	"db-rag-be/internal/model"
	"db-rag-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TableCatalogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TableCatalogMapper
}

func NewTableCatalogRepository(db *gorm.DB) contract.TableCatalogRepository {
	return &TableCatalogRepositoryImpl{
		db:     db,
		mapper: mapper.NewTableCatalogMapper(),
	}
}

func (r *TableCatalogRepositoryImpl) EnsureTable(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&model.TableCatalogEntry{})
}

func (r *TableCatalogRepositoryImpl) FindByName(ctx context.Context, tableName string) (*entity.TableCatalogEntry, error) {
	var m model.TableCatalogEntry
	err := r.db.WithContext(ctx).Where("table_name = ?", tableName).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TableCatalogRepositoryImpl) FindAll(ctx context.Context) ([]*entity.TableCatalogEntry, error) {
	var models []*model.TableCatalogEntry
	if err := r.db.WithContext(ctx).Order("table_name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TableCatalogRepositoryImpl) Upsert(ctx context.Context, entry *entity.TableCatalogEntry) error {
	m := r.mapper.ToModel(entry)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "table_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"column_definitions",
			"table_description",
			"business_context",
			"sample_questions",
			"description_embedding",
			"updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *TableCatalogRepositoryImpl) DeleteByName(ctx context.Context, tableName string) error {
	return r.db.WithContext(ctx).Where("table_name = ?", tableName).Delete(&model.TableCatalogEntry{}).Error
}

func (r *TableCatalogRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TableCatalogEntry{}).Count(&count).Error
	return count, err
}

func (r *TableCatalogRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredTableCatalogEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.TableCatalogEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("table_metadata_catalog").
		Select("table_metadata_catalog.*, 1 - (description_embedding <=> ?) as similarity", queryVector).
		Where("description_embedding IS NOT NULL").
		Where("1 - (description_embedding <=> ?) > ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTableCatalogEntry, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTableCatalogEntry{
			Entry:      r.mapper.ToEntity(&res.TableCatalogEntry),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *TableCatalogRepositoryImpl) SearchKeyword(ctx context.Context, keywords []string, limit int) ([]*entity.TableCatalogEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	query := r.db.WithContext(ctx).Model(&model.TableCatalogEntry{})

	conditions := r.db.Session(&gorm.Session{NewDB: true}).Model(&model.TableCatalogEntry{})
	matched := false
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		pattern := "%" + kw + "%"
		conditions = conditions.Or("table_name ILIKE ? OR table_description ILIKE ? OR business_context ILIKE ? OR column_definitions ILIKE ?", pattern, pattern, pattern, pattern)
		matched = true
	}
	if !matched {
		return []*entity.TableCatalogEntry{}, nil
	}

	var models []*model.TableCatalogEntry
	if err := query.Where(conditions).Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TableCatalogRepositoryImpl) FindAny(ctx context.Context, limit int) ([]*entity.TableCatalogEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	var models []*model.TableCatalogEntry
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TableCatalogEntry struct {
	Id                   uint            `gorm:"primaryKey;autoIncrement"`
	Name                 string          `gorm:"column:table_name;type:varchar(255);uniqueIndex;not null"`
	ColumnDefinitions    string          `gorm:"type:text"`
	TableDescription     string          `gorm:"type:text"`
	BusinessContext      string          `gorm:"type:text"`
	SampleQuestions      datatypes.JSON  `gorm:"type:jsonb"`
	DescriptionEmbedding pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt            time.Time       `gorm:"autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime"`
}

func (TableCatalogEntry) TableName() string {
	return "table_metadata_catalog"
}

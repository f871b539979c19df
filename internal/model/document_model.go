package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Document struct {
	Id        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content   string            `gorm:"type:text;not null"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding pgvector.Vector   `gorm:"type:vector(1536)"` // text-embedding-3-small uses 1536 dimensions
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (Document) TableName() string {
	return "company_documents"
}

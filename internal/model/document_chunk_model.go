package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type DocumentChunk struct {
	ChunkId    string          `gorm:"type:varchar(120);primaryKey"`
	DocumentId string          `gorm:"type:varchar(60);not null;index"`
	ChunkIndex int             `gorm:"default:0"`
	Text       string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text produces 768 dimensions
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

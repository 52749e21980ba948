package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename   string    `gorm:"type:text;not null"`
	Filepath   string    `gorm:"type:text;not null"`
	Filetype   string    `gorm:"type:varchar(20)"`
	Title      string    `gorm:"type:text"`
	Summary    string    `gorm:"type:text"`
	Status     string    `gorm:"type:varchar(20);default:'pending';index"`
	ChunkCount int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "knowledge_documents"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Note struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string         `gorm:"type:text;not null"`
	Content   string         `gorm:"type:text"`
	Folder    string         `gorm:"type:varchar(100);default:'Inbox';index"`
	Tags      datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	IsPinned  bool           `gorm:"default:false"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
}

func (Note) TableName() string {
	return "notes"
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string     `gorm:"type:text;not null"`
	Description string     `gorm:"type:text"`
	Status      string     `gorm:"type:varchar(50);default:'todo';index"`
	Priority    int        `gorm:"default:2"`
	DueDate     *time.Time `gorm:"index"`
	Project     string     `gorm:"type:varchar(200);default:''"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (Task) TableName() string {
	return "tasks"
}

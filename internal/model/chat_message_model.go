package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string    `gorm:"type:varchar(50);not null;default:'default';index:idx_chat_session"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Content   string    `gorm:"type:text;not null"`
	Provider  string    `gorm:"type:varchar(50);default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_session"`
}

func (ChatMessage) TableName() string {
	return "chat_history"
}

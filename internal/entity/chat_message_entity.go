package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// ChatMessage is immutable once written. SessionId is the date-based session
// identifier ("02.01.2006" or "02.01.2006.N"); sessions have no row of their
// own and are derived from the messages that carry their id.
type ChatMessage struct {
	Id        uuid.UUID
	SessionId string
	Role      string
	Content   string
	Provider  string
	CreatedAt time.Time
}

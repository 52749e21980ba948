package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type codes published on the bus.
const (
	TypeChatMessageSent      = "CHAT_MESSAGE_SENT"
	TypeChatResponseReceived = "CHAT_RESPONSE_RECEIVED"
	TypeChatSessionCreated   = "CHAT_SESSION_CREATED"

	TypeNoteCreated = "NOTE_CREATED"
	TypeNoteUpdated = "NOTE_UPDATED"
	TypeNoteDeleted = "NOTE_DELETED"

	TypeTaskCreated   = "TASK_CREATED"
	TypeTaskUpdated   = "TASK_UPDATED"
	TypeTaskCompleted = "TASK_COMPLETED"
	TypeTaskDeleted   = "TASK_DELETED"

	TypeEventCreated = "EVENT_CREATED"
	TypeEventUpdated = "EVENT_UPDATED"
	TypeEventDeleted = "EVENT_DELETED"

	TypeDocumentAdded     = "DOCUMENT_ADDED"
	TypeDocumentProcessed = "DOCUMENT_PROCESSED"
	TypeDocumentFailed    = "DOCUMENT_FAILED"
	TypeDocumentDeleted   = "DOCUMENT_DELETED"
)

// BaseEvent is the common implementation used across the codebase.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func NewEvent(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

package specification

import "gorm.io/gorm"

// BySessionID filters chat messages by their owning session id.
type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

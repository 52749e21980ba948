package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionState tracks the volatile, per-session bookkeeping that never hits
// the database: whether a generation is currently running for the session
// and when it was last touched.
type SessionState struct {
	ID           string
	Busy         bool
	LastActivity time.Time
}

type SessionStateRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionStateRepository() *SessionStateRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes. Idle
	// sessions simply fall out of the cache.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionStateRepository{
		cache: c,
	}
}

func (r *SessionStateRepository) Get(sessionID string) (*SessionState, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*SessionState), true
	}
	return nil, false
}

// TryAcquire marks the session busy. It returns false when a generation is
// already in flight for the session.
func (r *SessionStateRepository) TryAcquire(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionID); found {
		state := x.(*SessionState)
		if state.Busy {
			return false
		}
	}
	r.cache.Set(sessionID, &SessionState{
		ID:           sessionID,
		Busy:         true,
		LastActivity: time.Now(),
	}, cache.DefaultExpiration)
	return true
}

func (r *SessionStateRepository) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Set(sessionID, &SessionState{
		ID:           sessionID,
		Busy:         false,
		LastActivity: time.Now(),
	}, cache.DefaultExpiration)
}

func (r *SessionStateRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

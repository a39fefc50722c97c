package chat

import (
	"encoding/json"
	"sync"

	"WebChat/logger"
)

// Registry maps an identity to its live sessions. An identity has an entry
// iff it holds at least one open session; the entry disappears with the
// last unregister.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[int64]map[string]*Session)}
}

func (r *Registry) Register(s *Session) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	mm := r.byUser[s.UserID]
	if mm == nil {
		mm = make(map[string]*Session)
		r.byUser[s.UserID] = mm
	}
	mm[s.ID] = s
}

// Unregister removes exactly one session and reports how many the identity
// still holds, decided inside the same critical section so two teardowns
// racing to zero cannot both see an empty set. Removing an absent session
// is a no-op; connections legitimately close twice.
func (r *Registry) Unregister(s *Session) int {
	if s == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	mm := r.byUser[s.UserID]
	if mm == nil {
		return 0
	}
	delete(mm, s.ID)
	remaining := len(mm)
	if remaining == 0 {
		delete(r.byUser, s.UserID)
	}
	return remaining
}

// SessionCount reports the live sessions of an identity.
func (r *Registry) SessionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

func (r *Registry) snapshot(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mm := r.byUser[userID]
	if len(mm) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(mm))
	for _, s := range mm {
		out = append(out, s)
	}
	return out
}

// Deliver sends the event to every session of the identity. Each session is
// attempted independently; a dead socket is logged and skipped.
func (r *Registry) Deliver(userID int64, event any) {
	r.deliver(userID, event, "")
}

// DeliverExcept skips one named session, so an acting device does not hear
// its own side effects.
func (r *Registry) DeliverExcept(userID int64, event any, excludedSessionID string) {
	r.deliver(userID, event, excludedSessionID)
}

func (r *Registry) deliver(userID int64, event any, excludedSessionID string) {
	sessions := r.snapshot(userID)
	if len(sessions) == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("registry: marshal event for user=%d: %v", userID, err)
		return
	}
	for _, s := range sessions {
		if excludedSessionID != "" && s.ID == excludedSessionID {
			continue
		}
		s.Enqueue(data)
	}
}

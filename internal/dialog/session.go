package dialog

import (
	"time"

	"gastos/internal/cache"
)

// Sessions holds per-user dialog state. Entries expire after ttl of
// inactivity and the least recently used ones are evicted beyond maxUsers.
type Sessions struct {
	states cache.Expiring[int64, State]
}

func NewSessions(maxUsers int, ttl time.Duration, opts ...cache.Option) *Sessions {
	return newSessions(cache.NewLRUCache[int64, State](maxUsers, ttl, opts...))
}

func newSessions(states cache.Expiring[int64, State]) *Sessions {
	return &Sessions{states: states}
}

// Get returns the user's state, Idle when none is stored.
func (s *Sessions) Get(userID int64) State {
	st, ok := s.states.Get(userID)
	if !ok {
		return State{}
	}
	return st
}

// Put stores st, or clears the session when st is Idle.
func (s *Sessions) Put(userID int64, st State) {
	if st.Stage == StageIdle {
		s.states.Delete(userID)
		return
	}
	s.states.Set(userID, st)
}

func (s *Sessions) Clear(userID int64) {
	s.states.Delete(userID)
}

// CleanExpired lets a cache.Janitor drop abandoned dialogs.
func (s *Sessions) CleanExpired() int {
	return s.states.CleanExpired()
}

func (s *Sessions) Len() int {
	return s.states.Size()
}

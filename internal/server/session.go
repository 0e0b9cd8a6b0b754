package server

import (
	"sync"

	"github.com/google/uuid"

	"concierge/internal/dialogue"
)

// #region session-registry

// session pairs one dialogue state with the mutex that serializes its turns.
// Turns for different sessions run concurrently; turns for the same session
// never overlap.
type session struct {
	mu sync.Mutex
	st *dialogue.State
}

// Sessions is the registry mapping session ids to per-conversation state.
type Sessions struct {
	mu        sync.Mutex
	byID      map[string]*session
	dbEnabled bool
}

// NewSessions builds an empty registry. dbEnabled seeds the database toggle
// of every state it creates.
func NewSessions(dbEnabled bool) *Sessions {
	return &Sessions{byID: make(map[string]*session), dbEnabled: dbEnabled}
}

// Acquire returns the state for id with its turn lock held, creating the
// session when id is unknown. An empty id mints a fresh uuid. The caller must
// call release exactly once when the turn is finished.
func (s *Sessions) Acquire(id string) (string, *dialogue.State, func()) {
	s.mu.Lock()
	if id == "" {
		id = uuid.NewString()
	}
	sess, ok := s.byID[id]
	if !ok {
		st := dialogue.NewState()
		st.DBEnabled = s.dbEnabled
		sess = &session{st: st}
		s.byID[id] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	return id, sess.st, sess.mu.Unlock
}

// Count reports how many sessions are live.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Drop removes a session from the registry.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// #endregion session-registry

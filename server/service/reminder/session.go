package reminder

import "sync"

// Session is the per-owner state kept for the life of the process.
type Session struct {
	Language string
}

// SessionStore maps owners to their session. It is safe for concurrent use.
// Sessions are process-local, which limits the bot to a single instance.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the owner's session.
func (s *SessionStore) Get(ownerID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[ownerID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// Update applies fn to the owner's session, creating it if needed.
func (s *SessionStore) Update(ownerID int64, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[ownerID]
	if !ok {
		session = &Session{}
		s.sessions[ownerID] = session
	}
	fn(session)
}

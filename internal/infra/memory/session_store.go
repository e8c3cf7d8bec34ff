package memory

import (
	"sync"
	"time"

	"quizpal-service/internal/app"
)

const defaultSessionTTL = 30 * time.Minute

// SessionStore is an in-memory implementation of app.SessionStore, keyed by
// session ID. Sessions are ephemeral: finished or abandoned ones are deleted,
// and ones the player walked away from expire after the TTL so the map stays
// bounded.
type SessionStore struct {
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithTTL(defaultSessionTTL)
}

func NewSessionStoreWithTTL(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(session) {
		delete(s.sessions, id)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) expired(session *app.Session) bool {
	return s.ttl > 0 && time.Since(session.CreatedAt()) > s.ttl
}

func (s *SessionStore) sweepLocked() {
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
		}
	}
}

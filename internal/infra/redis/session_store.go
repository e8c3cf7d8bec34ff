package redis

import (
	"context"
	"sync"
	"time"

	"quizpal-service/internal/app"
	"github.com/redis/go-redis/v9"
)

const sweepInterval = time.Minute

// SessionStore is a Redis-aware implementation of app.SessionStore.
// Notes:
//   - Sessions themselves stay in a local in-memory map; the state machine
//     (cursor, score, answer lock) is cheap and per-connection.
//   - Redis marks session liveness with a TTL key. The key is authoritative:
//     once it expires the session reads as gone, and the local entry is
//     dropped on the next Get or sweep, so abandoned sessions cannot
//     accumulate in the map.
type SessionStore struct {
	client    *redis.Client
	ttl       time.Duration
	mu        sync.Mutex
	sessions  map[string]*app.Session
	lastSweep time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.UserID(), s.ttl).Err()
	s.sweepLocked()
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.alive(id) {
		delete(s.sessions, id)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) alive(id string) bool {
	n, err := s.client.Exists(context.Background(), s.key(id)).Result()
	// On a Redis outage keep serving from the local map.
	return err != nil || n > 0
}

// sweepLocked drops local entries whose liveness key expired. Rate-limited so
// session churn does not turn every Put into a full scan.
func (s *SessionStore) sweepLocked() {
	if time.Since(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = time.Now()
	for id := range s.sessions {
		if !s.alive(id) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}

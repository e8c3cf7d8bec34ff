package memory

import (
	"context"
	"sync"

	"quizpal-service/internal/domain"
)

// UserStore backs the auth handlers in demo mode and tests. It shares nothing
// with ScoreRepository; demo mode wires the same users into both by ID.
type UserStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.User
	hashes map[string]string // keyed by email
	emails map[string]string // email -> id
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[string]domain.User),
		hashes: make(map[string]string),
		emails: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.byID[user.ID] = user
	s.emails[user.Email] = user.ID
	s.hashes[user.Email] = passwordHash
	return nil
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (domain.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, "", domain.ErrUserNotFound
	}
	return s.byID[id], s.hashes[email], nil
}

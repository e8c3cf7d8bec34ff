package memory

import (
	"context"
	"sync"

	"quizpal-service/internal/domain"
)

// ScoreRepository keeps aggregates and the history log in memory. It also
// implements the conditional ratchet, which is trivially atomic under its lock.
type ScoreRepository struct {
	mu      sync.Mutex
	users   map[string]domain.User
	history []domain.ScoreEvent
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{users: make(map[string]domain.User)}
}

func (r *ScoreRepository) AppendHistory(_ context.Context, event domain.ScoreEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, event)
	return nil
}

// History returns a copy of the append-only log.
func (r *ScoreRepository) History(_ context.Context, userID string) ([]domain.ScoreEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ScoreEvent
	for _, e := range r.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *ScoreRepository) GetAggregate(_ context.Context, userID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *ScoreRepository) SetAggregate(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *ScoreRepository) UpdateBestScore(_ context.Context, userID, key string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if user.Scores == nil {
		user.Scores = map[string]int{}
	}
	user.Scores[key] = score
	r.users[userID] = user
	return nil
}

// RatchetBestScore writes score only when it beats the stored value.
func (r *ScoreRepository) RatchetBestScore(_ context.Context, userID, key string, score int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return 0, false, domain.ErrUserNotFound
	}
	if user.Scores == nil {
		user.Scores = map[string]int{}
	}
	old := user.Scores[key]
	if score <= old {
		return old, false, nil
	}
	user.Scores[key] = score
	r.users[userID] = user
	return old, true, nil
}

func cloneUser(user domain.User) domain.User {
	scores := make(map[string]int, len(user.Scores))
	for k, v := range user.Scores {
		scores[k] = v
	}
	user.Scores = scores
	return user
}

package memory

import (
	"context"
	"sort"
	"sync"

	"quizpal-service/internal/domain"
)

// QuestionRepository is an in-memory implementation of the question contract,
// used in demo mode and tests.
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
}

func NewQuestionRepository(seed []domain.Question) *QuestionRepository {
	questions := make(map[string]domain.Question, len(seed))
	for _, q := range seed {
		questions[q.ID] = q
	}
	return &QuestionRepository{questions: questions}
}

func (r *QuestionRepository) ListByCategory(_ context.Context, categoryID, difficulty string) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Question
	for _, q := range r.questions {
		if q.CategoryID != categoryID {
			continue
		}
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *QuestionRepository) GetByID(_ context.Context, id string) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (r *QuestionRepository) Create(_ context.Context, question domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[question.ID] = question
	return nil
}

func (r *QuestionRepository) Update(_ context.Context, question domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	r.questions[question.ID] = question
	return nil
}

func (r *QuestionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(r.questions, id)
	return nil
}

func (r *QuestionRepository) CountByCategory(_ context.Context, categoryID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, q := range r.questions {
		if q.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

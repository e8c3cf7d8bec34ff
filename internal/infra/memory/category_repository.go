package memory

import (
	"context"
	"sort"
	"sync"

	"quizpal-service/internal/domain"
)

// CategoryRepository is the in-memory category store for demo mode and tests.
type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
}

func NewCategoryRepository(seed []domain.Category) *CategoryRepository {
	categories := make(map[string]domain.Category, len(seed))
	for _, c := range seed {
		categories[c.ID] = c
	}
	return &CategoryRepository{categories: categories}
}

func (r *CategoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepository) Get(_ context.Context, id string) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (r *CategoryRepository) Create(_ context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.ID] = category
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *CategoryRepository) AdjustQuestionCount(_ context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.QuestionCount += delta
	if c.QuestionCount < 0 {
		c.QuestionCount = 0
	}
	r.categories[id] = c
	return nil
}

func (r *CategoryRepository) SetQuestionCount(_ context.Context, id string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.QuestionCount = count
	r.categories[id] = c
	return nil
}

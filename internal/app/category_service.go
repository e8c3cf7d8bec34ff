package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizpal-service/internal/domain"
	"github.com/google/uuid"
)

// CategoryRepository persists categories and their denormalized question counts.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (domain.Category, error)
	Create(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, id string) error
	AdjustQuestionCount(ctx context.Context, id string, delta int) error
	SetQuestionCount(ctx context.Context, id string, count int) error
}

// QuestionCounter recounts questions per category from the source of truth.
type QuestionCounter interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryService manages categories and keeps their question counts honest.
type CategoryService struct {
	categories CategoryRepository
	counter    QuestionCounter
}

func NewCategoryService(categories CategoryRepository, counter QuestionCounter) *CategoryService {
	return &CategoryService{categories: categories, counter: counter}
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Add creates a category. Icon defaults to "cube" when empty.
func (s *CategoryService) Add(ctx context.Context, name, icon string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("category name is required")
	}
	if icon == "" {
		icon = "cube"
	}
	category := domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      icon,
		CreatedAt: time.Now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Delete removes a category. Questions under it are left orphaned, as in the
// original admin panel; they stop being reachable from the category list.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// SyncQuestionCounts recomputes every category's questionCount from the
// questions table. The count is adjusted incrementally on question add/delete
// and can drift; this is the repair operation.
func (s *CategoryService) SyncQuestionCounts(ctx context.Context) error {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, cat := range cats {
		count, err := s.counter.CountByCategory(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("count questions for %s: %w", cat.ID, err)
		}
		if err := s.categories.SetQuestionCount(ctx, cat.ID, count); err != nil {
			return fmt.Errorf("set question count for %s: %w", cat.ID, err)
		}
	}
	return nil
}

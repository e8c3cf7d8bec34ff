package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizpal-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionAdminRepository is the full question contract used by the admin surface.
type QuestionAdminRepository interface {
	QuestionRepository
	QuestionCounter
	GetByID(ctx context.Context, id string) (domain.Question, error)
	Create(ctx context.Context, question domain.Question) error
	Update(ctx context.Context, question domain.Question) error
	Delete(ctx context.Context, id string) error
}

// QuestionService covers the admin panel's question CRUD. Add and Delete
// adjust the owning category's questionCount incrementally; that count is the
// drifting cache CategoryService.SyncQuestionCounts repairs.
type QuestionService struct {
	questions  QuestionAdminRepository
	categories CategoryRepository
}

func NewQuestionService(questions QuestionAdminRepository, categories CategoryRepository) *QuestionService {
	return &QuestionService{questions: questions, categories: categories}
}

func validateQuestion(text string, options []string, correctAnswer, difficulty string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("question text is required")
	}
	if len(options) < 2 {
		return fmt.Errorf("at least two options are required")
	}
	found := false
	for _, opt := range options {
		if opt == correctAnswer {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("correct answer must be one of the options")
	}
	if !domain.ValidDifficulty(difficulty) {
		return fmt.Errorf("unknown difficulty %q", difficulty)
	}
	return nil
}

// ListByCategory returns all questions under a category for the admin list view.
func (s *QuestionService) ListByCategory(ctx context.Context, categoryID string) ([]domain.Question, error) {
	qs, err := s.questions.ListByCategory(ctx, categoryID, "")
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// Get returns one question by ID.
func (s *QuestionService) Get(ctx context.Context, id string) (domain.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// Add creates a question and bumps the category's question count.
func (s *QuestionService) Add(ctx context.Context, categoryID, text string, options []string, correctAnswer, difficulty string) (domain.Question, error) {
	if err := validateQuestion(text, options, correctAnswer, difficulty); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		return domain.Question{}, err
	}
	question := domain.Question{
		ID:            uuid.NewString(),
		CategoryID:    categoryID,
		Text:          text,
		Options:       options,
		CorrectAnswer: correctAnswer,
		Difficulty:    difficulty,
		CreatedAt:     time.Now(),
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	if err := s.categories.AdjustQuestionCount(ctx, categoryID, 1); err != nil {
		return domain.Question{}, fmt.Errorf("bump question count: %w", err)
	}
	return question, nil
}

// Update rewrites a question's content in place. The category is not changed,
// so no count adjustment is needed.
func (s *QuestionService) Update(ctx context.Context, id, text string, options []string, correctAnswer, difficulty string) error {
	if err := validateQuestion(text, options, correctAnswer, difficulty); err != nil {
		return err
	}
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	question.Text = text
	question.Options = options
	question.CorrectAnswer = correctAnswer
	question.Difficulty = difficulty
	if err := s.questions.Update(ctx, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// Delete removes a question and decrements the owning category's count.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if question.CategoryID != "" {
		if err := s.categories.AdjustQuestionCount(ctx, question.CategoryID, -1); err != nil {
			return fmt.Errorf("drop question count: %w", err)
		}
	}
	return nil
}

package app

import (
	"context"
	"fmt"
	"strings"

	"quizpal-service/internal/domain"
)

// StudyTargetStore persists a user's study checklist (embedded SQLite in production).
type StudyTargetStore interface {
	List(ctx context.Context, userID string) ([]domain.StudyTarget, error)
	Add(ctx context.Context, userID, title string) (domain.StudyTarget, error)
	Toggle(ctx context.Context, userID string, id int64) error
	Rename(ctx context.Context, userID string, id int64, title string) error
	Delete(ctx context.Context, userID string, id int64) error
}

// TargetService is a thin validation layer over the study target store. The
// checklist has no relation to quiz data.
type TargetService struct {
	store StudyTargetStore
}

func NewTargetService(store StudyTargetStore) *TargetService {
	return &TargetService{store: store}
}

func (s *TargetService) List(ctx context.Context, userID string) ([]domain.StudyTarget, error) {
	return s.store.List(ctx, userID)
}

func (s *TargetService) Add(ctx context.Context, userID, title string) (domain.StudyTarget, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.StudyTarget{}, fmt.Errorf("target title is required")
	}
	return s.store.Add(ctx, userID, title)
}

func (s *TargetService) Toggle(ctx context.Context, userID string, id int64) error {
	return s.store.Toggle(ctx, userID, id)
}

func (s *TargetService) Rename(ctx context.Context, userID string, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("target title is required")
	}
	return s.store.Rename(ctx, userID, id, title)
}

func (s *TargetService) Delete(ctx context.Context, userID string, id int64) error {
	return s.store.Delete(ctx, userID, id)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizpal-service/internal/domain"
)

// ScoreRepository reads and writes score history and per-user aggregates.
type ScoreRepository interface {
	AppendHistory(ctx context.Context, event domain.ScoreEvent) error
	GetAggregate(ctx context.Context, userID string) (domain.User, error)
	SetAggregate(ctx context.Context, user domain.User) error
	UpdateBestScore(ctx context.Context, userID, key string, score int) error
}

// ConditionalRatcheter is an optional capability of a ScoreRepository: an
// atomic compare-and-set of the best score, returning the prior value and
// whether the write took effect.
type ConditionalRatcheter interface {
	RatchetBestScore(ctx context.Context, userID, key string, score int) (oldScore int, updated bool, err error)
}

// ScoreService ratchets a user's best score per (category, difficulty) and
// records a history event for every attempt.
type ScoreService struct {
	scores ScoreRepository
	// atomic selects the conditional ratchet when the repository supports it.
	// The default read-compare-write path mirrors the mobile app: two
	// concurrent completions of the same pair race and the later write wins.
	// Acceptable under the single-active-session-per-user usage pattern.
	atomic bool
	clock  func() time.Time
}

func NewScoreService(scores ScoreRepository, atomic bool) *ScoreService {
	return &ScoreService{scores: scores, atomic: atomic, clock: time.Now}
}

// NewScoreServiceWithClock is test-only for deterministic timestamps.
func NewScoreServiceWithClock(scores ScoreRepository, atomic bool, clock func() time.Time) *ScoreService {
	return &ScoreService{scores: scores, atomic: atomic, clock: clock}
}

// RecordAttempt appends a history entry unconditionally, then updates the
// user's best score for the (category, difficulty) pair only if improved.
// The history append is never rolled back if the aggregate update fails;
// the log is authoritative for audit and the aggregate is a derived cache.
func (s *ScoreService) RecordAttempt(ctx context.Context, user domain.UserRef, categoryID, difficulty string, score int) (domain.AttemptResult, error) {
	event := domain.ScoreEvent{
		UserID:     user.ID,
		CategoryID: categoryID,
		Difficulty: difficulty,
		Score:      score,
		PlayedAt:   s.clock(),
	}
	if err := s.scores.AppendHistory(ctx, event); err != nil {
		return domain.AttemptResult{}, fmt.Errorf("append score history: %w", err)
	}

	aggregate, err := s.scores.GetAggregate(ctx, user.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		aggregate = domain.User{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayNameOrFallback(),
			Role:        domain.RoleUser,
			Scores:      map[string]int{},
		}
		if err := s.scores.SetAggregate(ctx, aggregate); err != nil {
			return domain.AttemptResult{}, fmt.Errorf("seed user aggregate: %w", err)
		}
	} else if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("load user aggregate: %w", err)
	}

	key := domain.ScoreKey(categoryID, difficulty)

	if ratcheter, ok := s.scores.(ConditionalRatcheter); ok && s.atomic {
		oldScore, updated, err := ratcheter.RatchetBestScore(ctx, user.ID, key, score)
		if err != nil {
			return domain.AttemptResult{}, fmt.Errorf("ratchet best score: %w", err)
		}
		if updated {
			return domain.AttemptResult{Status: domain.StatusNewRecord, OldScore: oldScore}, nil
		}
		return domain.AttemptResult{Status: domain.StatusNoRecord, OldScore: oldScore}, nil
	}

	oldScore := aggregate.Scores[key]
	if score > oldScore {
		if err := s.scores.UpdateBestScore(ctx, user.ID, key, score); err != nil {
			return domain.AttemptResult{}, fmt.Errorf("update best score: %w", err)
		}
		return domain.AttemptResult{Status: domain.StatusNewRecord, OldScore: oldScore}, nil
	}
	return domain.AttemptResult{Status: domain.StatusNoRecord, OldScore: oldScore}, nil
}

// UpdateDisplayName renames the user on their account row and returns the
// refreshed profile. A first-time caller without a row gets one seeded, the
// same as recording an attempt does.
func (s *ScoreService) UpdateDisplayName(ctx context.Context, user domain.UserRef, name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, fmt.Errorf("display name is required")
	}

	aggregate, err := s.scores.GetAggregate(ctx, user.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		aggregate = domain.User{
			ID:     user.ID,
			Email:  user.Email,
			Role:   domain.RoleUser,
			Scores: map[string]int{},
		}
	} else if err != nil {
		return domain.Profile{}, fmt.Errorf("load user aggregate: %w", err)
	}

	aggregate.DisplayName = name
	if err := s.scores.SetAggregate(ctx, aggregate); err != nil {
		return domain.Profile{}, fmt.Errorf("update display name: %w", err)
	}
	return profileOf(aggregate), nil
}

// Profile assembles the profile view: the aggregate map, its total, and the
// rank derived from the total. A missing account row yields an empty profile
// rather than an error, matching the mobile app's profile screen.
func (s *ScoreService) Profile(ctx context.Context, user domain.UserRef) (domain.Profile, error) {
	aggregate, err := s.scores.GetAggregate(ctx, user.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		aggregate = domain.User{
			Email:       user.Email,
			DisplayName: user.DisplayNameOrFallback(),
			Scores:      map[string]int{},
		}
	} else if err != nil {
		return domain.Profile{}, fmt.Errorf("load user aggregate: %w", err)
	}
	return profileOf(aggregate), nil
}

func profileOf(aggregate domain.User) domain.Profile {
	total := 0
	for _, v := range aggregate.Scores {
		total += v
	}
	return domain.Profile{
		DisplayName: aggregate.DisplayName,
		Email:       aggregate.Email,
		TotalScore:  total,
		Rank:        RankFor(total),
		Scores:      aggregate.Scores,
	}
}

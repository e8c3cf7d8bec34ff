package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quizpal-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionRepository loads question content for session bootstrap (from
// cache/backing store). An empty result is not an error; it is reported as
// domain.ErrNoQuestions by the service so callers can navigate back instead
// of showing a generic failure.
type QuestionRepository interface {
	ListByCategory(ctx context.Context, categoryID, difficulty string) ([]domain.Question, error)
}

// SessionStore holds live play sessions between requests (in-memory, Redis-backed, etc).
type SessionStore interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// SessionSettings tune session construction.
type SessionSettings struct {
	// Size is the maximum number of questions sampled per session.
	Size int
	// Points awarded per correct answer.
	Points int
	// LockAnswers rejects a second submission for the same question.
	LockAnswers bool
}

// SessionService creates and tracks quiz play sessions.
type SessionService struct {
	questions QuestionRepository
	store     SessionStore
	settings  SessionSettings
	shuffle   func(n int, swap func(i, j int))
}

func NewSessionService(questions QuestionRepository, store SessionStore, settings SessionSettings) *SessionService {
	return NewSessionServiceWithShuffle(questions, store, settings, rand.Shuffle)
}

// NewSessionServiceWithShuffle is test-only for deterministic question order.
func NewSessionServiceWithShuffle(questions QuestionRepository, store SessionStore, settings SessionSettings, shuffle func(n int, swap func(i, j int))) *SessionService {
	if settings.Size <= 0 {
		settings.Size = 10
	}
	if settings.Points <= 0 {
		settings.Points = 10
	}
	return &SessionService{
		questions: questions,
		store:     store,
		settings:  settings,
		shuffle:   shuffle,
	}
}

// Start fetches questions for the category/difficulty, samples up to
// settings.Size of them with a uniform shuffle, and registers a fresh session.
func (s *SessionService) Start(ctx context.Context, userID, categoryID, difficulty string) (*Session, error) {
	qs, err := s.questions.ListByCategory(ctx, categoryID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, domain.ErrNoQuestions
	}

	s.shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if len(qs) > s.settings.Size {
		qs = qs[:s.settings.Size]
	}

	session := &Session{
		id:          uuid.NewString(),
		userID:      userID,
		categoryID:  categoryID,
		difficulty:  difficulty,
		questions:   qs,
		points:      s.settings.Points,
		lockAnswers: s.settings.LockAnswers,
		createdAt:   time.Now(),
	}
	s.store.Put(session)
	return session, nil
}

// Get returns a live session by ID.
func (s *SessionService) Get(id string) (*Session, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Abandon discards a session with no persisted side effects; the score is
// only written at session end, on reconciliation.
func (s *SessionService) Abandon(id string) {
	s.store.Delete(id)
}

// Session is one playthrough of up to Size sampled questions for a given
// category+difficulty. It lives in memory only and is discarded when the
// player finishes or abandons it.
type Session struct {
	id         string
	userID     string
	categoryID string
	difficulty string
	createdAt  time.Time

	points      int
	lockAnswers bool

	mu        sync.Mutex
	questions []domain.Question
	current   int
	score     int
	finished  bool
	answered  bool
}

func (s *Session) ID() string         { return s.id }
func (s *Session) UserID() string     { return s.userID }
func (s *Session) CategoryID() string { return s.categoryID }
func (s *Session) Difficulty() string { return s.difficulty }

// CreatedAt is used by stores to expire sessions the player walked away from.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Current returns the question at the cursor.
func (s *Session) Current() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return domain.Question{}, domain.ErrSessionFinished
	}
	return s.questions[s.current], nil
}

// SubmitAnswer checks selected against the current question's correct answer
// and awards points on a match. It does not advance the cursor; advancing is
// a separate explicit step so the caller can show feedback first.
func (s *Session) SubmitAnswer(selected string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false, domain.ErrSessionFinished
	}
	if s.answered && s.lockAnswers {
		return false, domain.ErrAnswerLocked
	}
	s.answered = true

	correct := selected == s.questions[s.current].CorrectAnswer
	if correct {
		s.score += s.points
	}
	return correct, nil
}

// Advance moves to the next question, or marks the session finished when the
// cursor is on the last one. Calling it again after that is a no-op.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return true
	}
	if s.current < len(s.questions)-1 {
		s.current++
		s.answered = false
		return false
	}
	s.finished = true
	return true
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Score returns the running score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Progress returns the zero-based cursor and the total question count.
func (s *Session) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, len(s.questions)
}

// Result is the handoff to a results view; ok is false until the session finishes.
func (s *Session) Result() (domain.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return domain.SessionResult{}, false
	}
	return domain.SessionResult{
		Score:          s.score,
		TotalQuestions: len(s.questions),
		CategoryID:     s.categoryID,
		Difficulty:     s.difficulty,
	}, true
}

// NewSessionForTest builds a session directly from a question list, bypassing
// the repository fetch and shuffle.
func NewSessionForTest(userID, categoryID, difficulty string, questions []domain.Question, points int, lockAnswers bool) *Session {
	return &Session{
		id:          uuid.NewString(),
		userID:      userID,
		categoryID:  categoryID,
		difficulty:  difficulty,
		questions:   questions,
		points:      points,
		lockAnswers: lockAnswers,
		createdAt:   time.Now(),
	}
}

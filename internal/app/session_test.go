package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quizpal-service/internal/app"
	"quizpal-service/internal/domain"
	"quizpal-service/internal/infra/memory"
)

func newTestSessionService(questions []domain.Question, lockAnswers bool) *app.SessionService {
	return app.NewSessionServiceWithShuffle(
		memory.NewQuestionRepository(questions),
		memory.NewSessionStore(),
		app.SessionSettings{Size: 10, Points: 10, LockAnswers: lockAnswers},
		func(n int, swap func(i, j int)) {}, // keep fetch order
	)
}

func historyQuestions() []domain.Question {
	qs := make([]domain.Question, 3)
	for i := range qs {
		qs[i] = domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			CategoryID:    "history",
			Text:          fmt.Sprintf("question %d", i+1),
			Options:       []string{"right", "wrong"},
			CorrectAnswer: "right",
			Difficulty:    domain.DifficultyEasy,
		}
	}
	return qs
}

func TestFullPlaythroughAllCorrect(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)

	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	for i := 0; i < 3; i++ {
		q, err := session.Current()
		if err != nil {
			t.Fatalf("current question %d: %v", i, err)
		}
		correct, err := session.SubmitAnswer(q.CorrectAnswer)
		if err != nil {
			t.Fatalf("submit answer %d: %v", i, err)
		}
		if !correct {
			t.Fatalf("expected correct answer at question %d", i)
		}
		finished := session.Advance()
		if want := i == 2; finished != want {
			t.Fatalf("advance %d: finished=%v, want %v", i, finished, want)
		}
	}

	result, ok := session.Result()
	if !ok {
		t.Fatalf("expected finished result")
	}
	if result.Score != 30 || result.TotalQuestions != 3 {
		t.Fatalf("expected score 30 over 3 questions, got %+v", result)
	}
	if result.CategoryID != "history" || result.Difficulty != domain.DifficultyEasy {
		t.Fatalf("result handoff lost category/difficulty: %+v", result)
	}
}

func TestWrongAnswerScoresNothing(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	correct, err := session.SubmitAnswer("wrong")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if correct {
		t.Fatalf("expected wrong answer to report false")
	}
	if session.Score() != 0 {
		t.Fatalf("expected score 0, got %d", session.Score())
	}
}

func TestScoreStaysBoundedAndMultipleOfTen(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, total := session.Progress()
	for i := 0; i < total; i++ {
		q, _ := session.Current()
		answer := q.CorrectAnswer
		if i%2 == 1 {
			answer = "wrong"
		}
		if _, err := session.SubmitAnswer(answer); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		score := session.Score()
		if score < 0 || score > 10*total {
			t.Fatalf("score %d out of bounds for %d questions", score, total)
		}
		if score%10 != 0 {
			t.Fatalf("score %d is not a multiple of 10", score)
		}
		session.Advance()
	}
}

func TestAdvancePastEndIsNoOp(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	_, total := session.Progress()
	for i := 0; i < total; i++ {
		session.Advance()
	}
	if !session.Finished() {
		t.Fatalf("expected session finished after %d advances", total)
	}

	// Further advances must not change anything.
	session.Advance()
	session.Advance()
	if !session.Finished() {
		t.Fatalf("session left finished state")
	}
	if _, err := session.SubmitAnswer("right"); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
}

func TestEmptyCategoryAborts(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)

	// No questions exist for "hard" in this category.
	_, err := service.Start(context.Background(), "u1", "history", domain.DifficultyHard)
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}

	_, err = service.Start(context.Background(), "u1", "no-such-category", "")
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions for unknown category, got %v", err)
	}
}

func TestRepositoryFailureAborts(t *testing.T) {
	boom := errors.New("backend down")
	service := app.NewSessionService(failingQuestionRepo{err: boom}, memory.NewSessionStore(), app.SessionSettings{})

	_, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
	if errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("repository failure must stay distinct from the empty result")
	}
}

type failingQuestionRepo struct{ err error }

func (r failingQuestionRepo) ListByCategory(context.Context, string, string) ([]domain.Question, error) {
	return nil, r.err
}

func TestSessionSamplesAtMostSize(t *testing.T) {
	var qs []domain.Question
	for i := 0; i < 25; i++ {
		qs = append(qs, domain.Question{
			ID:            fmt.Sprintf("q%d", i),
			CategoryID:    "geo",
			Text:          "?",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			Difficulty:    domain.DifficultyEasy,
		})
	}
	service := newTestSessionService(qs, true)
	session, err := service.Start(context.Background(), "u1", "geo", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, total := session.Progress(); total != 10 {
		t.Fatalf("expected 10 sampled questions, got %d", total)
	}
}

func TestLockedAnswerRejectsResubmission(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	if _, err := session.SubmitAnswer("wrong"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := session.SubmitAnswer("right"); !errors.Is(err, domain.ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked, got %v", err)
	}
	if session.Score() != 0 {
		t.Fatalf("locked resubmission must not score, got %d", session.Score())
	}

	// The lock resets on advance.
	session.Advance()
	q, _ := session.Current()
	if _, err := session.SubmitAnswer(q.CorrectAnswer); err != nil {
		t.Fatalf("submit after advance: %v", err)
	}
}

func TestUnlockedModeRescoresRepeatedSubmissions(t *testing.T) {
	service := newTestSessionService(historyQuestions(), false)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	q, _ := session.Current()
	for i := 0; i < 3; i++ {
		if _, err := session.SubmitAnswer(q.CorrectAnswer); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	// Compatibility mode: each submission re-increments the score.
	if session.Score() != 30 {
		t.Fatalf("expected score 30 after three correct submissions, got %d", session.Score())
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	service := newTestSessionService(historyQuestions(), true)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := service.Get(session.ID()); err != nil {
		t.Fatalf("expected session registered: %v", err)
	}
	service.Abandon(session.ID())
	if _, err := service.Get(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after abandon, got %v", err)
	}
}

func TestWalkedAwaySessionExpires(t *testing.T) {
	service := app.NewSessionServiceWithShuffle(
		memory.NewQuestionRepository(historyQuestions()),
		memory.NewSessionStoreWithTTL(time.Nanosecond),
		app.SessionSettings{Size: 10, Points: 10, LockAnswers: true},
		func(n int, swap func(i, j int)) {},
	)
	session, err := service.Start(context.Background(), "u1", "history", domain.DifficultyEasy)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := service.Get(session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound once expired, got %v", err)
	}
}

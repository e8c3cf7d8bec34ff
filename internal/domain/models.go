package domain

import (
	"strings"
	"time"
)

// Difficulty levels a question can be tagged with.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ValidDifficulty reports whether d is one of the known difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question models an MCQ question. Correctness is checked by exact string
// equality against CorrectAnswer, which must equal one of the options.
type Question struct {
	ID            string    `json:"id"`
	CategoryID    string    `json:"categoryId"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	Difficulty    string    `json:"difficulty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// Category is a topical grouping of questions. QuestionCount is a denormalized
// cache of the number of questions referencing the category; it is adjusted
// incrementally on question add/delete and may drift until a sync recomputes it.
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// User is an account row. Scores maps "{categoryID}_{difficulty}" to the best
// score ever recorded for that pair; entries only ratchet upward.
type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"displayName"`
	Role        string         `json:"role"`
	Scores      map[string]int `json:"scores"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
}

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserRef identifies the acting user for operations that may need to seed a
// missing account row.
type UserRef struct {
	ID          string
	Email       string
	DisplayName string
}

// DisplayNameOrFallback returns the explicit display name, or the email
// local-part when none is set.
func (u UserRef) DisplayNameOrFallback() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// ScoreKey builds the aggregate map key for a (category, difficulty) pair.
func ScoreKey(categoryID, difficulty string) string {
	return categoryID + "_" + difficulty
}

// ScoreEvent is one immutable history entry per completed playthrough. The log
// is append-only and never rewritten, independent of the best-score aggregate.
type ScoreEvent struct {
	UserID     string    `json:"userId"`
	CategoryID string    `json:"categoryId"`
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
	PlayedAt   time.Time `json:"playedAt"`
}

// AttemptStatus says whether an attempt beat the stored best.
type AttemptStatus string

const (
	StatusNewRecord AttemptStatus = "new_record"
	StatusNoRecord  AttemptStatus = "no_record"
)

// AttemptResult is the outcome of recording one attempt. OldScore carries the
// previous best so clients can show "you beat your old record of X".
type AttemptResult struct {
	Status   AttemptStatus `json:"status"`
	OldScore int           `json:"oldScore"`
}

// SessionResult is the handoff to a results view once a session finishes.
type SessionResult struct {
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	CategoryID     string `json:"categoryId"`
	Difficulty     string `json:"difficulty"`
}

// Profile is the aggregate view shown on a profile screen.
type Profile struct {
	DisplayName string         `json:"displayName"`
	Email       string         `json:"email"`
	TotalScore  int            `json:"totalScore"`
	Rank        string         `json:"rank"`
	Scores      map[string]int `json:"scores"`
}

// StudyTarget is one entry in a user's personal study checklist.
type StudyTarget struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

package domain

import "errors"

var (
	// ErrNoQuestions is returned when a category/difficulty pair has no
	// questions. Distinct from a backend failure: the caller navigates back
	// instead of showing a generic error.
	ErrNoQuestions = errors.New("no questions for category and difficulty")
	// ErrQuestionNotFound indicates the question ID does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCategoryNotFound indicates the category ID does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrUserNotFound indicates no account row exists for the user ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned when a play session ID is unknown or expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned on mutation of a finished session.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrAnswerLocked is returned when the current question was already
	// answered and answer locking is enabled.
	ErrAnswerLocked = errors.New("current question already answered")
	// ErrTargetNotFound indicates a study target ID does not exist.
	ErrTargetNotFound = errors.New("study target not found")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")
)

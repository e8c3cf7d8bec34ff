package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizpal-service/internal/domain"
)

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto statuses. Backend failures surface as a
// generic message naming the failed action; details stay in the server log.
func writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, domain.ErrNoQuestions):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "no questions for this category and difficulty"})
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "quiz session not found"})
	case errors.Is(err, domain.ErrSessionFinished):
		writeJSON(w, http.StatusConflict, errorPayload{Error: "quiz session already finished"})
	case errors.Is(err, domain.ErrAnswerLocked):
		writeJSON(w, http.StatusConflict, errorPayload{Error: "this question was already answered"})
	case errors.Is(err, domain.ErrQuestionNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "question not found"})
	case errors.Is(err, domain.ErrCategoryNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "category not found"})
	case errors.Is(err, domain.ErrTargetNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "study target not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: action})
	}
}

// questionView hides the correct answer from clients mid-session.
type questionView struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

func viewOf(q domain.Question) questionView {
	return questionView{
		ID:         q.ID,
		Text:       q.Text,
		Options:    q.Options,
		Difficulty: q.Difficulty,
	}
}

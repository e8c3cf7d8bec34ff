package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"quizpal-service/internal/app"
	"quizpal-service/internal/auth"
	"quizpal-service/internal/domain"
	"github.com/gorilla/mux"
)

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categories.List(r.Context())
	if err != nil {
		writeError(w, err, "could not load categories")
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type startSessionRequest struct {
	CategoryID string `json:"categoryId"`
	Difficulty string `json:"difficulty"`
}

type sessionState struct {
	SessionID string       `json:"sessionId"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	Score     int          `json:"score"`
	Question  questionView `json:"question"`
}

func sessionStateOf(session *app.Session) (sessionState, error) {
	q, err := session.Current()
	if err != nil {
		return sessionState{}, err
	}
	index, total := session.Progress()
	return sessionState{
		SessionID: session.ID(),
		Index:     index,
		Total:     total,
		Score:     session.Score(),
		Question:  viewOf(q),
	}, nil
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CategoryID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "categoryId is required"})
		return
	}
	if req.Difficulty != "" && !domain.ValidDifficulty(req.Difficulty) {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "unknown difficulty"})
		return
	}

	session, err := a.sessions.Start(r.Context(), claims.Subject, req.CategoryID, req.Difficulty)
	if err != nil {
		writeError(w, err, "could not load questions")
		return
	}
	state, err := sessionStateOf(session)
	if err != nil {
		writeError(w, err, "could not load questions")
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// ownedSession loads the session and checks it belongs to the caller. A
// foreign session reads as not found rather than forbidden.
func (a *API) ownedSession(r *http.Request) (*app.Session, error) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	session, err := a.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if session.UserID() != claims.Subject {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.ownedSession(r)
	if err != nil {
		writeError(w, err, "could not load session")
		return
	}
	state, err := sessionStateOf(session)
	if err != nil {
		writeError(w, err, "could not load session")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) abandonSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.ownedSession(r)
	if err != nil {
		writeError(w, err, "could not load session")
		return
	}
	a.sessions.Abandon(session.ID())
	w.WriteHeader(http.StatusNoContent)
}

type answerRequest struct {
	Selected string `json:"selected"`
}

type answerResult struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

func (a *API) submitAnswer(w http.ResponseWriter, r *http.Request) {
	session, err := a.ownedSession(r)
	if err != nil {
		writeError(w, err, "could not load session")
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Selected == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "select an option first"})
		return
	}
	correct, err := session.SubmitAnswer(req.Selected)
	if err != nil {
		writeError(w, err, "could not submit answer")
		return
	}
	writeJSON(w, http.StatusOK, answerResult{Correct: correct, Score: session.Score()})
}

type advanceResponse struct {
	Finished bool                  `json:"finished"`
	State    *sessionState         `json:"state,omitempty"`
	Result   *domain.SessionResult `json:"result,omitempty"`
	Attempt  *domain.AttemptResult `json:"attempt,omitempty"`
}

func (a *API) advanceSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	session, err := a.ownedSession(r)
	if err != nil {
		writeError(w, err, "could not load session")
		return
	}

	if finished := session.Advance(); !finished {
		state, err := sessionStateOf(session)
		if err != nil {
			writeError(w, err, "could not load session")
			return
		}
		writeJSON(w, http.StatusOK, advanceResponse{Finished: false, State: &state})
		return
	}

	result, _ := session.Result()
	attempt, err := a.scores.RecordAttempt(r.Context(), claims.UserRef(), result.CategoryID, result.Difficulty, result.Score)
	if err != nil {
		writeError(w, err, "could not save score")
		return
	}
	a.sessions.Abandon(session.ID())
	writeJSON(w, http.StatusOK, advanceResponse{Finished: true, Result: &result, Attempt: &attempt})
}

type attemptRequest struct {
	CategoryID string `json:"categoryId"`
	Difficulty string `json:"difficulty"`
	Score      int    `json:"score"`
}

func (a *API) recordAttempt(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CategoryID == "" || req.Difficulty == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "categoryId and difficulty are required"})
		return
	}
	if req.Score < 0 {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "score must not be negative"})
		return
	}
	attempt, err := a.scores.RecordAttempt(r.Context(), claims.UserRef(), req.CategoryID, req.Difficulty, req.Score)
	if err != nil {
		writeError(w, err, "could not save score")
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	profile, err := a.scores.Profile(r.Context(), claims.UserRef())
	if err != nil {
		writeError(w, err, "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DisplayName) == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "displayName is required"})
		return
	}
	profile, err := a.scores.UpdateDisplayName(r.Context(), claims.UserRef(), req.DisplayName)
	if err != nil {
		writeError(w, err, "could not update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// ── Study targets ──

func (a *API) listTargets(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	targets, err := a.targets.List(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err, "could not load study targets")
		return
	}
	if targets == nil {
		targets = []domain.StudyTarget{}
	}
	writeJSON(w, http.StatusOK, targets)
}

type targetRequest struct {
	Title string `json:"title"`
}

func (a *API) addTarget(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	target, err := a.targets.Add(r.Context(), claims.Subject, req.Title)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, target)
}

func targetID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (a *API) toggleTarget(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid target id"})
		return
	}
	if err := a.targets.Toggle(r.Context(), claims.Subject, id); err != nil {
		writeError(w, err, "could not update study target")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) renameTarget(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid target id"})
		return
	}
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	if err := a.targets.Rename(r.Context(), claims.Subject, id, req.Title); err != nil {
		writeError(w, err, "could not update study target")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteTarget(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, err := targetID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid target id"})
		return
	}
	if err := a.targets.Delete(r.Context(), claims.Subject, id); err != nil {
		writeError(w, err, "could not delete study target")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Admin panel ──

type categoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (a *API) addCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	category, err := a.categories.Add(r.Context(), req.Name, req.Icon)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.categories.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err, "could not delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) syncCategories(w http.ResponseWriter, r *http.Request) {
	if err := a.categories.SyncQuestionCounts(r.Context()); err != nil {
		writeError(w, err, "could not sync question counts")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.questions.ListByCategory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "could not load questions")
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

type questionRequest struct {
	CategoryID    string   `json:"categoryId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Difficulty    string   `json:"difficulty"`
}

func (a *API) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	question, err := a.questions.Add(r.Context(), req.CategoryID, req.Text, req.Options, req.CorrectAnswer, req.Difficulty)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		writeError(w, err, "could not add question")
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) getQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := a.questions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "could not load question")
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (a *API) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	err := a.questions.Update(r.Context(), mux.Vars(r)["id"], req.Text, req.Options, req.CorrectAnswer, req.Difficulty)
	if err != nil {
		writeError(w, err, "could not update question")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := a.questions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err, "could not delete question")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

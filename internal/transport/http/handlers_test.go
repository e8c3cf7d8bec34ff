package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizpal-service/internal/app"
	"quizpal-service/internal/auth"
	"quizpal-service/internal/domain"
	"quizpal-service/internal/infra/memory"
)

var testSecret = []byte("test-signing-key")

// stubTargetStore keeps targets in memory so transport tests need no database.
type stubTargetStore struct {
	nextID  int64
	targets map[int64]domain.StudyTarget
}

func newStubTargetStore() *stubTargetStore {
	return &stubTargetStore{targets: map[int64]domain.StudyTarget{}}
}

func (s *stubTargetStore) List(_ context.Context, userID string) ([]domain.StudyTarget, error) {
	var out []domain.StudyTarget
	for _, t := range s.targets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTargetStore) Add(_ context.Context, userID, title string) (domain.StudyTarget, error) {
	s.nextID++
	t := domain.StudyTarget{ID: s.nextID, UserID: userID, Title: title}
	s.targets[t.ID] = t
	return t, nil
}

func (s *stubTargetStore) Toggle(_ context.Context, userID string, id int64) error {
	t, ok := s.targets[id]
	if !ok || t.UserID != userID {
		return domain.ErrTargetNotFound
	}
	t.Completed = !t.Completed
	s.targets[id] = t
	return nil
}

func (s *stubTargetStore) Rename(_ context.Context, userID string, id int64, title string) error {
	t, ok := s.targets[id]
	if !ok || t.UserID != userID {
		return domain.ErrTargetNotFound
	}
	t.Title = title
	s.targets[id] = t
	return nil
}

func (s *stubTargetStore) Delete(_ context.Context, userID string, id int64) error {
	t, ok := s.targets[id]
	if !ok || t.UserID != userID {
		return domain.ErrTargetNotFound
	}
	delete(s.targets, id)
	return nil
}

func seededQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", CategoryID: "geo", Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: "Paris", Difficulty: "easy"},
		{ID: "q2", CategoryID: "geo", Text: "Capital of Spain?", Options: []string{"Madrid", "Seville"}, CorrectAnswer: "Madrid", Difficulty: "easy"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	questionRepo := memory.NewQuestionRepository(seededQuestions())
	categoryRepo := memory.NewCategoryRepository([]domain.Category{
		{ID: "geo", Name: "Geography", Icon: "earth", QuestionCount: 2},
	})

	sessions := app.NewSessionServiceWithShuffle(questionRepo, memory.NewSessionStore(),
		app.SessionSettings{Size: 10, Points: 10, LockAnswers: true},
		func(int, func(i, j int)) {})
	scores := app.NewScoreService(memory.NewScoreRepository(), false)
	categories := app.NewCategoryService(categoryRepo, questionRepo)
	questions := app.NewQuestionService(questionRepo, categoryRepo)
	targets := app.NewTargetService(newStubTargetStore())
	authHandler := auth.NewHandler(memory.NewUserStore(), testSecret, time.Hour)
	authMW := auth.NewMiddleware(testSecret)

	api := NewAPI(sessions, scores, categories, questions, targets, authHandler, authMW)
	server := httptest.NewServer(api.Router())
	t.Cleanup(server.Close)
	return server
}

func tokenFor(t *testing.T, id, email, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(domain.User{ID: id, Email: email, Role: role}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, server *httptest.Server, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestEndpointsRequireAuth(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doRequest(t, server, http.MethodGet, "/api/categories", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestPlaythroughOverREST(t *testing.T) {
	server := newTestServer(t)
	token := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)

	resp, raw := doRequest(t, server, http.MethodPost, "/api/sessions", token,
		`{"categoryId":"geo","difficulty":"easy"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session: %d %s", resp.StatusCode, raw)
	}
	var state sessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Total != 2 || state.Index != 0 || state.Question.ID != "q1" {
		t.Fatalf("unexpected initial state: %+v", state)
	}
	if bytes.Contains(raw, []byte("correctAnswer")) {
		t.Fatal("session state must not expose the correct answer")
	}

	base := "/api/sessions/" + state.SessionID
	resp, raw = doRequest(t, server, http.MethodPost, base+"/answer", token, `{"selected":"Paris"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer: %d %s", resp.StatusCode, raw)
	}
	var answer answerResult
	if err := json.Unmarshal(raw, &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if !answer.Correct || answer.Score != 10 {
		t.Fatalf("unexpected answer result: %+v", answer)
	}

	resp, raw = doRequest(t, server, http.MethodPost, base+"/advance", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance: %d %s", resp.StatusCode, raw)
	}
	var mid advanceResponse
	if err := json.Unmarshal(raw, &mid); err != nil {
		t.Fatalf("decode advance: %v", err)
	}
	if mid.Finished || mid.State == nil || mid.State.Question.ID != "q2" {
		t.Fatalf("expected second question, got %+v", mid)
	}

	// Answer the second question wrong, then finish.
	doRequest(t, server, http.MethodPost, base+"/answer", token, `{"selected":"Seville"}`)
	resp, raw = doRequest(t, server, http.MethodPost, base+"/advance", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final advance: %d %s", resp.StatusCode, raw)
	}
	var done advanceResponse
	if err := json.Unmarshal(raw, &done); err != nil {
		t.Fatalf("decode final advance: %v", err)
	}
	if !done.Finished || done.Result == nil || done.Attempt == nil {
		t.Fatalf("expected finished response, got %+v", done)
	}
	if done.Result.Score != 10 || done.Result.TotalQuestions != 2 {
		t.Fatalf("unexpected result: %+v", done.Result)
	}
	if done.Attempt.Status != domain.StatusNewRecord {
		t.Fatalf("expected first attempt to set a record, got %+v", done.Attempt)
	}

	// The session is gone once finished.
	resp, _ = doRequest(t, server, http.MethodGet, base, token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after finish, got %d", resp.StatusCode)
	}

	// And the profile reflects the score.
	resp, raw = doRequest(t, server, http.MethodGet, "/api/profile", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: %d %s", resp.StatusCode, raw)
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.TotalScore != 10 || profile.Scores["geo_easy"] != 10 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestStartSessionValidation(t *testing.T) {
	server := newTestServer(t)
	token := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)

	resp, _ := doRequest(t, server, http.MethodPost, "/api/sessions", token, `{"difficulty":"easy"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing category: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, server, http.MethodPost, "/api/sessions", token, `{"categoryId":"geo","difficulty":"impossible"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad difficulty: expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, server, http.MethodPost, "/api/sessions", token, `{"categoryId":"unknown"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("empty category: expected 404, got %d", resp.StatusCode)
	}
}

func TestForeignSessionReadsAsNotFound(t *testing.T) {
	server := newTestServer(t)
	alice := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)
	mallory := tokenFor(t, "u2", "mallory@example.com", domain.RoleUser)

	_, raw := doRequest(t, server, http.MethodPost, "/api/sessions", alice, `{"categoryId":"geo"}`)
	var state sessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}

	resp, _ := doRequest(t, server, http.MethodGet, "/api/sessions/"+state.SessionID, mallory, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign session, got %d", resp.StatusCode)
	}
}

func TestAdminEndpointsRejectRegularUsers(t *testing.T) {
	server := newTestServer(t)
	user := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)
	admin := tokenFor(t, "a1", "admin@example.com", domain.RoleAdmin)

	resp, _ := doRequest(t, server, http.MethodPost, "/api/admin/categories", user, `{"name":"History"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}

	resp, raw := doRequest(t, server, http.MethodPost, "/api/admin/categories", admin, `{"name":"History"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin create: %d %s", resp.StatusCode, raw)
	}
	var category domain.Category
	if err := json.Unmarshal(raw, &category); err != nil {
		t.Fatalf("decode category: %v", err)
	}
	if category.Icon != "cube" {
		t.Fatalf("expected default icon, got %q", category.Icon)
	}
}

func TestAdminQuestionFlowUpdatesCategoryCount(t *testing.T) {
	server := newTestServer(t)
	admin := tokenFor(t, "a1", "admin@example.com", domain.RoleAdmin)
	user := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)

	resp, raw := doRequest(t, server, http.MethodPost, "/api/admin/questions", admin,
		`{"categoryId":"geo","text":"Capital of Italy?","options":["Rome","Milan"],"correctAnswer":"Rome","difficulty":"easy"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add question: %d %s", resp.StatusCode, raw)
	}
	var question domain.Question
	if err := json.Unmarshal(raw, &question); err != nil {
		t.Fatalf("decode question: %v", err)
	}

	_, raw = doRequest(t, server, http.MethodGet, "/api/categories", user, "")
	var cats []domain.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != 1 || cats[0].QuestionCount != 3 {
		t.Fatalf("expected question count 3, got %+v", cats)
	}

	resp, _ = doRequest(t, server, http.MethodDelete, "/api/admin/questions/"+question.ID, admin, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete question: %d", resp.StatusCode)
	}

	_, raw = doRequest(t, server, http.MethodGet, "/api/categories", user, "")
	if err := json.Unmarshal(raw, &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if cats[0].QuestionCount != 2 {
		t.Fatalf("expected question count back to 2, got %d", cats[0].QuestionCount)
	}

	resp, _ = doRequest(t, server, http.MethodPost, "/api/admin/questions", admin,
		`{"categoryId":"ghost","text":"?","options":["a","b"],"correctAnswer":"a","difficulty":"easy"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", resp.StatusCode)
	}
}

func TestTargetEndpoints(t *testing.T) {
	server := newTestServer(t)
	token := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)

	resp, raw := doRequest(t, server, http.MethodPost, "/api/targets", token, `{"title":"finish geography set"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add target: %d %s", resp.StatusCode, raw)
	}
	var target domain.StudyTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		t.Fatalf("decode target: %v", err)
	}

	path := fmt.Sprintf("/api/targets/%d", target.ID)
	resp, _ = doRequest(t, server, http.MethodPost, path+"/toggle", token, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("toggle: %d", resp.StatusCode)
	}

	_, raw = doRequest(t, server, http.MethodGet, "/api/targets", token, "")
	var targets []domain.StudyTarget
	if err := json.Unmarshal(raw, &targets); err != nil {
		t.Fatalf("decode targets: %v", err)
	}
	if len(targets) != 1 || !targets[0].Completed {
		t.Fatalf("expected one completed target, got %+v", targets)
	}

	resp, _ = doRequest(t, server, http.MethodDelete, path, token, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, server, http.MethodPost, path+"/toggle", token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRecordAttemptEndpointRatchets(t *testing.T) {
	server := newTestServer(t)
	token := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)

	resp, raw := doRequest(t, server, http.MethodPost, "/api/attempts", token,
		`{"categoryId":"geo","difficulty":"hard","score":70}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first attempt: %d %s", resp.StatusCode, raw)
	}
	var attempt domain.AttemptResult
	if err := json.Unmarshal(raw, &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	if attempt.Status != domain.StatusNewRecord || attempt.OldScore != 0 {
		t.Fatalf("unexpected first attempt: %+v", attempt)
	}

	_, raw = doRequest(t, server, http.MethodPost, "/api/attempts", token,
		`{"categoryId":"geo","difficulty":"hard","score":40}`)
	if err := json.Unmarshal(raw, &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	if attempt.Status != domain.StatusNoRecord || attempt.OldScore != 70 {
		t.Fatalf("expected lower score to keep record, got %+v", attempt)
	}
}

func TestUpdateProfileDisplayName(t *testing.T) {
	server := newTestServer(t)
	token := tokenFor(t, "u1", "alice@example.com", domain.RoleUser)

	resp, raw := doRequest(t, server, http.MethodPut, "/api/profile", token, `{"displayName":"Quiz Champ"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update profile: %d %s", resp.StatusCode, raw)
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.DisplayName != "Quiz Champ" {
		t.Fatalf("expected renamed profile, got %+v", profile)
	}

	// Subsequent reads see the new name.
	_, raw = doRequest(t, server, http.MethodGet, "/api/profile", token, "")
	if err := json.Unmarshal(raw, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.DisplayName != "Quiz Champ" {
		t.Fatalf("expected persisted name, got %+v", profile)
	}

	resp, _ = doRequest(t, server, http.MethodPut, "/api/profile", token, `{"displayName":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", resp.StatusCode)
	}
}

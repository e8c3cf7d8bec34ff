package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizpal-service/internal/domain"
	"quizpal-service/internal/infra/memory"
)

var testSecret = []byte("test-signing-key")

func newTestHandler() *Handler {
	return NewHandler(memory.NewUserStore(), testSecret, time.Hour)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.Register, `{"email":"Alice@Example.com","displayName":"Alice","password":"secret-pass"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created authResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.User.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", created.User.Email)
	}
	if created.User.DisplayName != "Alice" {
		t.Fatalf("expected display name Alice, got %q", created.User.DisplayName)
	}

	claims, err := ParseToken(created.Token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != created.User.ID || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	rec = postJSON(t, h.Login, `{"email":"alice@example.com","password":"secret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterFallsBackToEmailLocalPart(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.Register, `{"email":"bob@example.com","password":"secret-pass"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created authResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.User.DisplayName != "bob" {
		t.Fatalf("expected display name bob, got %q", created.User.DisplayName)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	h := newTestHandler()

	if rec := postJSON(t, h.Register, `{"email":"a@b.com","password":"secret-pass"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	rec := postJSON(t, h.Register, `{"email":"a@b.com","password":"other-pass99"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newTestHandler()

	for name, body := range map[string]string{
		"missing email":  `{"password":"secret-pass"}`,
		"short password": `{"email":"a@b.com","password":"short"}`,
		"bad json":       `{`,
	} {
		if rec := postJSON(t, h.Register, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	h := newTestHandler()
	postJSON(t, h.Register, `{"email":"a@b.com","password":"secret-pass"}`)

	for name, body := range map[string]string{
		"wrong password": `{"email":"a@b.com","password":"not-the-pass"}`,
		"unknown email":  `{"email":"nobody@b.com","password":"secret-pass"}`,
	} {
		rec := postJSON(t, h.Login, body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid email or password") {
			t.Fatalf("%s: expected generic error, got %s", name, rec.Body.String())
		}
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	user := domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleUser}
	token, err := GenerateToken(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token, []byte("other-secret")); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	user := domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleUser}
	token, err := GenerateToken(user, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatal("expected parse to fail for expired token")
	}
}

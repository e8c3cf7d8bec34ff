package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"quizpal-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists accounts for register/login.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, string, error)
}

// Handler serves the register and login endpoints.
type Handler struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewHandler(store UserStore, secret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{store: store, secret: secret, tokenTTL: tokenTTL}
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "password must be at least 8 characters"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	user := domain.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		DisplayName: domain.UserRef{Email: req.Email, DisplayName: strings.TrimSpace(req.DisplayName)}.DisplayNameOrFallback(),
		Role:        domain.RoleUser,
		Scores:      map[string]int{},
	}
	if err := h.store.CreateUser(r.Context(), user, string(hash)); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "an account with this email already exists"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create account"})
		return
	}

	token, err := GenerateToken(user, h.secret, h.tokenTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to generate token"})
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	// Unknown email and wrong password read the same to the caller.
	user, hash, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidCredentials.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidCredentials.Error()})
		return
	}

	token, err := GenerateToken(user, h.secret, h.tokenTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to generate token"})
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

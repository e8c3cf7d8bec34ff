package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quizpal-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStore backs the auth handlers. It works on the same users table as
// ScoreRepository; accounts created here start with an empty score map.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	scores, err := json.Marshal(user.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, role, password_hash, scores, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		user.ID, user.Email, user.DisplayName, user.Role, passwordHash, scores)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (domain.User, string, error) {
	var user domain.User
	var hash string
	var scores []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, display_name, role, COALESCE(password_hash, ''), scores, created_at
		 FROM users WHERE email=$1`, email).
		Scan(&user.ID, &user.Email, &user.DisplayName, &user.Role, &hash, &scores, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, "", domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	user.Scores = map[string]int{}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &user.Scores); err != nil {
			return domain.User{}, "", fmt.Errorf("unmarshal scores: %w", err)
		}
	}
	return user, hash, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizpal-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreRepository persists the score-event log and the per-user best-score
// aggregate. The aggregate lives as a JSONB map on the users row, mirroring
// the per-user document of the mobile backend.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) AppendHistory(ctx context.Context, event domain.ScoreEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO score_events (user_id, category_id, difficulty, score, played_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.UserID, event.CategoryID, event.Difficulty, event.Score, event.PlayedAt)
	if err != nil {
		return fmt.Errorf("insert score event: %w", err)
	}
	return nil
}

// History returns a user's play log, newest first.
func (r *ScoreRepository) History(ctx context.Context, userID string) ([]domain.ScoreEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, category_id, difficulty, score, played_at
		 FROM score_events WHERE user_id=$1 ORDER BY played_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list score events: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoreEvent
	for rows.Next() {
		var e domain.ScoreEvent
		if err := rows.Scan(&e.UserID, &e.CategoryID, &e.Difficulty, &e.Score, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("scan score event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list score events: %w", err)
	}
	return out, nil
}

func (r *ScoreRepository) GetAggregate(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	var scores []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, display_name, role, scores, created_at FROM users WHERE id=$1`, userID).
		Scan(&user.ID, &user.Email, &user.DisplayName, &user.Role, &scores, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	user.Scores = map[string]int{}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &user.Scores); err != nil {
			return domain.User{}, fmt.Errorf("unmarshal scores: %w", err)
		}
	}
	return user, nil
}

// SetAggregate seeds or overwrites a user row's profile fields and score map.
// The password hash, when present, is left untouched.
func (r *ScoreRepository) SetAggregate(ctx context.Context, user domain.User) error {
	scores, err := json.Marshal(user.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, role, scores, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   email=EXCLUDED.email, display_name=EXCLUDED.display_name,
		   role=EXCLUDED.role, scores=EXCLUDED.scores`,
		user.ID, user.Email, user.DisplayName, role, scores)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *ScoreRepository) UpdateBestScore(ctx context.Context, userID, key string, score int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET scores = jsonb_set(COALESCE(scores, '{}'::jsonb), ARRAY[$2], to_jsonb($3::int), true)
		 WHERE id=$1`, userID, key, score)
	if err != nil {
		return fmt.Errorf("update best score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RatchetBestScore performs the conditional update in a single statement, so
// two racing attempts cannot lose the higher score. Selected via the
// scores.atomic_ratchet config flag.
func (r *ScoreRepository) RatchetBestScore(ctx context.Context, userID, key string, score int) (int, bool, error) {
	var old int
	err := r.pool.QueryRow(ctx,
		`WITH prev AS (
		   SELECT COALESCE((scores->>$2)::int, 0) AS old FROM users WHERE id=$1
		 )
		 UPDATE users u
		 SET scores = jsonb_set(COALESCE(u.scores, '{}'::jsonb), ARRAY[$2], to_jsonb($3::int), true)
		 FROM prev
		 WHERE u.id=$1 AND prev.old < $3
		 RETURNING prev.old`,
		userID, key, score).Scan(&old)
	if err == nil {
		return old, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("ratchet best score: %w", err)
	}

	// Not updated: either the user row is missing or the stored best wins.
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE((scores->>$2)::int, 0) FROM users WHERE id=$1`, userID, key).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("read best score: %w", err)
	}
	return old, false, nil
}

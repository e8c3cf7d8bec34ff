package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"quizpal-service/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// TargetStore keeps study-target checklists in an embedded SQLite database,
// the counterpart of the mobile app's on-device store.
type TargetStore struct {
	db *sql.DB
}

func NewTargetStore(path string) (*TargetStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quizpal.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &TargetStore{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *TargetStore) Close() error {
	return s.db.Close()
}

func (s *TargetStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS study_targets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			is_completed INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_study_targets_user ON study_targets (user_id);
	`)
	return err
}

func (s *TargetStore) List(ctx context.Context, userID string) ([]domain.StudyTarget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, is_completed FROM study_targets WHERE user_id=? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []domain.StudyTarget
	for rows.Next() {
		var t domain.StudyTarget
		var completed int
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &completed); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.Completed = completed != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TargetStore) Add(ctx context.Context, userID, title string) (domain.StudyTarget, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO study_targets (user_id, title, is_completed) VALUES (?, ?, 0)`, userID, title)
	if err != nil {
		return domain.StudyTarget{}, fmt.Errorf("insert target: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.StudyTarget{}, fmt.Errorf("target id: %w", err)
	}
	return domain.StudyTarget{ID: id, UserID: userID, Title: title}, nil
}

func (s *TargetStore) Toggle(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE study_targets SET is_completed = 1 - is_completed WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("toggle target: %w", err)
	}
	return checkFound(res)
}

func (s *TargetStore) Rename(ctx context.Context, userID string, id int64, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE study_targets SET title=? WHERE id=? AND user_id=?`, title, id, userID)
	if err != nil {
		return fmt.Errorf("rename target: %w", err)
	}
	return checkFound(res)
}

func (s *TargetStore) Delete(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM study_targets WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return checkFound(res)
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTargetNotFound
	}
	return nil
}

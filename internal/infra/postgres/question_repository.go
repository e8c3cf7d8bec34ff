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

// QuestionRepository reads and writes the questions table. Options are stored
// as a JSONB array to keep their order.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) ListByCategory(ctx context.Context, categoryID, difficulty string) ([]domain.Question, error) {
	query := `SELECT id, category_id, text, options, correct_answer, difficulty, created_at
	          FROM questions WHERE category_id=$1`
	args := []interface{}{categoryID}
	if difficulty != "" {
		query += ` AND difficulty=$2`
		args = append(args, difficulty)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, id string) (domain.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, category_id, text, options, correct_answer, difficulty, created_at
		 FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (r *QuestionRepository) Create(ctx context.Context, question domain.Question) error {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO questions (id, category_id, text, options, correct_answer, difficulty, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		question.ID, question.CategoryID, question.Text, options,
		question.CorrectAnswer, question.Difficulty, question.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) Update(ctx context.Context, question domain.Question) error {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET text=$2, options=$3, correct_answer=$4, difficulty=$5 WHERE id=$1`,
		question.ID, question.Text, options, question.CorrectAnswer, question.Difficulty)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE category_id=$1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	var options []byte
	err := row.Scan(&q.ID, &q.CategoryID, &q.Text, &options, &q.CorrectAnswer, &q.Difficulty, &q.CreatedAt)
	if err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}

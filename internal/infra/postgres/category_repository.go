package postgres

import (
	"context"
	"errors"
	"fmt"

	"quizpal-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CategoryRepository reads and writes the categories table.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, icon, question_count, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.QuestionCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, icon, question_count, created_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.QuestionCount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category domain.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name, icon, question_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
		category.ID, category.Name, category.Icon, category.QuestionCount, category.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// AdjustQuestionCount shifts the denormalized count, clamped at zero.
func (r *CategoryRepository) AdjustQuestionCount(ctx context.Context, id string, delta int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET question_count = GREATEST(question_count + $2, 0) WHERE id=$1`, id, delta)
	if err != nil {
		return fmt.Errorf("adjust question count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) SetQuestionCount(ctx context.Context, id string, count int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET question_count=$2 WHERE id=$1`, id, count)
	if err != nil {
		return fmt.Errorf("set question count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

package questions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-show/backend/internal/models"
)

// Repository handles question persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOptions(raw []byte, q *models.Question) error {
	if err := json.Unmarshal(raw, &q.Options); err != nil {
		return fmt.Errorf("unmarshal options for question %s: %w", q.ID, err)
	}
	return nil
}

// ListByEvent returns all questions of an event in display order.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Question, error) {
	const q = `SELECT id, event_id, question_text, options, order_index, created_at
		FROM questions WHERE event_id = $1 ORDER BY order_index ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Question
	for rows.Next() {
		var question models.Question
		var raw []byte
		if err := rows.Scan(&question.ID, &question.EventID, &question.QuestionText, &raw, &question.OrderIndex, &question.CreatedAt); err != nil {
			return nil, err
		}
		if err := scanOptions(raw, &question); err != nil {
			return nil, err
		}
		list = append(list, question)
	}
	return list, rows.Err()
}

// GetByID returns a question by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const q = `SELECT id, event_id, question_text, options, order_index, created_at
		FROM questions WHERE id = $1`
	var question models.Question
	var raw []byte
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&question.ID, &question.EventID, &question.QuestionText, &raw, &question.OrderIndex, &question.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := scanOptions(raw, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// CountByEvent returns the number of questions of an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

// Update replaces a question's text, options, and order index.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, text string, options []string, orderIndex int) error {
	opts, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	const q = `UPDATE questions SET question_text = $2, options = $3, order_index = $4 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, text, opts, orderIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s not found", id)
	}
	return nil
}

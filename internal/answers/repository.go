package answers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-show/backend/internal/models"
)

// Repository handles answer persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an answers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch inserts a set of answers for one participant in a transaction.
func (r *Repository) CreateBatch(ctx context.Context, list []models.Answer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	const q = `INSERT INTO answers (id, participant_id, question_id, selected_option_index)
		VALUES (gen_random_uuid(), $1, $2, $3)`
	for _, a := range list {
		batch.Queue(q, a.ParticipantID, a.QuestionID, a.SelectedOptionIndex)
	}
	br := tx.SendBatch(ctx, batch)
	for range list {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return tx.Commit(ctx)
}

// ListByParticipants returns all answers of the given participants.
func (r *Repository) ListByParticipants(ctx context.Context, participantIDs []uuid.UUID) ([]models.Answer, error) {
	const q = `SELECT id, participant_id, question_id, selected_option_index, created_at
		FROM answers WHERE participant_id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, participantIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Answer
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.QuestionID, &a.SelectedOptionIndex, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ProgressByEvent returns each participant's answered count for an event.
func (r *Repository) ProgressByEvent(ctx context.Context, eventID uuid.UUID) ([]models.AnswerProgress, error) {
	const q = `SELECT p.id, p.name, COUNT(a.id)
		FROM participants p
		LEFT JOIN answers a ON a.participant_id = p.id
		WHERE p.event_id = $1
		GROUP BY p.id, p.name, p.created_at
		ORDER BY p.created_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.AnswerProgress
	for rows.Next() {
		var p models.AnswerProgress
		if err := rows.Scan(&p.ParticipantID, &p.ParticipantName, &p.AnsweredCount); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-show/backend/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithQuestions inserts an event and its questions in one transaction.
func (r *Repository) CreateWithQuestions(ctx context.Context, e *models.Event, questions []models.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const eventQuery = `INSERT INTO events (id, name, access_code, admin_code_hash, is_active, results_visible, match_threshold, ends_at)
		VALUES (gen_random_uuid(), $1, $2, $3, TRUE, FALSE, $4, $5)
		RETURNING id, is_active, results_visible, created_at`
	err = tx.QueryRow(ctx, eventQuery, e.Name, e.AccessCode, e.AdminCodeHash, e.MatchThreshold, e.EndsAt).
		Scan(&e.ID, &e.IsActive, &e.ResultsVisible, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	const questionQuery = `INSERT INTO questions (id, event_id, question_text, options, order_index)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	for i := range questions {
		q := &questions[i]
		q.EventID = e.ID
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		if err := tx.QueryRow(ctx, questionQuery, e.ID, q.QuestionText, opts, q.OrderIndex).
			Scan(&q.ID, &q.CreatedAt); err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT id, name, access_code, admin_code_hash, is_active, results_visible, match_threshold, created_at, ends_at
		FROM events WHERE id = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.Name, &e.AccessCode, &e.AdminCodeHash,
		&e.IsActive, &e.ResultsVisible, &e.MatchThreshold, &e.CreatedAt, &e.EndsAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByAccessCode returns an event by its access code.
func (r *Repository) GetByAccessCode(ctx context.Context, code string) (*models.Event, error) {
	const q = `SELECT id, name, access_code, admin_code_hash, is_active, results_visible, match_threshold, created_at, ends_at
		FROM events WHERE access_code = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, code).Scan(&e.ID, &e.Name, &e.AccessCode, &e.AdminCodeHash,
		&e.IsActive, &e.ResultsVisible, &e.MatchThreshold, &e.CreatedAt, &e.EndsAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update applies partial updates to an event; nil fields are left unchanged.
// adminCodeHash, when set, replaces the stored admin code hash (rotation).
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name *string, resultsVisible *bool, matchThreshold *float64, endsAt *time.Time, adminCodeHash *string) error {
	const q = `UPDATE events SET
		name = COALESCE($2, name),
		results_visible = COALESCE($3, results_visible),
		match_threshold = COALESCE($4, match_threshold),
		ends_at = COALESCE($5, ends_at),
		admin_code_hash = COALESCE($6, admin_code_hash)
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, name, resultsVisible, matchThreshold, endsAt, adminCodeHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s not found", id)
	}
	return nil
}

// Stats returns the participant count and total answer count for an event.
func (r *Repository) Stats(ctx context.Context, id uuid.UUID) (participants, answers int, err error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM participants WHERE event_id = $1),
		(SELECT COUNT(*) FROM answers a JOIN participants p ON p.id = a.participant_id WHERE p.event_id = $1)`
	err = r.pool.QueryRow(ctx, q, id).Scan(&participants, &answers)
	return participants, answers, err
}

// DeactivateExpired flips is_active off for events past their ends_at.
// Returns the number of events deactivated.
func (r *Repository) DeactivateExpired(ctx context.Context) (int64, error) {
	const q = `UPDATE events SET is_active = FALSE WHERE is_active = TRUE AND ends_at < NOW()`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

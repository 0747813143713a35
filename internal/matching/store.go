package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-show/backend/internal/models"
)

// ErrDuplicatePair is returned by InsertMatchResults when a directional row for
// the same (event, participant, matched participant) already exists.
var ErrDuplicatePair = errors.New("duplicate match pair")

// Store is the persistence boundary of the matching engine.
type Store interface {
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.Participant, error)
	ListAnswers(ctx context.Context, participantIDs []uuid.UUID) ([]models.Answer, error)
	DeleteMatchResults(ctx context.Context, eventID uuid.UUID) (int64, error)
	CountMatchResults(ctx context.Context, eventID uuid.UUID) (int64, error)
	InsertMatchResults(ctx context.Context, records []models.MatchResult) error
	UpdateMatchResult(ctx context.Context, eventID, participantID, matchedParticipantID uuid.UUID, score float64, isHidden bool) error
}

// Repository is the PostgreSQL-backed Store, plus the read/update queries the
// match handlers and the reconcile worker need.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a matching repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListParticipants returns the participants of an event in join order.
func (r *Repository) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.Participant, error) {
	const q = `SELECT id, event_id, name, profile_image_url, gender, created_at
		FROM participants WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.ProfileImageURL, &p.Gender, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListAnswers returns all answers of the given participants.
func (r *Repository) ListAnswers(ctx context.Context, participantIDs []uuid.UUID) ([]models.Answer, error) {
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

// DeleteMatchResults removes all match rows of an event, returning the count.
func (r *Repository) DeleteMatchResults(ctx context.Context, eventID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM match_results WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountMatchResults returns the number of match rows of an event.
func (r *Repository) CountMatchResults(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_results WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

// InsertMatchResults inserts a batch of directional rows. A unique violation is
// reported as ErrDuplicatePair so the engine can fall back to update-in-place.
func (r *Repository) InsertMatchResults(ctx context.Context, records []models.MatchResult) error {
	batch := &pgx.Batch{}
	const q = `INSERT INTO match_results (id, event_id, participant_id, matched_participant_id, compatibility_score, is_hidden, calculated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)`
	for _, rec := range records {
		batch.Queue(q, rec.EventID, rec.ParticipantID, rec.MatchedParticipantID, rec.CompatibilityScore, rec.IsHidden, rec.CalculatedAt)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: %s", ErrDuplicatePair, pgErr.Detail)
			}
			return err
		}
	}
	return nil
}

// UpdateMatchResult updates an existing directional row's score and hidden flag.
func (r *Repository) UpdateMatchResult(ctx context.Context, eventID, participantID, matchedParticipantID uuid.UUID, score float64, isHidden bool) error {
	const q = `UPDATE match_results
		SET compatibility_score = $4, is_hidden = $5, calculated_at = NOW()
		WHERE event_id = $1 AND participant_id = $2 AND matched_participant_id = $3`
	tag, err := r.pool.Exec(ctx, q, eventID, participantID, matchedParticipantID, score, isHidden)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match row not found for %s -> %s", participantID, matchedParticipantID)
	}
	return nil
}

// ListRowsByEvent returns all directional rows of an event joined with both
// participants' display data, highest score first.
func (r *Repository) ListRowsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.MatchRow, error) {
	const q = `SELECT m.id, m.participant_id, p1.name, p1.profile_image_url,
			m.matched_participant_id, p2.name, p2.profile_image_url,
			m.compatibility_score, m.is_hidden
		FROM match_results m
		JOIN participants p1 ON p1.id = m.participant_id
		JOIN participants p2 ON p2.id = m.matched_participant_id
		WHERE m.event_id = $1
		ORDER BY m.compatibility_score DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.MatchRow
	for rows.Next() {
		var row models.MatchRow
		if err := rows.Scan(&row.ID, &row.ParticipantID, &row.ParticipantName, &row.ParticipantImage,
			&row.MatchedParticipantID, &row.MatchedName, &row.MatchedImage,
			&row.CompatibilityScore, &row.IsHidden); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// SetHidden sets is_hidden on one directional row. Returns the number of rows
// affected so callers can tell whether the direction existed.
func (r *Repository) SetHidden(ctx context.Context, eventID, participantID, matchedParticipantID uuid.UUID, hidden bool) (int64, error) {
	const q = `UPDATE match_results SET is_hidden = $4
		WHERE event_id = $1 AND participant_id = $2 AND matched_participant_id = $3`
	tag, err := r.pool.Exec(ctx, q, eventID, participantID, matchedParticipantID, hidden)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

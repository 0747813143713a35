package participants

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-show/backend/internal/models"
)

// Repository handles participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a participant.
func (r *Repository) Create(ctx context.Context, p *models.Participant) error {
	const q = `INSERT INTO participants (id, event_id, name, profile_image_url, gender)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, p.EventID, p.Name, p.ProfileImageURL, p.Gender).
		Scan(&p.ID, &p.CreatedAt)
}

// GetByID returns a participant by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	const q = `SELECT id, event_id, name, profile_image_url, gender, created_at
		FROM participants WHERE id = $1`
	var p models.Participant
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.EventID, &p.Name, &p.ProfileImageURL, &p.Gender, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByEvent returns all participants of an event in join order.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Participant, error) {
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

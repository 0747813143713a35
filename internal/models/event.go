package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents one icebreaker event joined via access code.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	AccessCode     string    `json:"access_code"`
	AdminCodeHash  string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	ResultsVisible bool      `json:"results_visible"`
	MatchThreshold float64   `json:"match_threshold"`
	CreatedAt      time.Time `json:"created_at"`
	EndsAt         time.Time `json:"ends_at"`
}

// EventPublic is Event trimmed for participant-facing responses (no access code).
type EventPublic struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	ResultsVisible bool      `json:"results_visible"`
	EndsAt         time.Time `json:"ends_at"`
}

// ToPublic converts Event to EventPublic.
func (e *Event) ToPublic() EventPublic {
	return EventPublic{
		ID:             e.ID,
		Name:           e.Name,
		IsActive:       e.IsActive,
		ResultsVisible: e.ResultsVisible,
		EndsAt:         e.EndsAt,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is one multiple-choice survey question of an event.
// Options is an ordered list of option labels; answers reference them by index.
type Question struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender values for participants. NULL in the database (nil pointer here) means
// the participant joined before gender was collected or chose not to answer.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// ValidGender reports whether s is an accepted gender value.
func ValidGender(s string) bool {
	return s == GenderMale || s == GenderFemale || s == GenderOther
}

// Participant is a person who joined an event.
type Participant struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"event_id"`
	Name            string    `json:"name"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	Gender          *string   `json:"gender,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

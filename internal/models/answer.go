package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer is a participant's selected option for one question.
// The schema does not enforce one answer per (participant, question); the
// matching engine tolerates duplicates with first-encountered semantics.
type Answer struct {
	ID                  uuid.UUID `json:"id"`
	ParticipantID       uuid.UUID `json:"participant_id"`
	QuestionID          uuid.UUID `json:"question_id"`
	SelectedOptionIndex int       `json:"selected_option_index"`
	CreatedAt           time.Time `json:"created_at"`
}

// AnswerProgress is per-participant survey completion, used by the big-screen
// display to announce participants who finished answering.
type AnswerProgress struct {
	ParticipantID   uuid.UUID `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	AnsweredCount   int       `json:"answered_count"`
	QuestionCount   int       `json:"question_count"`
	Completed       bool      `json:"completed"`
}

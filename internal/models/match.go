package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchResult is one directional compatibility record. Every calculated pair is
// stored twice, once from each participant's perspective, with equal scores.
type MatchResult struct {
	ID                   uuid.UUID `json:"id"`
	EventID              uuid.UUID `json:"event_id"`
	ParticipantID        uuid.UUID `json:"participant_id"`
	MatchedParticipantID uuid.UUID `json:"matched_participant_id"`
	CompatibilityScore   float64   `json:"compatibility_score"`
	IsHidden             bool      `json:"is_hidden"`
	CalculatedAt         time.Time `json:"calculated_at"`
}

// MatchRow is a MatchResult joined with both participants' display data,
// as read by the presentation projections.
type MatchRow struct {
	ID                   uuid.UUID `json:"id"`
	ParticipantID        uuid.UUID `json:"participant_id"`
	ParticipantName      string    `json:"participant_name"`
	ParticipantImage     *string   `json:"participant_image,omitempty"`
	MatchedParticipantID uuid.UUID `json:"matched_participant_id"`
	MatchedName          string    `json:"matched_participant_name"`
	MatchedImage         *string   `json:"matched_participant_image,omitempty"`
	CompatibilityScore   float64   `json:"compatibility_score"`
	IsHidden             bool      `json:"is_hidden"`
}

// MatchPair is one rendered pair after projection: directional rows collapsed,
// threshold applied, top-score ties flagged.
type MatchPair struct {
	ParticipantID        uuid.UUID `json:"participant_id"`
	ParticipantName      string    `json:"participant_name"`
	ParticipantImage     *string   `json:"participant_image,omitempty"`
	MatchedParticipantID uuid.UUID `json:"matched_participant_id"`
	MatchedName          string    `json:"matched_participant_name"`
	MatchedImage         *string   `json:"matched_participant_image,omitempty"`
	Score                float64   `json:"score"`
	IsTopScore           bool      `json:"is_top_score"`
}

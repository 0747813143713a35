package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-show/backend/internal/models"
)

const (
	// insertBatchSize bounds one insert round trip.
	insertBatchSize = 50
	// deleteVerifyAttempts bounds the read-after-delete confirmation loop.
	deleteVerifyAttempts = 5
	// deleteVerifyDelay is the pause between confirmation attempts.
	deleteVerifyDelay = 200 * time.Millisecond
)

var (
	// ErrInsufficientParticipants means fewer than two participants have joined.
	ErrInsufficientParticipants = errors.New("not enough participants to calculate matches")
	// ErrNoAnswers means no survey answers exist for any participant.
	ErrNoAnswers = errors.New("no answers recorded for this event")
	// ErrCalculationInProgress means another recalculation holds the event lock.
	ErrCalculationInProgress = errors.New("a match calculation is already running for this event")
)

// Locker serializes recalculations per event. Acquire returns a release
// function, or ErrCalculationInProgress when the lock is held.
type Locker interface {
	Acquire(ctx context.Context, eventID uuid.UUID) (func(), error)
}

// Summary reports what one recalculation pass produced.
type Summary struct {
	Participants  int `json:"participants"`
	EligiblePairs int `json:"eligible_pairs"`
	Records       int `json:"records"`
}

// Engine computes and persists the pairwise compatibility results of an event.
type Engine struct {
	store  Store
	locker Locker
	logger *zap.Logger
	sleep  func(time.Duration)
}

// NewEngine creates a matching engine. locker may be nil, in which case
// concurrent recalculations are not serialized.
func NewEngine(store Store, locker Locker, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, locker: locker, logger: logger, sleep: time.Sleep}
}

// Recalculate replaces the event's match results with a freshly computed set.
// The replace is delete-then-insert, not atomic: earlier batches stay committed
// if a later one fails, and any is_hidden overrides from before the pass are
// reset to false. Returns a Summary; Records == 0 with a nil error means every
// pair was excluded (no matches produced), which is not a failure.
func (e *Engine) Recalculate(ctx context.Context, eventID uuid.UUID) (*Summary, error) {
	if e.locker != nil {
		release, err := e.locker.Acquire(ctx, eventID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	participants, err := e.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if len(participants) < 2 {
		return nil, ErrInsufficientParticipants
	}

	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	answers, err := e.store.ListAnswers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}

	byParticipant := make(map[uuid.UUID][]models.Answer)
	for _, a := range answers {
		byParticipant[a.ParticipantID] = append(byParticipant[a.ParticipantID], a)
	}

	now := time.Now()
	var records []models.MatchResult
	pairs := 0
	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			p1, p2 := participants[i], participants[j]
			if !pairEligible(p1, p2) {
				continue
			}
			a1, a2 := byParticipant[p1.ID], byParticipant[p2.ID]
			if len(a1) == 0 || len(a2) == 0 {
				continue
			}
			score := scorePair(a1, a2)
			pairs++
			records = append(records,
				models.MatchResult{EventID: eventID, ParticipantID: p1.ID, MatchedParticipantID: p2.ID, CompatibilityScore: score, CalculatedAt: now},
				models.MatchResult{EventID: eventID, ParticipantID: p2.ID, MatchedParticipantID: p1.ID, CompatibilityScore: score, CalculatedAt: now},
			)
		}
	}

	records = dedupeRecords(records)

	if err := e.replaceResults(ctx, eventID, records); err != nil {
		return nil, err
	}

	summary := &Summary{Participants: len(participants), EligiblePairs: pairs, Records: len(records)}
	e.logger.Info("match calculation completed",
		zap.String("event_id", eventID.String()),
		zap.Int("participants", summary.Participants),
		zap.Int("pairs", summary.EligiblePairs),
		zap.Int("records", summary.Records))
	return summary, nil
}

// pairEligible applies the same-gender exclusion: a pair is skipped only when
// both genders are set, equal, and not "other".
func pairEligible(p1, p2 models.Participant) bool {
	if p1.Gender == nil || p2.Gender == nil {
		return true
	}
	if *p1.Gender != *p2.Gender {
		return true
	}
	return *p1.Gender == models.GenderOther
}

// scorePair returns the percentage of shared questions where both picked the
// same option. The denominator is the smaller answer count; when duplicate
// answers exist for a question, the first encountered wins.
func scorePair(a1, a2 []models.Answer) float64 {
	total := len(a1)
	if len(a2) < total {
		total = len(a2)
	}
	if total == 0 {
		return 0
	}
	matches := 0
	for _, ans := range a1 {
		for _, other := range a2 {
			if other.QuestionID == ans.QuestionID {
				if other.SelectedOptionIndex == ans.SelectedOptionIndex {
					matches++
				}
				break
			}
		}
	}
	return float64(matches) / float64(total) * 100
}

// dedupeRecords drops repeated (participant, matched) keys, last write wins.
// The i<j pair walk should never produce duplicates; this is a safety net
// because persistence is chunked.
func dedupeRecords(records []models.MatchResult) []models.MatchResult {
	type key struct{ a, b uuid.UUID }
	index := make(map[key]int, len(records))
	out := records[:0]
	for _, rec := range records {
		k := key{rec.ParticipantID, rec.MatchedParticipantID}
		if pos, seen := index[k]; seen {
			out[pos] = rec
			continue
		}
		index[k] = len(out)
		out = append(out, rec)
	}
	return out
}

// replaceResults deletes the event's rows, confirms the delete landed, and
// inserts the new set in bounded batches with a conflict fallback.
func (e *Engine) replaceResults(ctx context.Context, eventID uuid.UUID, records []models.MatchResult) error {
	if _, err := e.store.DeleteMatchResults(ctx, eventID); err != nil {
		return fmt.Errorf("delete match results: %w", err)
	}

	// The store may apply the delete asynchronously relative to our reads;
	// poll until it is visible. Best effort: after the attempts run out we
	// proceed and rely on the conflict fallback below.
	for attempt := 0; attempt < deleteVerifyAttempts; attempt++ {
		n, err := e.store.CountMatchResults(ctx, eventID)
		if err != nil {
			return fmt.Errorf("verify delete: %w", err)
		}
		if n == 0 {
			break
		}
		e.logger.Warn("match rows still present after delete",
			zap.String("event_id", eventID.String()), zap.Int64("remaining", n), zap.Int("attempt", attempt+1))
		e.sleep(deleteVerifyDelay)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		err := e.store.InsertMatchResults(ctx, batch)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrDuplicatePair) {
			return fmt.Errorf("insert match results: %w", err)
		}
		// A directional row already exists, e.g. a concurrent pass raced the
		// verify step. Retry the batch row by row, updating in place on conflict.
		for _, rec := range batch {
			insErr := e.store.InsertMatchResults(ctx, []models.MatchResult{rec})
			if insErr == nil {
				continue
			}
			if !errors.Is(insErr, ErrDuplicatePair) {
				return fmt.Errorf("insert match result: %w", insErr)
			}
			if updErr := e.store.UpdateMatchResult(ctx, rec.EventID, rec.ParticipantID, rec.MatchedParticipantID, rec.CompatibilityScore, rec.IsHidden); updErr != nil {
				e.logger.Error("conflict fallback update failed",
					zap.Error(updErr),
					zap.String("participant_id", rec.ParticipantID.String()),
					zap.String("matched_participant_id", rec.MatchedParticipantID.String()))
			}
		}
	}
	return nil
}

package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ai-show/backend/internal/models"
)

type dirKey struct {
	a, b uuid.UUID
}

// fakeStore is an in-memory Store. deleteBroken simulates a store whose delete
// is not yet visible to reads, to exercise the verify-delete polling and the
// conflict fallback.
type fakeStore struct {
	participants []models.Participant
	answers      []models.Answer

	rows         map[dirKey]models.MatchResult
	deleteBroken bool

	deleteCalls int
	countCalls  int
	insertCalls int
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[dirKey]models.MatchResult)}
}

func (s *fakeStore) ListParticipants(_ context.Context, _ uuid.UUID) ([]models.Participant, error) {
	return s.participants, nil
}

func (s *fakeStore) ListAnswers(_ context.Context, _ []uuid.UUID) ([]models.Answer, error) {
	return s.answers, nil
}

func (s *fakeStore) DeleteMatchResults(_ context.Context, _ uuid.UUID) (int64, error) {
	s.deleteCalls++
	if s.deleteBroken {
		return 0, nil
	}
	n := int64(len(s.rows))
	s.rows = make(map[dirKey]models.MatchResult)
	return n, nil
}

func (s *fakeStore) CountMatchResults(_ context.Context, _ uuid.UUID) (int64, error) {
	s.countCalls++
	return int64(len(s.rows)), nil
}

func (s *fakeStore) InsertMatchResults(_ context.Context, records []models.MatchResult) error {
	s.insertCalls++
	for _, rec := range records {
		if _, exists := s.rows[dirKey{rec.ParticipantID, rec.MatchedParticipantID}]; exists {
			return ErrDuplicatePair
		}
	}
	for _, rec := range records {
		s.rows[dirKey{rec.ParticipantID, rec.MatchedParticipantID}] = rec
	}
	return nil
}

func (s *fakeStore) UpdateMatchResult(_ context.Context, eventID, participantID, matchedParticipantID uuid.UUID, score float64, isHidden bool) error {
	s.updateCalls++
	k := dirKey{participantID, matchedParticipantID}
	rec, ok := s.rows[k]
	if !ok {
		return errors.New("row not found")
	}
	rec.CompatibilityScore = score
	rec.IsHidden = isHidden
	s.rows[k] = rec
	return nil
}

func newTestEngine(store Store) *Engine {
	e := NewEngine(store, nil, nil)
	e.sleep = func(time.Duration) {}
	return e
}

func strptr(s string) *string { return &s }

func participant(gender *string) models.Participant {
	return models.Participant{ID: uuid.New(), Gender: gender}
}

func answer(pid, qid uuid.UUID, option int) models.Answer {
	return models.Answer{ID: uuid.New(), ParticipantID: pid, QuestionID: qid, SelectedOptionIndex: option}
}

func TestRecalculateThreeIdenticalParticipants(t *testing.T) {
	store := newFakeStore()
	q1, q2 := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		p := participant(nil)
		store.participants = append(store.participants, p)
		store.answers = append(store.answers, answer(p.ID, q1, 0), answer(p.ID, q2, 1))
	}

	summary, err := newTestEngine(store).Recalculate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if summary.EligiblePairs != 3 || summary.Records != 6 {
		t.Fatalf("summary = %+v, want 3 pairs / 6 records", summary)
	}
	if len(store.rows) != 6 {
		t.Fatalf("stored rows = %d, want 6", len(store.rows))
	}
	for k, rec := range store.rows {
		if rec.CompatibilityScore != 100 {
			t.Errorf("score for %v = %v, want 100", k, rec.CompatibilityScore)
		}
		if rec.IsHidden {
			t.Errorf("row %v hidden after calculation", k)
		}
	}
}

func TestRecalculateScoresAreSymmetric(t *testing.T) {
	store := newFakeStore()
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()
	p1, p2 := participant(nil), participant(nil)
	store.participants = []models.Participant{p1, p2}
	store.answers = []models.Answer{
		answer(p1.ID, q1, 0), answer(p1.ID, q2, 1), answer(p1.ID, q3, 2),
		answer(p2.ID, q1, 0), answer(p2.ID, q2, 0), answer(p2.ID, q3, 2),
	}

	if _, err := newTestEngine(store).Recalculate(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	forward := store.rows[dirKey{p1.ID, p2.ID}]
	reverse := store.rows[dirKey{p2.ID, p1.ID}]
	if forward.CompatibilityScore != reverse.CompatibilityScore {
		t.Fatalf("asymmetric scores: %v vs %v", forward.CompatibilityScore, reverse.CompatibilityScore)
	}
	want := 2.0 / 3.0 * 100
	if forward.CompatibilityScore != want {
		t.Fatalf("score = %v, want %v", forward.CompatibilityScore, want)
	}
}

func TestScorePairHalfMatch(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	a1 := []models.Answer{answer(p1, q1, 0), answer(p1, q2, 1)}
	a2 := []models.Answer{answer(p2, q1, 0), answer(p2, q2, 0)}
	if got := scorePair(a1, a2); got != 50.0 {
		t.Fatalf("scorePair = %v, want 50.0", got)
	}
}

func TestScorePairMinDenominator(t *testing.T) {
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	a1 := []models.Answer{answer(p1, q1, 1), answer(p1, q2, 1), answer(p1, q3, 1)}
	a2 := []models.Answer{answer(p2, q1, 1)}
	if got := scorePair(a1, a2); got != 100.0 {
		t.Fatalf("scorePair = %v, want 100.0 (denominator is the smaller answer count)", got)
	}
}

func TestPairEligibility(t *testing.T) {
	cases := []struct {
		name   string
		g1, g2 *string
		want   bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", strptr(models.GenderMale), nil, true},
		{"different", strptr(models.GenderMale), strptr(models.GenderFemale), true},
		{"same male", strptr(models.GenderMale), strptr(models.GenderMale), false},
		{"same female", strptr(models.GenderFemale), strptr(models.GenderFemale), false},
		{"both other", strptr(models.GenderOther), strptr(models.GenderOther), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := pairEligible(participant(c.g1), participant(c.g2)); got != c.want {
				t.Fatalf("pairEligible = %v, want %v", got, c.want)
			}
		})
	}
}

func TestGenderExclusionProducesNoRows(t *testing.T) {
	store := newFakeStore()
	q1 := uuid.New()
	p1, p2 := participant(strptr(models.GenderMale)), participant(strptr(models.GenderMale))
	store.participants = []models.Participant{p1, p2}
	store.answers = []models.Answer{answer(p1.ID, q1, 0), answer(p2.ID, q1, 0)}

	summary, err := newTestEngine(store).Recalculate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if summary.Records != 0 {
		t.Fatalf("records = %d, want 0 (same-gender pair excluded)", summary.Records)
	}
	if len(store.rows) != 0 {
		t.Fatalf("stored rows = %d, want 0", len(store.rows))
	}
}

func TestParticipantWithoutAnswersIsSkipped(t *testing.T) {
	store := newFakeStore()
	q1 := uuid.New()
	p1, p2, p3 := participant(nil), participant(nil), participant(nil)
	store.participants = []models.Participant{p1, p2, p3}
	// p3 never answered; only the {p1,p2} pair is scorable.
	store.answers = []models.Answer{answer(p1.ID, q1, 0), answer(p2.ID, q1, 1)}

	summary, err := newTestEngine(store).Recalculate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if summary.EligiblePairs != 1 || summary.Records != 2 {
		t.Fatalf("summary = %+v, want 1 pair / 2 records", summary)
	}
	if _, ok := store.rows[dirKey{p1.ID, p3.ID}]; ok {
		t.Fatal("row produced for participant with no answers")
	}
}

func TestInsufficientParticipants(t *testing.T) {
	store := newFakeStore()
	store.participants = []models.Participant{participant(nil)}

	_, err := newTestEngine(store).Recalculate(context.Background(), uuid.New())
	if !errors.Is(err, ErrInsufficientParticipants) {
		t.Fatalf("err = %v, want ErrInsufficientParticipants", err)
	}
	if store.deleteCalls != 0 || store.insertCalls != 0 {
		t.Fatal("precondition failure must not write")
	}
}

func TestNoAnswers(t *testing.T) {
	store := newFakeStore()
	store.participants = []models.Participant{participant(nil), participant(nil)}

	_, err := newTestEngine(store).Recalculate(context.Background(), uuid.New())
	if !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("err = %v, want ErrNoAnswers", err)
	}
	if store.deleteCalls != 0 || store.insertCalls != 0 {
		t.Fatal("precondition failure must not write")
	}
}

func TestRecalculateIsValueIdempotentAndResetsHidden(t *testing.T) {
	store := newFakeStore()
	q1 := uuid.New()
	p1, p2 := participant(nil), participant(nil)
	store.participants = []models.Participant{p1, p2}
	store.answers = []models.Answer{answer(p1.ID, q1, 0), answer(p2.ID, q1, 0)}

	engine := newTestEngine(store)
	eventID := uuid.New()
	if _, err := engine.Recalculate(context.Background(), eventID); err != nil {
		t.Fatalf("first Recalculate: %v", err)
	}
	first := store.rows[dirKey{p1.ID, p2.ID}].CompatibilityScore

	// Admin hides the pair between runs.
	rec := store.rows[dirKey{p1.ID, p2.ID}]
	rec.IsHidden = true
	store.rows[dirKey{p1.ID, p2.ID}] = rec

	if _, err := engine.Recalculate(context.Background(), eventID); err != nil {
		t.Fatalf("second Recalculate: %v", err)
	}
	after := store.rows[dirKey{p1.ID, p2.ID}]
	if after.CompatibilityScore != first {
		t.Fatalf("score changed across identical runs: %v vs %v", first, after.CompatibilityScore)
	}
	if after.IsHidden {
		t.Fatal("recalculation must reset is_hidden overrides")
	}
}

func TestDeleteVerifyPollsThenFallsBackToUpdate(t *testing.T) {
	store := newFakeStore()
	q1 := uuid.New()
	p1, p2 := participant(nil), participant(nil)
	store.participants = []models.Participant{p1, p2}
	store.answers = []models.Answer{answer(p1.ID, q1, 0), answer(p2.ID, q1, 0)}

	// Stale rows that the (broken) delete never removes.
	eventID := uuid.New()
	store.rows[dirKey{p1.ID, p2.ID}] = models.MatchResult{EventID: eventID, ParticipantID: p1.ID, MatchedParticipantID: p2.ID, CompatibilityScore: 10, IsHidden: true}
	store.rows[dirKey{p2.ID, p1.ID}] = models.MatchResult{EventID: eventID, ParticipantID: p2.ID, MatchedParticipantID: p1.ID, CompatibilityScore: 10, IsHidden: true}
	store.deleteBroken = true

	sleeps := 0
	engine := newTestEngine(store)
	engine.sleep = func(time.Duration) { sleeps++ }

	summary, err := engine.Recalculate(context.Background(), eventID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if sleeps != deleteVerifyAttempts {
		t.Fatalf("sleeps = %d, want %d (poll until attempts exhausted)", sleeps, deleteVerifyAttempts)
	}
	if summary.Records != 2 {
		t.Fatalf("records = %d, want 2", summary.Records)
	}
	if store.updateCalls != 2 {
		t.Fatalf("updateCalls = %d, want 2 (conflict fallback)", store.updateCalls)
	}
	rec := store.rows[dirKey{p1.ID, p2.ID}]
	if rec.CompatibilityScore != 100 || rec.IsHidden {
		t.Fatalf("stale row not updated in place: %+v", rec)
	}
}

func TestInsertsAreChunked(t *testing.T) {
	store := newFakeStore()
	q1 := uuid.New()
	// 12 participants, everyone answers: 66 pairs, 132 records, 3 batches of 50.
	for i := 0; i < 12; i++ {
		p := participant(nil)
		store.participants = append(store.participants, p)
		store.answers = append(store.answers, answer(p.ID, q1, 0))
	}

	summary, err := newTestEngine(store).Recalculate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if summary.Records != 132 {
		t.Fatalf("records = %d, want 132", summary.Records)
	}
	if store.insertCalls != 3 {
		t.Fatalf("insertCalls = %d, want 3 batches of at most %d", store.insertCalls, insertBatchSize)
	}
}

func TestDedupeRecordsLastWriteWins(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	records := []models.MatchResult{
		{ParticipantID: a, MatchedParticipantID: b, CompatibilityScore: 40},
		{ParticipantID: b, MatchedParticipantID: a, CompatibilityScore: 40},
		{ParticipantID: a, MatchedParticipantID: b, CompatibilityScore: 70},
	}
	out := dedupeRecords(records)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].CompatibilityScore != 70 {
		t.Fatalf("duplicate not overwritten: %+v", out[0])
	}
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, uuid.UUID) (func(), error) {
	return nil, ErrCalculationInProgress
}

func TestRecalculateRejectsWhenLocked(t *testing.T) {
	store := newFakeStore()
	store.participants = []models.Participant{participant(nil), participant(nil)}
	engine := NewEngine(store, busyLocker{}, nil)

	_, err := engine.Recalculate(context.Background(), uuid.New())
	if !errors.Is(err, ErrCalculationInProgress) {
		t.Fatalf("err = %v, want ErrCalculationInProgress", err)
	}
}

package matching

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ai-show/backend/internal/models"
)

func row(p1, p2 uuid.UUID, score float64, hidden bool) models.MatchRow {
	return models.MatchRow{
		ParticipantID:        p1,
		MatchedParticipantID: p2,
		CompatibilityScore:   score,
		IsHidden:             hidden,
	}
}

// bothDirections returns the two directional rows a calculation writes for one pair.
func bothDirections(p1, p2 uuid.UUID, score float64) []models.MatchRow {
	return []models.MatchRow{row(p1, p2, score, false), row(p2, p1, score, false)}
}

func TestBuildPairListThresholdAndTopFlag(t *testing.T) {
	a, b, c, d, e := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	var rows []models.MatchRow
	rows = append(rows, bothDirections(a, b, 90)...)
	rows = append(rows, bothDirections(a, c, 85)...)
	rows = append(rows, bothDirections(b, c, 84.999)...)
	rows = append(rows, bothDirections(d, e, 100)...)

	pairs := BuildPairList(rows, 85)
	if len(pairs) != 3 {
		t.Fatalf("len = %d, want 3 (84.999 is below an 85 threshold, 85 is not)", len(pairs))
	}
	wantScores := []float64{100, 90, 85}
	for i, p := range pairs {
		if p.Score != wantScores[i] {
			t.Fatalf("pairs[%d].Score = %v, want %v (descending order)", i, p.Score, wantScores[i])
		}
	}
	for _, p := range pairs {
		if p.IsTopScore != (p.Score == 100) {
			t.Fatalf("IsTopScore wrong for score %v", p.Score)
		}
	}
}

func TestBuildPairListTiedTopScores(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	var rows []models.MatchRow
	rows = append(rows, bothDirections(a, b, 100)...)
	rows = append(rows, bothDirections(c, d, 100)...)
	rows = append(rows, bothDirections(a, c, 60)...)

	pairs := BuildPairList(rows, 0)
	if len(pairs) != 3 {
		t.Fatalf("len = %d, want 3", len(pairs))
	}
	top := 0
	for _, p := range pairs {
		if p.IsTopScore {
			top++
		}
	}
	if top != 2 {
		t.Fatalf("top flags = %d, want 2 (every entry tied at the maximum)", top)
	}
}

func TestBuildPairListCollapsesDirections(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	pairs := BuildPairList(bothDirections(a, b, 75), 0)
	if len(pairs) != 1 {
		t.Fatalf("len = %d, want 1 (directional rows collapse to one pair)", len(pairs))
	}
}

func TestBuildPairListFiltersSelfAndHidden(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	rows := []models.MatchRow{
		row(a, a, 100, false),
		row(b, c, 90, true),
		row(c, b, 90, true),
	}
	if pairs := BuildPairList(rows, 0); len(pairs) != 0 {
		t.Fatalf("len = %d, want 0 (self-pairs and hidden rows drop)", len(pairs))
	}
}

func TestBuildPairListHiddenDivergenceKeepsVisibleDirection(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rows := []models.MatchRow{
		row(a, b, 90, true),
		row(b, a, 90, false),
	}
	pairs := BuildPairList(rows, 0)
	if len(pairs) != 1 {
		t.Fatalf("len = %d, want 1 (pair survives through its visible direction)", len(pairs))
	}
	if pairs[0].ParticipantID != b {
		t.Fatalf("kept direction = %v, want the visible row's orientation", pairs[0].ParticipantID)
	}
}

func TestBuildPairListEmpty(t *testing.T) {
	if pairs := BuildPairList(nil, 85); len(pairs) != 0 {
		t.Fatalf("len = %d, want 0", len(pairs))
	}
}

func TestPairKeyOrderInsensitive(t *testing.T) {
	if pairKey("x", "y") != pairKey("y", "x") {
		t.Fatal("pairKey must not depend on argument order")
	}
}

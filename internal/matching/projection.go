package matching

import (
	"sort"
	"strings"

	"github.com/ai-show/backend/internal/models"
)

// BuildPairList turns directional match rows into the rendered pair list:
// self-pairs, hidden rows, and rows below the threshold are dropped, the two
// directional rows of a pair collapse into one entry keyed by the sorted id
// pair, the result is sorted by score descending, and every entry tied for the
// maximum score is flagged as top.
//
// Hidden-flag divergence between the two directions of a pair is resolved per
// row: a hidden direction is skipped, but the pair still renders if its reverse
// row is visible.
func BuildPairList(rows []models.MatchRow, threshold float64) []models.MatchPair {
	seen := make(map[string]struct{}, len(rows))
	pairs := make([]models.MatchPair, 0, len(rows)/2)

	for _, row := range rows {
		if row.ParticipantID == row.MatchedParticipantID {
			continue
		}
		if row.IsHidden {
			continue
		}
		if row.CompatibilityScore < threshold {
			continue
		}
		key := pairKey(row.ParticipantID.String(), row.MatchedParticipantID.String())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		pairs = append(pairs, models.MatchPair{
			ParticipantID:        row.ParticipantID,
			ParticipantName:      row.ParticipantName,
			ParticipantImage:     row.ParticipantImage,
			MatchedParticipantID: row.MatchedParticipantID,
			MatchedName:          row.MatchedName,
			MatchedImage:         row.MatchedImage,
			Score:                row.CompatibilityScore,
		})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })

	if len(pairs) > 0 {
		max := pairs[0].Score
		for i := range pairs {
			pairs[i].IsTopScore = pairs[i].Score == max
		}
	}
	return pairs
}

// pairKey is the canonical key of an unordered pair: the two ids sorted and joined.
func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "-" + b
}

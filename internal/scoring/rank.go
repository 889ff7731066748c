package scoring

import (
	"sort"

	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// Ranked pairs an alternative with its weighted score.
type Ranked struct {
	AlternativeID string  `json:"alternative_id"`
	Label         string  `json:"label,omitempty"`
	Score         float64 `json:"score"`
}

// Rank orders alternatives by weighted score, highest first. Equal scores keep
// their input order.
func Rank(m *ScoreMatrix, criteria []*store.Criterion, subject string, alternatives []string) []Ranked {
	out := make([]Ranked, 0, len(alternatives))
	for _, alt := range alternatives {
		out = append(out, Ranked{
			AlternativeID: alt,
			Score:         WeightedScore(m, criteria, subject, alt),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Recommend returns the head of Rank. ok is false only when alternatives is empty.
func Recommend(m *ScoreMatrix, criteria []*store.Criterion, subject string, alternatives []string) (Ranked, bool) {
	ranked := Rank(m, criteria, subject, alternatives)
	if len(ranked) == 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

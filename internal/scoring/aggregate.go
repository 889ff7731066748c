package scoring

import (
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// FactorResult captures one criterion's contribution to a weighted score.
type FactorResult struct {
	CriterionID string  `json:"criterion_id"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Weighted    float64 `json:"weighted"`
	Available   bool    `json:"available"`
	OutOfRange  bool    `json:"out_of_range,omitempty"`
}

// Evaluation is the full breakdown for one subject/alternative pair.
type Evaluation struct {
	SubjectID     string         `json:"subject_id"`
	SubjectName   string         `json:"subject_name,omitempty"`
	AlternativeID string         `json:"alternative_id,omitempty"`
	WeightedScore float64        `json:"weighted_score"`
	Coverage      float64        `json:"coverage"`
	Scored        int            `json:"scored"`
	Total         int            `json:"total"`
	Factors       []FactorResult `json:"factors"`
}

// WeightedScore computes
//
//	Σ score(c)·weight(c) / Σ weight(c)
//
// over the criteria that have a recorded score for the pair. Unscored criteria
// are left out of both sums. With nothing scored, or a zero weight total over
// the scored set, the result is 0.
func WeightedScore(m *ScoreMatrix, criteria []*store.Criterion, subject, alternative string) float64 {
	var num, den float64
	for _, c := range criteria {
		v, ok := m.Get(subject, alternative, c.ID)
		if !ok {
			continue
		}
		num += v * c.Weight
		den += c.Weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Explain returns the per-criterion breakdown behind WeightedScore. Scores
// outside a criterion's declared range are flagged, not clamped.
func Explain(m *ScoreMatrix, criteria []*store.Criterion, subject, alternative string) Evaluation {
	ev := Evaluation{
		SubjectID:     subject,
		AlternativeID: alternative,
		Total:         len(criteria),
		Factors:       make([]FactorResult, 0, len(criteria)),
	}

	for _, c := range criteria {
		f := FactorResult{
			CriterionID: c.ID.String(),
			Name:        c.Name,
			Weight:      c.Weight,
		}
		if v, ok := m.Get(subject, alternative, c.ID); ok {
			f.Score = v
			f.Weighted = v * c.Weight
			f.Available = true
			f.OutOfRange = !c.InRange(v)
			ev.Scored++
		}
		ev.Factors = append(ev.Factors, f)
	}

	ev.WeightedScore = WeightedScore(m, criteria, subject, alternative)
	if ev.Total > 0 {
		ev.Coverage = float64(ev.Scored) / float64(ev.Total)
	}
	return ev
}

package scoring

import (
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// Frontier returns the alternatives that no other alternative dominates on
// the per-criterion scores, in input order.
// An alternative dominates another when it is scored on every criterion the
// other is scored on, is >= on each, and is strictly better on at least one.
// O(n^2) dominance check, fine for user-authored alternative sets.
func Frontier(m *ScoreMatrix, criteria []*store.Criterion, subject string, alternatives []string) []string {
	if len(alternatives) <= 1 {
		return append([]string(nil), alternatives...)
	}

	var frontier []string
	for i, candidate := range alternatives {
		dominated := false
		for j, other := range alternatives {
			if i == j {
				continue
			}
			if dominates(m, criteria, subject, other, candidate) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidate)
		}
	}
	return frontier
}

// dominates reports whether alternative a dominates b. Higher is better on
// every criterion.
func dominates(m *ScoreMatrix, criteria []*store.Criterion, subject, a, b string) bool {
	strictlyBetter := false
	compared := false
	for _, c := range criteria {
		bv, bok := m.Get(subject, b, c.ID)
		if !bok {
			continue
		}
		av, aok := m.Get(subject, a, c.ID)
		if !aok || av < bv {
			return false
		}
		compared = true
		if av > bv {
			strictlyBetter = true
		}
	}
	return compared && strictlyBetter
}

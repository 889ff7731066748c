package scoring

import (
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// ScoreMatrix is a sparse subject × alternative × criterion grid. A missing
// cell means "not evaluated" and is never read back as zero.
//
// An empty alternative id is the subject itself, as used by the single-subject
// modules (risk, bia).
type ScoreMatrix struct {
	cells    map[string]map[string]map[uuid.UUID]float64
	subjects []string
	alts     map[string][]string
}

func NewScoreMatrix() *ScoreMatrix {
	return &ScoreMatrix{
		cells: make(map[string]map[string]map[uuid.UUID]float64),
		alts:  make(map[string][]string),
	}
}

// BuildFromRecords groups flat records into a matrix. Later records win over
// earlier ones with the same key.
func BuildFromRecords(records []*store.ScoreRecord) *ScoreMatrix {
	m := NewScoreMatrix()
	for _, r := range records {
		if r == nil {
			continue
		}
		m.Upsert(r.SubjectID, r.AlternativeID, r.CriterionID, r.Score)
	}
	return m
}

// Upsert sets a cell. No bounds checking is done against the criterion range.
func (m *ScoreMatrix) Upsert(subject, alternative string, criterion uuid.UUID, score float64) {
	byAlt, ok := m.cells[subject]
	if !ok {
		byAlt = make(map[string]map[uuid.UUID]float64)
		m.cells[subject] = byAlt
		m.subjects = append(m.subjects, subject)
	}
	byCrit, ok := byAlt[alternative]
	if !ok {
		byCrit = make(map[uuid.UUID]float64)
		byAlt[alternative] = byCrit
		m.alts[subject] = append(m.alts[subject], alternative)
	}
	byCrit[criterion] = score
}

func (m *ScoreMatrix) Get(subject, alternative string, criterion uuid.UUID) (float64, bool) {
	v, ok := m.cells[subject][alternative][criterion]
	return v, ok
}

// Subjects returns subject ids in first-seen order.
func (m *ScoreMatrix) Subjects() []string {
	out := make([]string, len(m.subjects))
	copy(out, m.subjects)
	return out
}

// Alternatives returns the alternatives recorded for subject in first-seen order.
func (m *ScoreMatrix) Alternatives(subject string) []string {
	alts := m.alts[subject]
	out := make([]string, len(alts))
	copy(out, alts)
	return out
}

// Len is the number of recorded cells.
func (m *ScoreMatrix) Len() int {
	n := 0
	for _, byAlt := range m.cells {
		for _, byCrit := range byAlt {
			n += len(byCrit)
		}
	}
	return n
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ModuleType string

const (
	ModuleRisk     ModuleType = "risk"
	ModuleBIA      ModuleType = "bia"
	ModuleStrategy ModuleType = "strategy"
)

// Valid reports whether m is one of the known module types.
func (m ModuleType) Valid() bool {
	switch m {
	case ModuleRisk, ModuleBIA, ModuleStrategy:
		return true
	}
	return false
}

type CriterionKind string

const (
	KindQuantitative CriterionKind = "quantitative"
	KindQualitative  CriterionKind = "qualitative"
)

func (k CriterionKind) Valid() bool {
	return k == KindQuantitative || k == KindQualitative
}

type Criterion struct {
	ID          uuid.UUID     `json:"id"`
	Owner       string        `json:"owner"`
	ModuleType  ModuleType    `json:"module_type"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Weight      float64       `json:"weight"`
	Kind        CriterionKind `json:"kind"`
	MinValue    *float64      `json:"min_value,omitempty"`
	MaxValue    *float64      `json:"max_value,omitempty"`

	// Seq is the insertion sequence, used to break weight ties when listing.
	Seq int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InRange reports whether v lies inside the criterion's declared range.
// An unset bound is open.
func (c *Criterion) InRange(v float64) bool {
	if c.MinValue != nil && v < *c.MinValue {
		return false
	}
	if c.MaxValue != nil && v > *c.MaxValue {
		return false
	}
	return true
}

// ScoreRecord is one cell of the score matrix as persisted. An empty
// AlternativeID means the subject is scored directly (risk, bia).
type ScoreRecord struct {
	Owner         string    `json:"owner"`
	SubjectID     string    `json:"subject_id"`
	AlternativeID string    `json:"alternative_id,omitempty"`
	CriterionID   uuid.UUID `json:"criterion_id"`
	Score         float64   `json:"score"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ScoreFilter struct {
	Owner     string
	SubjectID string
}

type Stats struct {
	Criteria     int `json:"criteria"`
	Scores       int `json:"scores"`
	OrphanScores int `json:"orphan_scores"`
}

type Store interface {
	CreateCriterion(ctx context.Context, c *Criterion) error
	GetCriterion(ctx context.Context, id uuid.UUID) (*Criterion, error)
	UpdateCriterion(ctx context.Context, c *Criterion) error
	DeleteCriterion(ctx context.Context, id uuid.UUID) error
	ListCriteria(ctx context.Context, owner string, module ModuleType) ([]*Criterion, error)

	UpsertScore(ctx context.Context, rec *ScoreRecord) error
	ListScores(ctx context.Context, filter ScoreFilter) ([]*ScoreRecord, error)

	// DeleteOrphanScores removes scores whose criterion no longer exists.
	// An empty owner sweeps every owner.
	DeleteOrphanScores(ctx context.Context, owner string) (int64, error)

	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}

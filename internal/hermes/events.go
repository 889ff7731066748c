package hermes

import "time"

type CriterionEvent struct {
	CriterionID string  `json:"criterion_id"`
	Owner       string  `json:"owner"`
	ModuleType  string  `json:"module_type"`
	Name        string  `json:"name,omitempty"`
	Weight      float64 `json:"weight"`
}

type ScoreUpsertedEvent struct {
	Owner         string  `json:"owner"`
	SubjectID     string  `json:"subject_id"`
	AlternativeID string  `json:"alternative_id,omitempty"`
	CriterionID   string  `json:"criterion_id"`
	Score         float64 `json:"score"`
}

type OrphansPurgedEvent struct {
	Owner   string    `json:"owner,omitempty"`
	Removed int64     `json:"removed"`
	At      time.Time `json:"at"`
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type scoreKey struct {
	owner       string
	subject     string
	alternative string
	criterion   uuid.UUID
}

// MemoryStore keeps everything in process. Used by tests and by the
// "memory" database driver for local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	criteria map[uuid.UUID]*Criterion
	scores   map[scoreKey]*ScoreRecord
	order    []scoreKey
	nextSeq  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		criteria: make(map[uuid.UUID]*Criterion),
		scores:   make(map[scoreKey]*ScoreRecord),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateCriterion(_ context.Context, c *Criterion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	now := time.Now().UTC()
	c.ID = uuid.New()
	c.Seq = s.nextSeq
	c.CreatedAt = now
	c.UpdatedAt = now

	cp := *c
	s.criteria[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCriterion(_ context.Context, id uuid.UUID) (*Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.criteria[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) UpdateCriterion(_ context.Context, c *Criterion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.criteria[c.ID]
	if !ok {
		return nil
	}
	c.Seq = existing.Seq
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	cp := *c
	s.criteria[c.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteCriterion(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.criteria, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListCriteria(_ context.Context, owner string, module ModuleType) ([]*Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Criterion
	for _, c := range s.criteria {
		if c.Owner != owner || c.ModuleType != module {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *MemoryStore) UpsertScore(_ context.Context, rec *ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scoreKey{rec.Owner, rec.SubjectID, rec.AlternativeID, rec.CriterionID}
	rec.UpdatedAt = time.Now().UTC()
	if _, ok := s.scores[key]; !ok {
		s.order = append(s.order, key)
	}
	cp := *rec
	s.scores[key] = &cp
	return nil
}

// ListScores returns records in first-write order so callers see a stable
// alternative ordering.
func (s *MemoryStore) ListScores(_ context.Context, filter ScoreFilter) ([]*ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ScoreRecord
	for _, key := range s.order {
		rec, ok := s.scores[key]
		if !ok {
			continue
		}
		if filter.Owner != "" && rec.Owner != filter.Owner {
			continue
		}
		if filter.SubjectID != "" && rec.SubjectID != filter.SubjectID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) DeleteOrphanScores(_ context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	kept := s.order[:0]
	for _, key := range s.order {
		if _, live := s.criteria[key.criterion]; !live && (owner == "" || key.owner == owner) {
			delete(s.scores, key)
			n++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return n, nil
}

func (s *MemoryStore) GetStats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &Stats{Criteria: len(s.criteria), Scores: len(s.scores)}
	for key := range s.scores {
		if _, live := s.criteria[key.criterion]; !live {
			st.OrphanScores++
		}
	}
	return st, nil
}

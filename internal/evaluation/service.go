// Package evaluation answers score, ranking and recommendation queries for a
// subject by loading the owner's criteria and recorded scores on every call.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Assay/internal/directory"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// Request identifies what to evaluate. Alternatives may be empty, in which
// case the alternatives recorded for the subject are used.
type Request struct {
	Owner        string
	ModuleType   store.ModuleType
	SubjectID    string
	Alternatives []string
}

type Service struct {
	store     store.Store
	hermes    hermes.Client
	metrics   *metrics.Metrics
	directory directory.Client
	profiles  map[store.ModuleType]directory.Profile
	logger    *slog.Logger
}

type Option func(*Service)

func WithHermes(h hermes.Client) Option { return func(s *Service) { s.hermes = h } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithDirectory enables labelling results for the module types in profiles.
func WithDirectory(c directory.Client, profiles []directory.Profile) Option {
	return func(s *Service) {
		s.directory = c
		s.profiles = make(map[store.ModuleType]directory.Profile, len(profiles))
		for _, p := range profiles {
			s.profiles[store.ModuleType(p.ModuleType)] = p
		}
	}
}

func NewService(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: st, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// snapshot is the state one evaluation works from. It is never shared between
// calls.
type snapshot struct {
	criteria []*store.Criterion
	matrix   *scoring.ScoreMatrix
}

func (s *Service) load(ctx context.Context, req Request) (*snapshot, error) {
	if !req.ModuleType.Valid() {
		return nil, &scoring.ValidationError{Field: "module_type", Reason: fmt.Sprintf("unknown module type %q", req.ModuleType)}
	}
	if strings.TrimSpace(req.SubjectID) == "" {
		return nil, &scoring.ValidationError{Field: "subject_id", Reason: "must not be empty"}
	}

	criteria, err := s.store.ListCriteria(ctx, req.Owner, req.ModuleType)
	if err != nil {
		return nil, scoring.WrapPersistence("fetch criteria", err)
	}
	records, err := s.store.ListScores(ctx, store.ScoreFilter{Owner: req.Owner, SubjectID: req.SubjectID})
	if err != nil {
		return nil, scoring.WrapPersistence("fetch scores", err)
	}
	return &snapshot{criteria: criteria, matrix: scoring.BuildFromRecords(records)}, nil
}

// alternatives falls back to what has been recorded for the subject against
// the module's live criteria, and then to the subject itself. Cells held for
// another module or for deleted criteria never introduce an alternative.
func (snap *snapshot) alternatives(req Request) []string {
	if len(req.Alternatives) > 0 {
		return req.Alternatives
	}
	var alts []string
	for _, alt := range snap.matrix.Alternatives(req.SubjectID) {
		if snap.scoredAgainstCriteria(req.SubjectID, alt) {
			alts = append(alts, alt)
		}
	}
	if len(alts) > 0 {
		return alts
	}
	return []string{""}
}

func (snap *snapshot) scoredAgainstCriteria(subject, alternative string) bool {
	for _, c := range snap.criteria {
		if _, ok := snap.matrix.Get(subject, alternative, c.ID); ok {
			return true
		}
	}
	return false
}

// WeightedScore returns the weighted score for one subject/alternative pair.
// Use an empty alternative for single-subject modules.
func (s *Service) WeightedScore(ctx context.Context, req Request, alternative string) (score float64, err error) {
	defer s.observe(req, "score", time.Now(), &err)

	snap, err := s.load(ctx, req)
	if err != nil {
		return 0, err
	}
	return scoring.WeightedScore(snap.matrix, snap.criteria, req.SubjectID, alternative), nil
}

func (s *Service) Ranking(ctx context.Context, req Request) (ranked []scoring.Ranked, err error) {
	defer s.observe(req, "ranking", time.Now(), &err)

	snap, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	ranked = scoring.Rank(snap.matrix, snap.criteria, req.SubjectID, snap.alternatives(req))
	s.labelRanked(ctx, req.ModuleType, ranked)
	return ranked, nil
}

// Recommendation returns the best alternative. ok is false only when there is
// nothing to choose from.
func (s *Service) Recommendation(ctx context.Context, req Request) (best scoring.Ranked, ok bool, err error) {
	defer s.observe(req, "recommendation", time.Now(), &err)

	snap, err := s.load(ctx, req)
	if err != nil {
		return scoring.Ranked{}, false, err
	}
	best, ok = scoring.Recommend(snap.matrix, snap.criteria, req.SubjectID, snap.alternatives(req))
	if ok {
		one := []scoring.Ranked{best}
		s.labelRanked(ctx, req.ModuleType, one)
		best = one[0]
	}
	return best, ok, nil
}

func (s *Service) Explain(ctx context.Context, req Request, alternative string) (ev scoring.Evaluation, err error) {
	defer s.observe(req, "explain", time.Now(), &err)

	snap, err := s.load(ctx, req)
	if err != nil {
		return scoring.Evaluation{}, err
	}
	ev = scoring.Explain(snap.matrix, snap.criteria, req.SubjectID, alternative)
	if item := s.lookupSubject(ctx, req.ModuleType, req.SubjectID); item != nil {
		ev.SubjectName = item.Name
	}
	return ev, nil
}

// Frontier returns the alternatives no other alternative beats on every
// criterion.
func (s *Service) Frontier(ctx context.Context, req Request) (frontier []string, err error) {
	defer s.observe(req, "frontier", time.Now(), &err)

	snap, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	frontier = scoring.Frontier(snap.matrix, snap.criteria, req.SubjectID, snap.alternatives(req))
	if frontier == nil {
		frontier = []string{}
	}
	return frontier, nil
}

// UpsertScore records one cell. The criterion must exist and belong to the
// record's owner; the value itself is stored as given.
func (s *Service) UpsertScore(ctx context.Context, rec *store.ScoreRecord) error {
	if strings.TrimSpace(rec.SubjectID) == "" {
		return &scoring.ValidationError{Field: "subject_id", Reason: "must not be empty"}
	}
	if math.IsNaN(rec.Score) || math.IsInf(rec.Score, 0) {
		return &scoring.ValidationError{Field: "score", Reason: "must be a finite number"}
	}

	c, err := s.store.GetCriterion(ctx, rec.CriterionID)
	if err != nil {
		return scoring.WrapPersistence("get criterion", err)
	}
	if c == nil || c.Owner != rec.Owner {
		return scoring.ErrCriterionNotFound
	}

	if err := s.store.UpsertScore(ctx, rec); err != nil {
		return scoring.WrapPersistence("upsert score", err)
	}

	if !c.InRange(rec.Score) {
		s.logger.Debug("score outside criterion range", "criterion_id", c.ID, "subject_id", rec.SubjectID, "score", rec.Score)
	}
	s.metrics.ScoreUpserted(string(c.ModuleType))
	if s.hermes != nil {
		evt := hermes.ScoreUpsertedEvent{
			Owner:         rec.Owner,
			SubjectID:     rec.SubjectID,
			AlternativeID: rec.AlternativeID,
			CriterionID:   rec.CriterionID.String(),
			Score:         rec.Score,
		}
		if err := s.hermes.Publish(hermes.SubjectScoreUpserted, evt); err != nil {
			s.logger.Warn("failed to publish score event", "subject_id", rec.SubjectID, "error", err)
		}
	}
	return nil
}

func (s *Service) ListScores(ctx context.Context, filter store.ScoreFilter) ([]*store.ScoreRecord, error) {
	records, err := s.store.ListScores(ctx, filter)
	if err != nil {
		return nil, scoring.WrapPersistence("fetch scores", err)
	}
	return records, nil
}

// Profiles returns the configured module profiles.
func (s *Service) Profiles() []directory.Profile {
	out := make([]directory.Profile, 0, len(s.profiles))
	for _, mt := range []store.ModuleType{store.ModuleRisk, store.ModuleBIA, store.ModuleStrategy} {
		if p, ok := s.profiles[mt]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) observe(req Request, op string, start time.Time, err *error) {
	s.metrics.ObserveEvaluation(string(req.ModuleType), op, start, *err)
	if *err != nil {
		s.logger.Error("evaluation failed", "op", op, "owner", req.Owner, "module_type", req.ModuleType, "subject_id", req.SubjectID, "error", *err)
	}
}

func (s *Service) lookupSubject(ctx context.Context, mt store.ModuleType, id string) *directory.Item {
	p, ok := s.profiles[mt]
	if s.directory == nil || !ok {
		return nil
	}
	item, err := s.directory.GetSubject(ctx, p, id)
	if err != nil {
		s.logger.Warn("subject lookup failed", "module_type", mt, "subject_id", id, "error", err)
		return nil
	}
	return item
}

func (s *Service) labelRanked(ctx context.Context, mt store.ModuleType, ranked []scoring.Ranked) {
	p, ok := s.profiles[mt]
	if s.directory == nil || !ok {
		return
	}
	for i := range ranked {
		if ranked[i].AlternativeID == "" {
			continue
		}
		item, err := s.directory.GetAlternative(ctx, p, ranked[i].AlternativeID)
		if err != nil {
			s.logger.Warn("alternative lookup failed", "module_type", mt, "alternative_id", ranked[i].AlternativeID, "error", err)
			continue
		}
		if item != nil {
			ranked[i].Label = item.Name
		}
	}
}

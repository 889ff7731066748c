// Package criteria manages the weighted criterion sets each owner keeps per
// module type.
package criteria

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type Manager struct {
	store         store.Store
	hermes        hermes.Client
	metrics       *metrics.Metrics
	strictWeights bool
	logger        *slog.Logger
}

type Option func(*Manager)

func WithHermes(h hermes.Client) Option { return func(m *Manager) { m.hermes = h } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// WithStrictWeights rejects writes that push a set's weight total above 100.
func WithStrictWeights(strict bool) Option { return func(m *Manager) { m.strictWeights = strict } }

func NewManager(s store.Store, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{store: s, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateInput struct {
	Owner       string              `json:"-"`
	ModuleType  store.ModuleType    `json:"module_type"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Weight      float64             `json:"weight"`
	Kind        store.CriterionKind `json:"kind,omitempty"`
	MinValue    *float64            `json:"min_value,omitempty"`
	MaxValue    *float64            `json:"max_value,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged; ClearRange drops
// both bounds before MinValue/MaxValue are applied.
type Patch struct {
	Name        *string              `json:"name,omitempty"`
	Description *string              `json:"description,omitempty"`
	Weight      *float64             `json:"weight,omitempty"`
	Kind        *store.CriterionKind `json:"kind,omitempty"`
	MinValue    *float64             `json:"min_value,omitempty"`
	MaxValue    *float64             `json:"max_value,omitempty"`
	ClearRange  bool                 `json:"clear_range,omitempty"`
}

func (m *Manager) Create(ctx context.Context, in CreateInput) (*store.Criterion, error) {
	c := &store.Criterion{
		Owner:       in.Owner,
		ModuleType:  in.ModuleType,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Weight:      in.Weight,
		Kind:        in.Kind,
		MinValue:    in.MinValue,
		MaxValue:    in.MaxValue,
	}
	if c.Kind == "" {
		c.Kind = store.KindQuantitative
	}
	if err := scoring.ValidateCriterion(c); err != nil {
		return nil, err
	}
	if err := m.checkWeightTotal(ctx, c); err != nil {
		return nil, err
	}

	if err := m.store.CreateCriterion(ctx, c); err != nil {
		return nil, scoring.WrapPersistence("create criterion", err)
	}

	m.logger.Info("criterion created", "criterion_id", c.ID, "owner", c.Owner, "module_type", c.ModuleType, "weight", c.Weight)
	m.metrics.CriterionMutated(string(c.ModuleType), "create")
	m.publish(hermes.SubjectCriterionCreated(c.ID.String()), c)
	return c, nil
}

// Get returns ErrCriterionNotFound when id is unknown or belongs to another owner.
func (m *Manager) Get(ctx context.Context, owner string, id uuid.UUID) (*store.Criterion, error) {
	c, err := m.store.GetCriterion(ctx, id)
	if err != nil {
		return nil, scoring.WrapPersistence("get criterion", err)
	}
	if c == nil || c.Owner != owner {
		return nil, scoring.ErrCriterionNotFound
	}
	return c, nil
}

func (m *Manager) Update(ctx context.Context, owner string, id uuid.UUID, p Patch) (*store.Criterion, error) {
	c, err := m.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Weight != nil {
		c.Weight = *p.Weight
	}
	if p.Kind != nil {
		c.Kind = *p.Kind
	}
	if p.ClearRange {
		c.MinValue, c.MaxValue = nil, nil
	}
	if p.MinValue != nil {
		c.MinValue = p.MinValue
	}
	if p.MaxValue != nil {
		c.MaxValue = p.MaxValue
	}

	if err := scoring.ValidateCriterion(c); err != nil {
		return nil, err
	}
	if p.Weight != nil {
		if err := m.checkWeightTotal(ctx, c); err != nil {
			return nil, err
		}
	}

	if err := m.store.UpdateCriterion(ctx, c); err != nil {
		return nil, scoring.WrapPersistence("update criterion", err)
	}

	m.logger.Info("criterion updated", "criterion_id", c.ID, "owner", owner)
	m.metrics.CriterionMutated(string(c.ModuleType), "update")
	m.publish(hermes.SubjectCriterionUpdated(c.ID.String()), c)
	return c, nil
}

// Delete removes a criterion. Unknown ids are a no-op. Scores recorded
// against the criterion are left in place and stop counting immediately.
func (m *Manager) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	c, err := m.store.GetCriterion(ctx, id)
	if err != nil {
		return scoring.WrapPersistence("get criterion", err)
	}
	if c == nil || c.Owner != owner {
		return nil
	}

	if err := m.store.DeleteCriterion(ctx, id); err != nil {
		return scoring.WrapPersistence("delete criterion", err)
	}

	m.logger.Info("criterion deleted", "criterion_id", id, "owner", owner)
	m.metrics.CriterionMutated(string(c.ModuleType), "delete")
	m.publish(hermes.SubjectCriterionDeleted(id.String()), c)
	return nil
}

// List returns the owner's criteria for a module, heaviest first. Equal
// weights keep insertion order.
func (m *Manager) List(ctx context.Context, owner string, module store.ModuleType) ([]*store.Criterion, error) {
	if !module.Valid() {
		return nil, &scoring.ValidationError{Field: "module_type", Reason: fmt.Sprintf("unknown module type %q", module)}
	}
	list, err := m.store.ListCriteria(ctx, owner, module)
	if err != nil {
		return nil, scoring.WrapPersistence("fetch criteria", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight > list[j].Weight
		}
		return list[i].Seq < list[j].Seq
	})
	return list, nil
}

// checkWeightTotal enforces the 100 ceiling when strict weights are on. c may
// be new or an edited member of the set.
func (m *Manager) checkWeightTotal(ctx context.Context, c *store.Criterion) error {
	if !m.strictWeights {
		return nil
	}
	existing, err := m.store.ListCriteria(ctx, c.Owner, c.ModuleType)
	if err != nil {
		return scoring.WrapPersistence("fetch criteria", err)
	}
	set := make([]*store.Criterion, 0, len(existing)+1)
	for _, e := range existing {
		if e.ID != c.ID {
			set = append(set, e)
		}
	}
	set = append(set, c)

	if b := scoring.Balance(set); b.Total > scoring.TargetWeightTotal && !b.Balanced {
		return &scoring.ValidationError{
			Field:  "weight",
			Reason: fmt.Sprintf("set would total %.4f, above %.0f", b.Total, scoring.TargetWeightTotal),
		}
	}
	return nil
}

func (m *Manager) publish(subject string, c *store.Criterion) {
	if m.hermes == nil {
		return
	}
	evt := hermes.CriterionEvent{
		CriterionID: c.ID.String(),
		Owner:       c.Owner,
		ModuleType:  string(c.ModuleType),
		Name:        c.Name,
		Weight:      c.Weight,
	}
	if err := m.hermes.Publish(subject, evt); err != nil {
		m.logger.Warn("failed to publish criterion event", "subject", subject, "error", err)
	}
}

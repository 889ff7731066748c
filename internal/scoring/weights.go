package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/MikeSquared-Agency/Assay/internal/store"
)

const (
	// TargetWeightTotal is the intended sum of weights in one criterion set.
	TargetWeightTotal = 100.0

	MinWeight = 0.0
	MaxWeight = 100.0

	weightTolerance = 0.001
)

// WeightBalance summarises how a criterion set's weights add up.
type WeightBalance struct {
	Total    float64 `json:"weight_total"`
	Balanced bool    `json:"balanced"`
}

// Balance sums the weights of criteria. The aggregator normalises by the
// scored weight total, so an unbalanced set still yields meaningful scores.
func Balance(criteria []*store.Criterion) WeightBalance {
	var total float64
	for _, c := range criteria {
		total += c.Weight
	}
	return WeightBalance{
		Total:    total,
		Balanced: math.Abs(total-TargetWeightTotal) <= weightTolerance,
	}
}

// Validate checks that the weights sum to TargetWeightTotal.
func (w WeightBalance) Validate() error {
	if !w.Balanced {
		return &ValidationError{
			Field:  "weight",
			Reason: fmt.Sprintf("weights sum to %.4f, must sum to %.0f", w.Total, TargetWeightTotal),
		}
	}
	return nil
}

// ValidateCriterion checks the fields a caller controls on a criterion.
func ValidateCriterion(c *store.Criterion) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !c.ModuleType.Valid() {
		return &ValidationError{Field: "module_type", Reason: fmt.Sprintf("unknown module type %q", c.ModuleType)}
	}
	if !c.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", c.Kind)}
	}
	if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
		return &ValidationError{Field: "weight", Reason: "must be a finite number"}
	}
	if c.Weight < MinWeight || c.Weight > MaxWeight {
		return &ValidationError{Field: "weight", Reason: fmt.Sprintf("%.4f outside [%.0f, %.0f]", c.Weight, MinWeight, MaxWeight)}
	}
	if c.MinValue != nil && c.MaxValue != nil && *c.MinValue > *c.MaxValue {
		return &ValidationError{Field: "range", Reason: "min_value greater than max_value"}
	}
	return nil
}

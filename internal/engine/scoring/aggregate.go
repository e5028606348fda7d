// internal/engine/scoring/aggregate.go
package scoring

import (
	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/models"
)

// Aggregator combines component scores into the composite total using
// normalized weights. Weights are validated once at construction.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator normalizes and validates the configured weights. Negative or
// missing weights fail construction.
func NewAggregator(cfg config.ScoringConfig) (*Aggregator, error) {
	weights, err := cfg.NormalizedWeights()
	if err != nil {
		return nil, err
	}
	return &Aggregator{weights: weights}, nil
}

// Total returns the weighted sum of components, clamped to [0,100] and
// rounded to two decimal places.
func (a *Aggregator) Total(components *models.ScoreComponents) float64 {
	total := 0.0
	for _, name := range models.ComponentNames {
		total += components.Get(name) * a.weights[name]
	}
	return models.Round2(models.Clamp(total))
}

// Weight exposes one normalized weight, used by tests and diagnostics.
func (a *Aggregator) Weight(name string) float64 {
	return a.weights[name]
}

// internal/engine/scoring/scorer.go
package scoring

import (
	"context"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// ComponentScorer produces one named score component for a job/user pair.
// Implementations recover data problems locally: a missing or malformed field
// contributes a zero score, never an error. Only genuinely unexpected
// conditions surface as errors.
type ComponentScorer interface {
	Name() string
	Score(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error)
}

// Engine runs the closed set of component scorers and aggregates the
// composite total. It is safe for concurrent use: all fields are read-only
// after construction.
type Engine struct {
	scorers    map[string]ComponentScorer
	aggregator *Aggregator
	logger     logger.Logger
}

// NewEngine validates the weight configuration once, at startup. An invalid
// configuration is a fatal construction error, not a per-job error.
func NewEngine(cfg config.ScoringConfig, scorers []ComponentScorer, log logger.Logger) (*Engine, error) {
	agg, err := NewAggregator(cfg)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]ComponentScorer, len(scorers))
	for _, s := range scorers {
		byName[s.Name()] = s
	}

	return &Engine{
		scorers:    byName,
		aggregator: agg,
		logger:     log.WithFields(map[string]interface{}{"component": "scoring-engine"}),
	}, nil
}

// Score computes every component plus the composite total for one pair.
// A scorer error degrades that component to zero and the run continues.
func (e *Engine) Score(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) models.ScoreComponents {
	var components models.ScoreComponents

	for _, name := range models.ComponentNames {
		scorer, ok := e.scorers[name]
		if !ok {
			continue // unweighted components stay at zero
		}
		value, err := scorer.Score(ctx, job, user)
		if err != nil {
			e.logger.Warn("component scorer failed, scoring zero", map[string]interface{}{
				"component": name,
				"jobId":     job.JobID,
				"userId":    user.UserID,
				"error":     err.Error(),
			})
			value = 0
		}
		// Set rejects out-of-range values; clamp first so scorer rounding
		// noise cannot poison a run.
		if err := components.Set(name, models.Clamp(value)); err != nil {
			e.logger.Error("rejected component score", map[string]interface{}{
				"component": name,
				"jobId":     job.JobID,
				"error":     err.Error(),
			})
		}
	}

	components.Total = e.aggregator.Total(&components)
	return components
}

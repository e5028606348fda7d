// internal/engine/pipeline/pipeline.go

// Package pipeline composes the per-user matching stages: score the candidate
// pool, drop recently applied companies, allocate sections, and top up to the
// target item count.
package pipeline

import (
	"context"
	"time"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/metrics"
	"jobmatch-engine/internal/engine/dedup"
	"jobmatch-engine/internal/engine/scoring"
	"jobmatch-engine/internal/engine/selection"
	"jobmatch-engine/internal/engine/supplement"
	"jobmatch-engine/internal/models"
)

// Input carries everything one user's run needs. All fields are read-only for
// the duration of the run.
type Input struct {
	User         *models.UserProfile
	Candidates   []models.JobCandidate
	Applications []models.ApplicationRecord
	Now          time.Time
}

// Pipeline runs one user's matching end to end. It is stateless between runs
// and safe for concurrent use.
type Pipeline struct {
	scorer     *scoring.Engine
	filter     *dedup.Filter
	selector   *selection.Selector
	supplement *supplement.Engine
	sections   config.SectionConfig
	log        logger.Logger
}

func New(
	scorer *scoring.Engine,
	filter *dedup.Filter,
	selector *selection.Selector,
	supp *supplement.Engine,
	sections config.SectionConfig,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		scorer:     scorer,
		filter:     filter,
		selector:   selector,
		supplement: supp,
		sections:   sections,
		log:        log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Run produces the user's MatchingResult. Identical inputs produce identical
// results; every nondeterministic dependency is resolved before this call.
func (p *Pipeline) Run(ctx context.Context, in Input) (*models.MatchingResult, *models.StageTimings, error) {
	timings := &models.StageTimings{}

	start := time.Now()
	scored := make([]models.ScoredCandidate, 0, len(in.Candidates))
	for i := range in.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, timings, err
		}
		job := &in.Candidates[i]
		scored = append(scored, models.ScoredCandidate{
			Job:    *job,
			Scores: p.scorer.Score(ctx, job, in.User),
		})
	}
	timings.Scoring = time.Since(start)
	metrics.StageDuration.WithLabelValues("scoring").Observe(timings.Scoring.Seconds())

	start = time.Now()
	filtered := p.filter.Apply(scored, in.Applications, in.Now)
	timings.Dedup = time.Since(start)
	metrics.StageDuration.WithLabelValues("dedup").Observe(timings.Dedup.Seconds())

	start = time.Now()
	sections := p.selector.Allocate(filtered)
	timings.Selection = time.Since(start)
	metrics.StageDuration.WithLabelValues("selection").Observe(timings.Selection.Seconds())

	start = time.Now()
	total, underTarget := p.supplement.EnsureMinimum(sections, filtered)
	timings.Supplement = time.Since(start)
	metrics.StageDuration.WithLabelValues("supplement").Observe(timings.Supplement.Seconds())

	result := &models.MatchingResult{
		UserID:      in.User.UserID,
		GeneratedAt: in.Now,
		Sections:    sections,
		TotalCount:  total,
		UnderTarget: underTarget,
	}
	if err := result.Validate(p.sections.MaxItems); err != nil {
		return nil, timings, err
	}

	if underTarget {
		p.log.Info("candidate supply exhausted, partial digest", map[string]interface{}{
			"userId":     in.User.UserID,
			"totalCount": total,
			"target":     p.sections.TargetItems,
		})
	}
	return result, timings, nil
}

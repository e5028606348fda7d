// internal/engine/batch/orchestrator.go

// Package batch fans one pipeline out across a population of users. A batch
// run always completes with a report; individual user failures are isolated
// and never abort the run.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/metrics"
	"jobmatch-engine/internal/common/observability"
	"jobmatch-engine/internal/engine/pipeline"
	"jobmatch-engine/internal/models"
)

// Orchestrator schedules per-user pipeline runs according to the configured
// strategy and collects the fan-in report.
type Orchestrator struct {
	pipe *pipeline.Pipeline
	cfg  config.BatchConfig
	obs  *observability.Observability
	log  logger.Logger
}

func NewOrchestrator(pipe *pipeline.Pipeline, cfg config.BatchConfig, obs *observability.Observability, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		pipe: pipe,
		cfg:  cfg,
		obs:  obs,
		log:  log.WithFields(map[string]interface{}{"component": "batch-orchestrator"}),
	}
}

// Run processes every input and returns the batch report. The report is
// ordered like the inputs regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, inputs []pipeline.Input) *models.BatchReport {
	runID := uuid.New().String()
	strategy := o.effectiveStrategy(inputs)
	startedAt := time.Now()

	o.log.Info("batch run starting", map[string]interface{}{
		"runId":    runID,
		"users":    len(inputs),
		"strategy": string(strategy),
	})

	results := make([]models.UserProcessingResult, len(inputs))
	if strategy == config.StrategySequential {
		for i := range inputs {
			results[i] = o.processUser(ctx, inputs[i])
		}
	} else {
		o.runParallel(ctx, inputs, results)
	}

	finishedAt := time.Now()
	report := &models.BatchReport{
		RunID:       runID,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Strategy:    string(strategy),
		Metrics:     summarize(results, finishedAt.Sub(startedAt)),
		UserResults: results,
	}

	o.log.Info("batch run finished", map[string]interface{}{
		"runId":     runID,
		"succeeded": report.Metrics.SuccessfulUsers,
		"failed":    report.Metrics.FailedUsers,
		"errorRate": report.Metrics.ErrorRate,
		"wallClock": report.Metrics.WallClock.String(),
	})
	return report
}

// effectiveStrategy resolves adaptive into sequential or parallel based on
// the largest per-user candidate pool.
func (o *Orchestrator) effectiveStrategy(inputs []pipeline.Input) config.Strategy {
	if o.cfg.Strategy != config.StrategyAdaptive {
		return o.cfg.Strategy
	}
	largest := 0
	for i := range inputs {
		if n := len(inputs[i].Candidates); n > largest {
			largest = n
		}
	}
	if largest < o.cfg.AdaptiveThreshold && len(inputs) <= o.cfg.MaxConcurrentUsers {
		return config.StrategySequential
	}
	return config.StrategyParallel
}

func (o *Orchestrator) runParallel(ctx context.Context, inputs []pipeline.Input, results []models.UserProcessingResult) {
	sem := make(chan struct{}, o.cfg.MaxConcurrentUsers)
	var wg sync.WaitGroup

	for i := range inputs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = o.processUser(ctx, inputs[idx])
		}(i)
	}
	wg.Wait()
}

// processUser runs one user's pipeline with the per-user timeout and panic
// isolation. A panic fails that user only; the goroutine keeps the batch
// alive.
func (o *Orchestrator) processUser(ctx context.Context, in pipeline.Input) (out models.UserProcessingResult) {
	userID := in.User.UserID
	limit := time.Duration(o.cfg.MaxProcessingTimeSeconds) * time.Second

	metrics.BatchUsersActive.Inc()
	defer metrics.BatchUsersActive.Dec()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := errors.NewPipelinePanicError(userID, r)
			o.log.Error("user pipeline panicked", map[string]interface{}{
				"userId": userID,
				"panic":  err.Details,
			})
			out = models.UserProcessingResult{
				UserID: userID,
				State:  models.StateFailed,
				Error:  err.Error(),
			}
		}
		out.Duration = time.Since(start)
		metrics.PipelineDuration.Observe(out.Duration.Seconds())
		metrics.BatchUsersProcessed.WithLabelValues(string(out.State)).Inc()
		if o.obs != nil {
			o.obs.RecordUserProcessed(ctx, string(out.State))
			o.obs.RecordUserDuration(ctx, out.Duration, string(out.State))
		}
	}()

	userCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	result, timings, err := o.pipe.Run(userCtx, in)
	if err != nil {
		if userCtx.Err() == context.DeadlineExceeded {
			err = errors.NewPipelineTimeoutError(userID, limit)
		}
		o.log.Warn("user pipeline failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return models.UserProcessingResult{
			UserID: userID,
			State:  models.StateFailed,
			Error:  err.Error(),
			Stages: timings,
		}
	}

	out = models.UserProcessingResult{
		UserID: userID,
		State:  models.StateSucceeded,
		Result: result,
	}
	if o.cfg.EnableMetrics {
		out.Stages = timings
	}
	return out
}

func summarize(results []models.UserProcessingResult, wallClock time.Duration) models.ProcessingMetrics {
	m := models.ProcessingMetrics{
		TotalUsers: len(results),
		WallClock:  wallClock,
	}
	for _, r := range results {
		if r.State == models.StateSucceeded {
			m.SuccessfulUsers++
		} else {
			m.FailedUsers++
		}
	}
	if m.TotalUsers > 0 {
		m.ErrorRate = float64(m.FailedUsers) / float64(m.TotalUsers)
	}
	if secs := wallClock.Seconds(); secs > 0 {
		m.UsersPerSecond = float64(m.TotalUsers) / secs
	}
	return m
}

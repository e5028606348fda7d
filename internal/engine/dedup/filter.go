// internal/engine/dedup/filter.go

// Package dedup removes candidates from companies the user recently applied
// to. The filter runs on the scored pool, before section allocation, so the
// exclusion is global across every section.
package dedup

import (
	"time"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// Filter excludes jobs from companies with a recent application. The window
// is clamped to the supported range at construction, with a warning when the
// configured value was out of bounds.
type Filter struct {
	window time.Duration
	log    logger.Logger
}

func NewFilter(cfg config.DuplicateControlConfig, log logger.Logger) *Filter {
	days, clamped := cfg.ClampedWindowDays()
	if clamped {
		log.Warn("duplicate control window out of bounds, clamped", map[string]interface{}{
			"configured_days": cfg.WindowDays,
			"effective_days":  days,
		})
	}
	return &Filter{
		window: time.Duration(days) * 24 * time.Hour,
		log:    log,
	}
}

// WindowDays reports the effective window in days.
func (f *Filter) WindowDays() int {
	return int(f.window / (24 * time.Hour))
}

// Apply returns the candidates whose company the user has not applied to
// within the window, measured backwards from now. The window is inclusive:
// an application exactly window-days old still excludes its company. Order
// is preserved.
func (f *Filter) Apply(candidates []models.ScoredCandidate, applications []models.ApplicationRecord, now time.Time) []models.ScoredCandidate {
	if len(applications) == 0 || len(candidates) == 0 {
		return candidates
	}

	cutoff := now.Add(-f.window)
	excluded := make(map[string]struct{})
	for _, app := range applications {
		if !app.AppliedAt.Before(cutoff) {
			excluded[app.CompanyID] = struct{}{}
		}
	}
	if len(excluded) == 0 {
		return candidates
	}

	kept := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := excluded[c.Job.CompanyID]; skip {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

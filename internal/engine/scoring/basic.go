// internal/engine/scoring/basic.go
package scoring

import (
	"context"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/models"
)

// BasicScorer blends fee, area-relative wage and popularity into the basic
// component. Area wage statistics are read-only reference data shared across
// workers.
type BasicScorer struct {
	cfg       config.ScoringConfig
	wageStats map[string]models.AreaWageStats
}

func NewBasicScorer(cfg config.ScoringConfig, wageStats map[string]models.AreaWageStats) *BasicScorer {
	return &BasicScorer{cfg: cfg, wageStats: wageStats}
}

func (s *BasicScorer) Name() string {
	return models.ComponentBasic
}

func (s *BasicScorer) Score(_ context.Context, job *models.JobCandidate, _ *models.UserProfile) (float64, error) {
	fee := s.FeeScore(job)
	wage := s.WageScore(job)
	popularity := s.PopularityScore(job)
	return models.Clamp((fee + wage + popularity) / 3.0), nil
}

// FeeScore is 0 at or below the threshold and scales linearly to 100 at the
// configured ceiling.
func (s *BasicScorer) FeeScore(job *models.JobCandidate) float64 {
	if job.Fee == nil {
		return 0 // absent fee contributes nothing
	}
	fee := *job.Fee
	if fee <= s.cfg.FeeThreshold {
		return 0
	}
	if fee >= s.cfg.FeeCeiling {
		return 100
	}
	return (fee - s.cfg.FeeThreshold) / (s.cfg.FeeCeiling - s.cfg.FeeThreshold) * 100
}

// WageScore maps the z-score of the hourly wage against area statistics onto
// 0-100. A zero standard deviation yields the neutral 50.
func (s *BasicScorer) WageScore(job *models.JobCandidate) float64 {
	if job.HourlyWage == nil {
		return 0
	}

	stats, ok := s.statsForJob(job)
	if !ok || stats.StdDev == 0 {
		return 50
	}

	z := (*job.HourlyWage - stats.Mean) / stats.StdDev
	return models.Clamp(50 + z*25)
}

// PopularityScore blends the 360-day application count (70%) and the view
// count (30%), each normalized against its reference scale.
func (s *BasicScorer) PopularityScore(job *models.JobCandidate) float64 {
	apps := float64(job.ApplicationCount360d)
	if apps < 0 {
		apps = 0
	}
	views := float64(job.ViewCount)
	if views < 0 {
		views = 0
	}

	appScore := models.Clamp(apps / s.cfg.ReferenceApplications * 100)
	viewScore := models.Clamp(views / s.cfg.ReferenceViews * 100)
	return models.Clamp(appScore*0.7 + viewScore*0.3)
}

func (s *BasicScorer) statsForJob(job *models.JobCandidate) (models.AreaWageStats, bool) {
	for _, code := range job.LocationCodes {
		if stats, ok := s.wageStats[code]; ok {
			return stats, true
		}
	}
	return models.AreaWageStats{}, false
}

// internal/engine/selection/sections.go

// Package selection allocates scored candidates into the six digest sections.
// Allocation is deterministic: sections fill in a fixed priority order, each
// section draws from the candidates no earlier section claimed, and ties are
// broken by job id.
package selection

import (
	"sort"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/models"
)

// Selector assigns candidates to sections up to each section's capacity.
type Selector struct {
	cfg config.SectionConfig
}

func NewSelector(cfg config.SectionConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Allocate fills every section from the pool. A candidate claimed by one
// section never appears in a later one.
func (s *Selector) Allocate(pool []models.ScoredCandidate) map[models.SectionName][]models.ScoredCandidate {
	sections := make(map[models.SectionName][]models.ScoredCandidate, len(models.SectionOrder))
	used := make(map[string]struct{}, len(pool))

	for _, name := range models.SectionOrder {
		capacity := s.cfg.CapacityFor(name)
		picked := pickTop(pool, used, capacity, rankingFor(name))
		sections[name] = picked
		for _, c := range picked {
			used[c.Job.JobID] = struct{}{}
		}
	}
	return sections
}

// rankKey returns the sort value for one candidate in one section.
type rankKey func(models.ScoredCandidate) float64

// rankingFor selects the section-specific ranking. Editorial picks rank by a
// business-value proxy; every other section ranks by the composite score.
func rankingFor(name models.SectionName) rankKey {
	if name == models.SectionEditorialPicks {
		return func(c models.ScoredCandidate) float64 {
			return c.Job.FeeValue() * float64(c.Job.ClickCount)
		}
	}
	return func(c models.ScoredCandidate) float64 {
		return c.Scores.Total
	}
}

// pickTop returns up to limit unclaimed candidates ranked by key descending,
// job id ascending on ties.
func pickTop(pool []models.ScoredCandidate, used map[string]struct{}, limit int, key rankKey) []models.ScoredCandidate {
	if limit <= 0 {
		return nil
	}

	available := make([]models.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		if _, claimed := used[c.Job.JobID]; claimed {
			continue
		}
		available = append(available, c)
	}

	sort.SliceStable(available, func(i, j int) bool {
		ki, kj := key(available[i]), key(available[j])
		if ki != kj {
			return ki > kj
		}
		return available[i].Job.JobID < available[j].Job.JobID
	})

	if len(available) > limit {
		available = available[:limit]
	}
	return available
}

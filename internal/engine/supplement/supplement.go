// internal/engine/supplement/supplement.go

// Package supplement tops up a sectioned result to the configured minimum
// item count with next-best fallback candidates.
package supplement

import (
	"sort"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/models"
)

// Engine backfills sections from the unclaimed candidate pool. Supplements
// are appended after the originally selected items so primary picks always
// lead their section.
type Engine struct {
	cfg config.SectionConfig
}

func NewEngine(cfg config.SectionConfig) *Engine {
	return &Engine{cfg: cfg}
}

// EnsureMinimum adds best-scored unclaimed candidates until the result holds
// TargetItems or the pool is exhausted. An exhausted pool marks the result
// under target; it is never an error. Backfill goes into the personalized
// section, the last and least curated bucket. Sections already holding more
// than the target are truncated down to the target highest-scored items, so
// the result never exceeds the digest bound.
func (e *Engine) EnsureMinimum(sections map[models.SectionName][]models.ScoredCandidate, pool []models.ScoredCandidate) (int, bool) {
	used := make(map[string]struct{})
	count := 0
	for _, items := range sections {
		for _, c := range items {
			used[c.Job.JobID] = struct{}{}
			count++
		}
	}

	if count > e.cfg.TargetItems {
		return e.truncate(sections, count), false
	}

	missing := e.cfg.TargetItems - count
	if e.cfg.MaxItems > 0 && count+missing > e.cfg.MaxItems {
		missing = e.cfg.MaxItems - count
	}
	if missing <= 0 {
		return count, false
	}

	remaining := make([]models.ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		if _, claimed := used[c.Job.JobID]; claimed {
			continue
		}
		remaining = append(remaining, c)
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		if remaining[i].Scores.Total != remaining[j].Scores.Total {
			return remaining[i].Scores.Total > remaining[j].Scores.Total
		}
		return remaining[i].Job.JobID < remaining[j].Job.JobID
	})

	if len(remaining) > missing {
		remaining = remaining[:missing]
	}
	sections[models.SectionPersonalized] = append(sections[models.SectionPersonalized], remaining...)
	count += len(remaining)

	return count, count < e.cfg.TargetItems
}

// truncate drops the lowest-scored overflow until exactly TargetItems remain.
// Survivors keep their section and their within-section order; ties break by
// job id ascending so identical inputs always keep the same items.
func (e *Engine) truncate(sections map[models.SectionName][]models.ScoredCandidate, count int) int {
	ranked := make([]models.ScoredCandidate, 0, count)
	for _, items := range sections {
		ranked = append(ranked, items...)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Scores.Total != ranked[j].Scores.Total {
			return ranked[i].Scores.Total > ranked[j].Scores.Total
		}
		return ranked[i].Job.JobID < ranked[j].Job.JobID
	})

	keep := make(map[string]struct{}, e.cfg.TargetItems)
	for _, c := range ranked[:e.cfg.TargetItems] {
		keep[c.Job.JobID] = struct{}{}
	}

	for name, items := range sections {
		kept := items[:0]
		for _, c := range items {
			if _, ok := keep[c.Job.JobID]; ok {
				kept = append(kept, c)
			}
		}
		sections[name] = kept
	}
	return e.cfg.TargetItems
}

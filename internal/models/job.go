// internal/models/job.go
package models

import "time"

// JobCandidate is one listing in the candidate pool for a batch run. The pool
// is loaded once per run from the job catalog and is read-only afterwards, so
// it can be shared across workers without locking.
type JobCandidate struct {
	JobID     string `json:"jobId"`
	CompanyID string `json:"companyId"`

	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`

	// Fee and HourlyWage are optional on the feed; a missing value contributes
	// a zero score to the affected component instead of raising.
	Fee        *float64 `json:"fee,omitempty"`
	HourlyWage *float64 `json:"hourlyWage,omitempty"`
	SalaryMin  int      `json:"salaryMin"`
	SalaryMax  int      `json:"salaryMax"`

	LocationCodes []string        `json:"locationCodes"`
	CategoryCodes []string        `json:"categoryCodes"`
	Features      map[string]bool `json:"features,omitempty"`

	PostedAt time.Time `json:"postedAt"`

	// Engagement counters used by popularity scoring and editorial ranking.
	ApplicationCount360d int `json:"applicationCount360d"`
	ViewCount            int `json:"viewCount"`
	ClickCount           int `json:"clickCount"`
}

// FeeValue returns the listing fee, or 0 when the feed omitted it.
func (j *JobCandidate) FeeValue() float64 {
	if j.Fee == nil {
		return 0
	}
	return *j.Fee
}

// AreaWageStats holds per-area wage statistics used for z-score normalization.
type AreaWageStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// internal/models/result.go
package models

import (
	"fmt"
	"time"
)

// SectionName identifies one of the six output buckets of a digest.
type SectionName string

const (
	SectionEditorialPicks SectionName = "editorial_picks"
	SectionTop5           SectionName = "top5"
	SectionRegional       SectionName = "regional"
	SectionNearby         SectionName = "nearby"
	SectionHighIncome     SectionName = "high_income"
	SectionPersonalized   SectionName = "personalized"
)

// SectionOrder is the fixed allocation priority. Earlier sections pick from
// the candidate pool first.
var SectionOrder = []SectionName{
	SectionEditorialPicks,
	SectionTop5,
	SectionRegional,
	SectionNearby,
	SectionHighIncome,
	SectionPersonalized,
}

// ScoredCandidate pairs a candidate with its computed score components.
type ScoredCandidate struct {
	Job    JobCandidate    `json:"job"`
	Scores ScoreComponents `json:"scores"`
}

// MatchingResult is the per-user output of one pipeline run, handed to the
// email-generation and storage collaborators and then discarded.
type MatchingResult struct {
	UserID      string                            `json:"userId"`
	GeneratedAt time.Time                         `json:"generatedAt"`
	Sections    map[SectionName][]ScoredCandidate `json:"sections"`
	TotalCount  int                               `json:"totalCount"`

	// UnderTarget reports exhausted supply: fewer distinct candidates than the
	// configured target. A partial digest, not an error.
	UnderTarget bool `json:"underTarget,omitempty"`
}

// Validate checks the cross-section uniqueness and count invariants.
func (r *MatchingResult) Validate(maxItems int) error {
	seen := make(map[string]SectionName)
	count := 0
	for name, items := range r.Sections {
		for _, item := range items {
			if prev, dup := seen[item.Job.JobID]; dup {
				return fmt.Errorf("job %s appears in sections %s and %s", item.Job.JobID, prev, name)
			}
			seen[item.Job.JobID] = name
			count++
		}
	}
	if count != r.TotalCount {
		return fmt.Errorf("totalCount %d does not match section contents %d", r.TotalCount, count)
	}
	if maxItems > 0 && count > maxItems {
		return fmt.Errorf("result holds %d items, exceeding maximum %d", count, maxItems)
	}
	return nil
}

// ProcessingState is one user's terminal outcome within a batch run. Results
// materialize only when the user's pipeline finishes, so only terminal states
// exist.
type ProcessingState string

const (
	StateSucceeded ProcessingState = "succeeded"
	StateFailed    ProcessingState = "failed"
)

// UserProcessingResult reports one user's outcome within a batch.
type UserProcessingResult struct {
	UserID   string          `json:"userId"`
	State    ProcessingState `json:"state"`
	Result   *MatchingResult `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration"`
	Stages   *StageTimings   `json:"stages,omitempty"`
}

// StageTimings is the optional per-stage breakdown collected when metrics are
// enabled.
type StageTimings struct {
	Scoring    time.Duration `json:"scoring"`
	Dedup      time.Duration `json:"dedup"`
	Selection  time.Duration `json:"selection"`
	Supplement time.Duration `json:"supplement"`
}

// ProcessingMetrics is the aggregate snapshot embedded in a BatchReport.
type ProcessingMetrics struct {
	TotalUsers      int           `json:"totalUsers"`
	SuccessfulUsers int           `json:"successfulUsers"`
	FailedUsers     int           `json:"failedUsers"`
	ErrorRate       float64       `json:"errorRate"`
	WallClock       time.Duration `json:"wallClock"`
	UsersPerSecond  float64       `json:"usersPerSecond"`
}

// BatchReport is the fan-in result of one full batch run. The batch always
// completes and returns a report; callers inspect FailedUsers / ErrorRate to
// decide on remediation.
type BatchReport struct {
	RunID       string                 `json:"runId"`
	StartedAt   time.Time              `json:"startedAt"`
	FinishedAt  time.Time              `json:"finishedAt"`
	Strategy    string                 `json:"strategy"`
	Metrics     ProcessingMetrics      `json:"metrics"`
	UserResults []UserProcessingResult `json:"userResults"`
}

// internal/store/results.go

// Package store persists matching results and batch reports. Results are
// keyed by (user_id, generated_at) so a rerun for the same day overwrites
// instead of duplicating.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

type ResultStore struct {
	db  *sql.DB
	log logger.Logger
}

func NewResultStore(db *sql.DB, log logger.Logger) *ResultStore {
	return &ResultStore{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "result-store"}),
	}
}

// SaveResult upserts one user's digest for its generation timestamp.
func (s *ResultStore) SaveResult(ctx context.Context, result *models.MatchingResult) error {
	sections, err := json.Marshal(result.Sections)
	if err != nil {
		return errors.NewResultPersistFailedError(result.UserID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matching_results (user_id, generated_at, sections, total_count, under_target)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, generated_at)
		 DO UPDATE SET sections = $3, total_count = $4, under_target = $5`,
		result.UserID, result.GeneratedAt, sections, result.TotalCount, result.UnderTarget)
	if err != nil {
		return errors.NewResultPersistFailedError(result.UserID, err)
	}
	return nil
}

// SaveReport records the batch-level outcome of one run.
func (s *ResultStore) SaveReport(ctx context.Context, report *models.BatchReport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_reports
		   (run_id, started_at, finished_at, strategy, total_users, successful_users, failed_users, error_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.RunID, report.StartedAt, report.FinishedAt, report.Strategy,
		report.Metrics.TotalUsers, report.Metrics.SuccessfulUsers,
		report.Metrics.FailedUsers, report.Metrics.ErrorRate)
	if err != nil {
		return errors.NewResultPersistFailedError(report.RunID, err)
	}

	s.log.Info("batch report persisted", map[string]interface{}{
		"runId":     report.RunID,
		"users":     report.Metrics.TotalUsers,
		"errorRate": report.Metrics.ErrorRate,
	})
	return nil
}

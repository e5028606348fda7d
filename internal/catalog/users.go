// internal/catalog/users.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// profileCacheTTL keeps cached profiles shorter-lived than the daily batch
// cadence so a run never reads two-day-old preferences.
const profileCacheTTL = 6 * time.Hour

// UserCatalog loads user profiles and application records from Postgres.
// Profiles go through a Redis read-through cache; application records are
// always read fresh because duplicate control depends on them being current.
type UserCatalog struct {
	db    *sql.DB
	cache *redis.Client
	log   logger.Logger
}

func NewUserCatalog(db *sql.DB, cache *redis.Client, log logger.Logger) *UserCatalog {
	return &UserCatalog{
		db:    db,
		cache: cache,
		log:   log.WithFields(map[string]interface{}{"component": "user-catalog"}),
	}
}

// ActiveUserIDs lists users subscribed to the daily digest.
func (c *UserCatalog) ActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT user_id FROM users WHERE digest_enabled = true ORDER BY user_id`)
	if err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewUserLoadFailedError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}
	return ids, nil
}

// Profile returns one user's profile, from cache when fresh.
func (c *UserCatalog) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if cached := c.cachedProfile(ctx, userID); cached != nil {
		return cached, nil
	}

	profile, err := c.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeProfile(ctx, profile)
	return profile, nil
}

func (c *UserCatalog) cachedProfile(ctx context.Context, userID string) *models.UserProfile {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("profile cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		return nil
	}
	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil
	}
	return &profile
}

func (c *UserCatalog) storeProfile(ctx context.Context, profile *models.UserProfile) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, profileKey(profile.UserID), raw, profileCacheTTL).Err(); err != nil {
		c.log.Warn("profile cache write failed", map[string]interface{}{
			"userId": profile.UserID,
			"error":  err.Error(),
		})
	}
}

func profileKey(userID string) string {
	return "jobmatch:profile:" + userID
}

func (c *UserCatalog) loadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{UserID: userID}

	row := c.db.QueryRowContext(ctx,
		`SELECT email, desired_categories, minimum_salary, location_codes, skills, keywords
		 FROM users WHERE user_id = $1`, userID)
	err := row.Scan(
		&profile.Email,
		pq.Array(&profile.DesiredCategories),
		&profile.MinimumSalary,
		pq.Array(&profile.LocationCodes),
		pq.Array(&profile.Skills),
		pq.Array(&profile.Keywords),
	)
	if err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}

	history, err := c.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.History = history
	return profile, nil
}

// loadHistory reads the bounded recent-interaction history, newest first.
func (c *UserCatalog) loadHistory(ctx context.Context, userID string) ([]models.InteractionEvent, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT kind, job_id, categories, keywords, occurred_at
		 FROM user_interactions
		 WHERE user_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT 200`, userID)
	if err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}
	defer rows.Close()

	var events []models.InteractionEvent
	for rows.Next() {
		var e models.InteractionEvent
		var kind string
		if err := rows.Scan(&kind, &e.JobID, pq.Array(&e.Categories), pq.Array(&e.Keywords), &e.OccurredAt); err != nil {
			return nil, errors.NewUserLoadFailedError(err)
		}
		e.Kind = models.InteractionKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}
	return events, nil
}

// Applications returns the user's application records inside the lookback
// window. The window here is generous; duplicate control applies its own
// clamped window.
func (c *UserCatalog) Applications(ctx context.Context, userID string, since time.Time) ([]models.ApplicationRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT user_id, company_id, applied_at
		 FROM applications
		 WHERE user_id = $1 AND applied_at >= $2
		 ORDER BY applied_at DESC`, userID, since)
	if err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}
	defer rows.Close()

	var records []models.ApplicationRecord
	for rows.Next() {
		var r models.ApplicationRecord
		if err := rows.Scan(&r.UserID, &r.CompanyID, &r.AppliedAt); err != nil {
			return nil, errors.NewUserLoadFailedError(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewUserLoadFailedError(err)
	}
	return records, nil
}

// AreaWageStats loads the per-area wage statistics used by z-score wage
// normalization. Refreshed once per batch run.
func (c *UserCatalog) AreaWageStats(ctx context.Context) (map[string]models.AreaWageStats, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT area_code, wage_mean, wage_stddev FROM area_wage_stats`)
	if err != nil {
		return nil, errors.NewCatalogQueryFailedError(err)
	}
	defer rows.Close()

	stats := make(map[string]models.AreaWageStats)
	for rows.Next() {
		var code string
		var s models.AreaWageStats
		if err := rows.Scan(&code, &s.Mean, &s.StdDev); err != nil {
			return nil, errors.NewCatalogQueryFailedError(err)
		}
		stats[code] = s
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogQueryFailedError(err)
	}
	return stats, nil
}

// internal/catalog/users_test.go
package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

func setupCatalog(t *testing.T) (*UserCatalog, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewUserCatalog(db, cache, logger.NewTestLogger(t)), mock, mr
}

func expectProfileQueries(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectQuery("SELECT email, desired_categories").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"email", "desired_categories", "minimum_salary", "location_codes", "skills", "keywords",
		}).AddRow(
			"u1@example.com",
			pq.Array([]string{"cat-eng"}),
			300,
			pq.Array([]string{"13"}),
			pq.Array([]string{"go"}),
			pq.Array([]string{"go", "postgres"}),
		))
	mock.ExpectQuery("SELECT kind, job_id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"kind", "job_id", "categories", "keywords", "occurred_at",
		}).AddRow(
			"apply", "job-1", pq.Array([]string{"cat-eng"}), pq.Array([]string{"go"}), time.Now(),
		))
}

func TestUserCatalog_Profile_LoadsAndCaches(t *testing.T) {
	catalog, mock, mr := setupCatalog(t)
	expectProfileQueries(mock, "u1")

	profile, err := catalog.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", profile.Email)
	assert.Equal(t, []string{"cat-eng"}, profile.DesiredCategories)
	assert.Equal(t, 300, profile.MinimumSalary)
	require.Len(t, profile.History, 1)
	assert.Equal(t, models.InteractionApply, profile.History[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Written through to the cache.
	assert.True(t, mr.Exists("jobmatch:profile:u1"))

	// A second load must be served from the cache; no new SQL expectations.
	again, err := catalog.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, profile.UserID, again.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCatalog_Profile_CorruptCacheFallsThrough(t *testing.T) {
	catalog, mock, mr := setupCatalog(t)
	require.NoError(t, mr.Set("jobmatch:profile:u1", "{not json"))
	expectProfileQueries(mock, "u1")

	profile, err := catalog.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCatalog_Profile_CacheHitRoundTrips(t *testing.T) {
	catalog, _, mr := setupCatalog(t)

	cached := models.UserProfile{UserID: "u2", Email: "u2@example.com", MinimumSalary: 280}
	raw, err := json.Marshal(&cached)
	require.NoError(t, err)
	require.NoError(t, mr.Set("jobmatch:profile:u2", string(raw)))

	profile, err := catalog.Profile(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, cached, *profile)
}

func TestUserCatalog_ActiveUserIDs(t *testing.T) {
	catalog, mock, _ := setupCatalog(t)

	mock.ExpectQuery("SELECT user_id FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1").AddRow("u2"))

	ids, err := catalog.ActiveUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestUserCatalog_Applications(t *testing.T) {
	catalog, mock, _ := setupCatalog(t)
	since := time.Now().AddDate(0, 0, -90)

	mock.ExpectQuery("SELECT user_id, company_id, applied_at").
		WithArgs("u1", since).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "company_id", "applied_at"}).
			AddRow("u1", "co-1", time.Now().AddDate(0, 0, -2)))

	records, err := catalog.Applications(context.Background(), "u1", since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "co-1", records[0].CompanyID)
}

func TestUserCatalog_AreaWageStats(t *testing.T) {
	catalog, mock, _ := setupCatalog(t)

	mock.ExpectQuery("SELECT area_code, wage_mean, wage_stddev").
		WillReturnRows(sqlmock.NewRows([]string{"area_code", "wage_mean", "wage_stddev"}).
			AddRow("13", 1250.0, 180.0).
			AddRow("27", 1100.0, 0.0))

	stats, err := catalog.AreaWageStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AreaWageStats{Mean: 1250, StdDev: 180}, stats["13"])
	assert.Equal(t, models.AreaWageStats{Mean: 1100, StdDev: 0}, stats["27"])
}

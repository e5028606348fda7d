// internal/engine/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/engine/dedup"
	"jobmatch-engine/internal/engine/scoring"
	"jobmatch-engine/internal/engine/selection"
	"jobmatch-engine/internal/engine/supplement"
	"jobmatch-engine/internal/models"
)

func testPipeline(t *testing.T) (*Pipeline, config.SectionConfig) {
	t.Helper()
	sectionCfg := config.SectionConfig{Capacity: 5, TargetItems: 40, MaxItems: 40}
	return testPipelineWith(t, sectionCfg), sectionCfg
}

func testPipelineWith(t *testing.T, sectionCfg config.SectionConfig) *Pipeline {
	t.Helper()

	scoringCfg := config.ScoringConfig{
		Weights:               config.DefaultWeights(),
		FeeThreshold:          500,
		FeeCeiling:            5000,
		ReferenceApplications: 100,
		ReferenceViews:        1000,
		KeywordTitleWeight:    0.6,
		SkillBonusFactor:      1.1,
		MinHistorySamples:     5,
	}

	engine, err := scoring.NewEngine(scoringCfg, []scoring.ComponentScorer{
		scoring.NewBasicScorer(scoringCfg, map[string]models.AreaWageStats{
			"13": {Mean: 1200, StdDev: 150},
		}),
		scoring.LocationScorer{},
		scoring.CategoryScorer{},
		scoring.SalaryScorer{},
		scoring.FeatureScorer{},
		scoring.NewKeywordScorer(scoringCfg),
		scoring.NewPersonalizedScorer(scoringCfg, nil),
	}, logger.NewNoOpLogger())
	require.NoError(t, err)

	pipe := New(
		engine,
		dedup.NewFilter(config.DuplicateControlConfig{WindowDays: 14}, logger.NewNoOpLogger()),
		selection.NewSelector(sectionCfg),
		supplement.NewEngine(sectionCfg),
		sectionCfg,
		logger.NewNoOpLogger(),
	)
	return pipe
}

func testInput(jobs int) Input {
	fee := 2000.0
	wage := 1300.0
	candidates := make([]models.JobCandidate, jobs)
	for i := range candidates {
		candidates[i] = models.JobCandidate{
			JobID:                fmt.Sprintf("job-%03d", i),
			CompanyID:            fmt.Sprintf("co-%03d", i%20),
			Title:                fmt.Sprintf("Software engineer %d", i),
			Description:          "Backend services in go and postgres",
			Fee:                  &fee,
			HourlyWage:           &wage,
			SalaryMin:            250 + i,
			SalaryMax:            400 + i,
			LocationCodes:        []string{"13"},
			CategoryCodes:        []string{"cat-eng"},
			ApplicationCount360d: i % 120,
			ViewCount:            (i * 13) % 1500,
			ClickCount:           i % 40,
		}
	}
	return Input{
		User: &models.UserProfile{
			UserID:            "u1",
			DesiredCategories: []string{"cat-eng"},
			MinimumSalary:     300,
			LocationCodes:     []string{"13"},
			Keywords:          []string{"go", "postgres"},
		},
		Candidates: candidates,
		Now:        time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
	}
}

func TestPipeline_Run_FullDigest(t *testing.T) {
	pipe, sectionCfg := testPipeline(t)

	result, timings, err := pipe.Run(context.Background(), testInput(50))
	require.NoError(t, err)
	require.NotNil(t, timings)

	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, sectionCfg.TargetItems, result.TotalCount)
	assert.False(t, result.UnderTarget)
	assert.NoError(t, result.Validate(sectionCfg.MaxItems))
}

func TestPipeline_Run_UnderTargetPool(t *testing.T) {
	pipe, sectionCfg := testPipeline(t)

	result, _, err := pipe.Run(context.Background(), testInput(3))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCount)
	assert.True(t, result.UnderTarget)
	assert.NoError(t, result.Validate(sectionCfg.MaxItems))
}

func TestPipeline_Run_OversizedCapacitiesStillYieldBoundedDigest(t *testing.T) {
	// Per-section capacity 7 across six sections can select 42 items; the
	// digest still comes back at exactly the 40-item target.
	sectionCfg := config.SectionConfig{Capacity: 7, TargetItems: 40, MaxItems: 40}
	pipe := testPipelineWith(t, sectionCfg)

	result, _, err := pipe.Run(context.Background(), testInput(60))
	require.NoError(t, err)

	assert.Equal(t, 40, result.TotalCount)
	assert.False(t, result.UnderTarget)
	assert.NoError(t, result.Validate(sectionCfg.MaxItems))
}

func TestPipeline_Run_DuplicateControlBeforeSections(t *testing.T) {
	pipe, _ := testPipeline(t)

	in := testInput(50)
	in.Applications = []models.ApplicationRecord{
		{UserID: "u1", CompanyID: "co-000", AppliedAt: in.Now.AddDate(0, 0, -2)},
	}

	result, _, err := pipe.Run(context.Background(), in)
	require.NoError(t, err)

	for name, items := range result.Sections {
		for _, item := range items {
			assert.NotEqual(t, "co-000", item.Job.CompanyID,
				"excluded company surfaced in section %s", name)
		}
	}
}

func TestPipeline_Run_Deterministic(t *testing.T) {
	pipe, _ := testPipeline(t)

	first, _, err := pipe.Run(context.Background(), testInput(80))
	require.NoError(t, err)
	second, _, err := pipe.Run(context.Background(), testInput(80))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	pipe, _ := testPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := pipe.Run(ctx, testInput(50))
	assert.Error(t, err)
}

// internal/common/config/config_test.go
package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/models"
)

func TestNormalizedWeights_AlreadyNormalized(t *testing.T) {
	cfg := ScoringConfig{Weights: DefaultWeights()}

	weights, err := cfg.NormalizedWeights()
	require.NoError(t, err)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, DefaultWeights(), weights)
}

func TestNormalizedWeights_Renormalizes(t *testing.T) {
	weights := DefaultWeights()
	for name := range weights {
		weights[name] *= 3
	}
	cfg := ScoringConfig{Weights: weights}

	normalized, err := cfg.NormalizedWeights()
	require.NoError(t, err)

	sum := 0.0
	for _, w := range normalized {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.25, normalized[models.ComponentBasic], 1e-9)
}

func TestNormalizedWeights_MissingKeyIsFatal(t *testing.T) {
	weights := DefaultWeights()
	delete(weights, models.ComponentPersonalized)

	_, err := ScoringConfig{Weights: weights}.NormalizedWeights()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWeightsMissing, errors.AsStandard(err).Code)
	assert.True(t, errors.IsFatalConfig(err))
}

func TestNormalizedWeights_ZeroSumIsFatal(t *testing.T) {
	weights := make(map[string]float64)
	for _, name := range models.ComponentNames {
		weights[name] = 0
	}

	_, err := ScoringConfig{Weights: weights}.NormalizedWeights()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWeightsInvalid, errors.AsStandard(err).Code)
}

func TestApplyDefaults_DoesNotFabricateWeights(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Empty(t, cfg.Scoring.Weights)
	_, err := cfg.Scoring.NormalizedWeights()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWeightsMissing, errors.AsStandard(err).Code)
}

func TestValidateScoringSection(t *testing.T) {
	t.Run("missing section fails", func(t *testing.T) {
		err := validateScoringSection(viper.New())
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigSchemaViolation, errors.AsStandard(err).Code)
	})

	t.Run("missing weights block fails", func(t *testing.T) {
		v := viper.New()
		v.Set("scoring", map[string]interface{}{"fee_threshold": 500})
		err := validateScoringSection(v)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigSchemaViolation, errors.AsStandard(err).Code)
		assert.True(t, errors.IsFatalConfig(err))
	})

	t.Run("complete section passes", func(t *testing.T) {
		v := viper.New()
		v.Set("scoring", map[string]interface{}{
			"weights":       DefaultWeights(),
			"fee_threshold": 500,
			"fee_ceiling":   5000,
		})
		assert.NoError(t, validateScoringSection(v))
	})
}

func TestClampedWindowDays(t *testing.T) {
	tests := []struct {
		name      string
		window    int
		effective int
		clamped   bool
	}{
		{name: "in range", window: 14, effective: 14, clamped: false},
		{name: "lower bound", window: 1, effective: 1, clamped: false},
		{name: "upper bound", window: 90, effective: 90, clamped: false},
		{name: "below range", window: 0, effective: 1, clamped: true},
		{name: "above range", window: 180, effective: 90, clamped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, clamped := DuplicateControlConfig{WindowDays: tt.window}.ClampedWindowDays()
			assert.Equal(t, tt.effective, days)
			assert.Equal(t, tt.clamped, clamped)
		})
	}
}

func TestSectionConfig_CapacityFor(t *testing.T) {
	cfg := SectionConfig{
		Capacity:   5,
		Capacities: map[string]int{string(models.SectionEditorialPicks): 3},
	}
	assert.Equal(t, 3, cfg.CapacityFor(models.SectionEditorialPicks))
	assert.Equal(t, 5, cfg.CapacityFor(models.SectionTop5))
}

func TestBatchConfig_Validate(t *testing.T) {
	valid := BatchConfig{
		MaxConcurrentUsers:       8,
		MaxProcessingTimeSeconds: 30,
		Strategy:                 StrategyAdaptive,
	}
	assert.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(*BatchConfig)
	}{
		{name: "zero workers", mutate: func(c *BatchConfig) { c.MaxConcurrentUsers = 0 }},
		{name: "zero timeout", mutate: func(c *BatchConfig) { c.MaxProcessingTimeSeconds = 0 }},
		{name: "unknown strategy", mutate: func(c *BatchConfig) { c.Strategy = "eager" }},
		{name: "negative retries", mutate: func(c *BatchConfig) { c.RetryAttempts = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeBatchConfigInvalid, errors.AsStandard(err).Code)
		})
	}
}

func TestConfigValidate_AIRequiresBaseURL(t *testing.T) {
	cfg := &Config{
		Scoring:  ScoringConfig{Weights: DefaultWeights()},
		Sections: SectionConfig{Capacity: 5, TargetItems: 40, MaxItems: 40},
		Batch: BatchConfig{
			MaxConcurrentUsers:       8,
			MaxProcessingTimeSeconds: 30,
			Strategy:                 StrategySequential,
		},
		AI: AIServiceConfig{Enabled: true},
	}
	assert.Error(t, cfg.Validate())

	cfg.AI.BaseURL = "http://ai.internal"
	assert.NoError(t, cfg.Validate())
}

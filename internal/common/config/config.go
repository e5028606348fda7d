// internal/common/config/config.go
package config

import (
	"fmt"
	"math"
	"strings"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/models"
)

// Config is the main application configuration struct.
type Config struct {
	App              AppConfig              `mapstructure:"app"`
	Scoring          ScoringConfig          `mapstructure:"scoring"`
	Sections         SectionConfig          `mapstructure:"sections"`
	DuplicateControl DuplicateControlConfig `mapstructure:"duplicate_control"`
	Batch            BatchConfig            `mapstructure:"batch"`
	AI               AIServiceConfig        `mapstructure:"ai"`
	Database         DatabaseConfig         `mapstructure:"database"`
	Integrations     IntegrationConfig      `mapstructure:"integrations"`
	Logging          LoggingConfig          `mapstructure:"logging"`
}

// --- Core App Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// --- Scoring Configuration ---

// weightTolerance is the floating-point tolerance when checking that weights
// already sum to 1.0.
const weightTolerance = 1e-3

// ScoringConfig carries the component weights and the scorer constants. It is
// an immutable value passed into every scoring call; the engine holds no
// process-wide mutable state.
type ScoringConfig struct {
	// Weights maps component name -> weight. Every models.ComponentNames key
	// is required; missing keys are a fatal startup error, never defaulted.
	Weights map[string]float64 `mapstructure:"weights"`

	FeeThreshold float64 `mapstructure:"fee_threshold"`
	FeeCeiling   float64 `mapstructure:"fee_ceiling"`

	// Reference scales for popularity normalization.
	ReferenceApplications float64 `mapstructure:"reference_applications"`
	ReferenceViews        float64 `mapstructure:"reference_views"`

	// KeywordTitleWeight splits keyword matching between the title and the
	// free-text fields; title matches count for more.
	KeywordTitleWeight float64 `mapstructure:"keyword_title_weight"`
	SkillBonusFactor   float64 `mapstructure:"skill_bonus_factor"`

	// MinHistorySamples is the interaction count below which the personalized
	// scorer returns its constant default.
	MinHistorySamples int `mapstructure:"min_history_samples"`
}

// NormalizedWeights validates the weight map and renormalizes it to sum to
// 1.0. Missing required keys and negative weights are fatal.
func (s ScoringConfig) NormalizedWeights() (map[string]float64, error) {
	sum := 0.0
	for _, name := range models.ComponentNames {
		w, ok := s.Weights[name]
		if !ok {
			return nil, errors.NewWeightsMissingError(name)
		}
		if w < 0 {
			return nil, errors.NewWeightsInvalidError(
				fmt.Sprintf("negative weight %v for component %q", w, name))
		}
		sum += w
	}
	if sum <= 0 {
		return nil, errors.NewWeightsInvalidError("weights sum to zero")
	}

	normalized := make(map[string]float64, len(models.ComponentNames))
	if math.Abs(sum-1.0) <= weightTolerance {
		for _, name := range models.ComponentNames {
			normalized[name] = s.Weights[name]
		}
		return normalized, nil
	}
	for _, name := range models.ComponentNames {
		normalized[name] = s.Weights[name] / sum
	}
	return normalized, nil
}

// --- Section Configuration ---

type SectionConfig struct {
	// Capacity applies per section unless overridden in Capacities.
	Capacity   int            `mapstructure:"capacity"`
	Capacities map[string]int `mapstructure:"capacities"`

	// TargetItems is the supplementation minimum; MaxItems bounds the digest.
	TargetItems int `mapstructure:"target_items"`
	MaxItems    int `mapstructure:"max_items"`
}

// CapacityFor returns the configured capacity for one section.
func (s SectionConfig) CapacityFor(name models.SectionName) int {
	if c, ok := s.Capacities[string(name)]; ok {
		return c
	}
	return s.Capacity
}

func (s SectionConfig) validate() error {
	if s.Capacity <= 0 {
		return errors.NewSectionConfigInvalidError(
			fmt.Sprintf("capacity must be positive, got %d", s.Capacity))
	}
	for name, c := range s.Capacities {
		if c <= 0 {
			return errors.NewSectionConfigInvalidError(
				fmt.Sprintf("capacity for section %q must be positive, got %d", name, c))
		}
	}
	if s.TargetItems <= 0 || s.MaxItems <= 0 {
		return errors.NewSectionConfigInvalidError(
			fmt.Sprintf("target_items (%d) and max_items (%d) must be positive", s.TargetItems, s.MaxItems))
	}
	if s.TargetItems > s.MaxItems {
		return errors.NewSectionConfigInvalidError(
			fmt.Sprintf("target_items %d exceeds max_items %d", s.TargetItems, s.MaxItems))
	}
	return nil
}

// --- Duplicate Control Configuration ---

const (
	MinDuplicateWindowDays = 1
	MaxDuplicateWindowDays = 90
)

type DuplicateControlConfig struct {
	WindowDays int `mapstructure:"window_days"`
}

// ClampedWindowDays bounds the window to [1,90]. The second return reports
// whether clamping happened so the caller can log a warning.
func (d DuplicateControlConfig) ClampedWindowDays() (int, bool) {
	if d.WindowDays < MinDuplicateWindowDays {
		return MinDuplicateWindowDays, true
	}
	if d.WindowDays > MaxDuplicateWindowDays {
		return MaxDuplicateWindowDays, true
	}
	return d.WindowDays, false
}

// --- Batch Configuration ---

// Strategy selects how the orchestrator schedules users.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyAdaptive   Strategy = "adaptive"
)

type BatchConfig struct {
	MaxConcurrentUsers       int      `mapstructure:"max_concurrent_users"`
	MaxProcessingTimeSeconds int      `mapstructure:"max_processing_time_seconds"`
	Strategy                 Strategy `mapstructure:"strategy"`

	// RetryAttempts applies only to transient external-dependency calls
	// inside scoring, not to the whole per-user pipeline.
	RetryAttempts int  `mapstructure:"retry_attempts"`
	EnableMetrics bool `mapstructure:"enable_metrics"`

	// AdaptiveThreshold is the candidate-pool size below which the adaptive
	// strategy falls back to sequential processing.
	AdaptiveThreshold int `mapstructure:"adaptive_threshold"`
}

func (b BatchConfig) validate() error {
	if b.MaxConcurrentUsers <= 0 {
		return errors.NewBatchConfigInvalidError(
			fmt.Sprintf("max_concurrent_users must be positive, got %d", b.MaxConcurrentUsers))
	}
	if b.MaxProcessingTimeSeconds <= 0 {
		return errors.NewBatchConfigInvalidError(
			fmt.Sprintf("max_processing_time_seconds must be positive, got %d", b.MaxProcessingTimeSeconds))
	}
	switch b.Strategy {
	case StrategySequential, StrategyParallel, StrategyAdaptive:
	default:
		return errors.NewBatchConfigInvalidError(
			fmt.Sprintf("unknown strategy %q", b.Strategy))
	}
	if b.RetryAttempts < 0 {
		return errors.NewBatchConfigInvalidError(
			fmt.Sprintf("retry_attempts must not be negative, got %d", b.RetryAttempts))
	}
	return nil
}

// --- AI Service Configuration ---

type AIServiceConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Timeout       int     `mapstructure:"timeout"` // milliseconds
	FallbackScore float64 `mapstructure:"fallback_score"`
}

// --- Database Configuration ---

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	JobIndex  string   `mapstructure:"job_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntegrationConfig holds settings for email and alerting integrations.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool    `mapstructure:"enabled"`
			AlertTopicARN      string  `mapstructure:"alert_topic_arn"`
			ErrorRateThreshold float64 `mapstructure:"error_rate_threshold"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate runs every fatal startup check. Invalid configuration aborts
// before any batch run starts.
func (c *Config) Validate() error {
	if _, err := c.Scoring.NormalizedWeights(); err != nil {
		return err
	}
	if err := c.Sections.validate(); err != nil {
		return err
	}
	if err := c.Batch.validate(); err != nil {
		return err
	}
	if c.AI.Enabled && strings.TrimSpace(c.AI.BaseURL) == "" {
		return errors.NewBatchConfigInvalidError("ai.base_url required when ai.enabled")
	}
	return nil
}

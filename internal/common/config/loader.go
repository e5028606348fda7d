// internal/common/config/loader.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/validation"
	"jobmatch-engine/internal/models"
)

// Load reads the yaml base config, merges the environment overlay, expands
// env placeholders, applies defaults and validates. Validation failures are
// fatal to the caller.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	expandEnvVars(v)

	if err := validateScoringSection(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Integrations.AWS.SNS.AlertTopicARN == "" {
		cfg.Integrations.AWS.SNS.AlertTopicARN = os.Getenv("ALERT_TOPIC_ARN")
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("AI_SERVICE_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// the binary behaves the same from cmd/ and from tests.
func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if godotenv.Load(path) == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// validateScoringSection schema-checks the raw scoring block before it is
// unmarshalled. A missing or malformed weights document fails loading; weight
// keys are required configuration and are never substituted.
func validateScoringSection(v *viper.Viper) error {
	raw := v.Get("scoring")
	if raw == nil {
		return errors.NewConfigSchemaViolationError("scoring section is missing")
	}
	document, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode scoring section: %w", err)
	}
	return validation.ValidateScoringDocument(document)
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if strVal, ok := v.Get(key).(string); ok {
			if strings.Contains(strVal, "${") {
				if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "jobmatch-engine"
	}
	if cfg.App.MetricsPort == 0 {
		cfg.App.MetricsPort = 9102
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	s := &cfg.Scoring
	if s.FeeThreshold == 0 {
		s.FeeThreshold = 500
	}
	if s.FeeCeiling == 0 {
		s.FeeCeiling = 5000
	}
	if s.ReferenceApplications == 0 {
		s.ReferenceApplications = 100
	}
	if s.ReferenceViews == 0 {
		s.ReferenceViews = 1000
	}
	if s.KeywordTitleWeight == 0 {
		s.KeywordTitleWeight = 0.6
	}
	if s.SkillBonusFactor == 0 {
		s.SkillBonusFactor = 1.1
	}
	if s.MinHistorySamples == 0 {
		s.MinHistorySamples = 5
	}

	if cfg.Sections.Capacity == 0 {
		cfg.Sections.Capacity = 5
	}
	if cfg.Sections.TargetItems == 0 {
		cfg.Sections.TargetItems = 40
	}
	if cfg.Sections.MaxItems == 0 {
		cfg.Sections.MaxItems = 40
	}

	if cfg.DuplicateControl.WindowDays == 0 {
		cfg.DuplicateControl.WindowDays = 14
	}

	b := &cfg.Batch
	if b.MaxConcurrentUsers == 0 {
		b.MaxConcurrentUsers = 8
	}
	if b.MaxProcessingTimeSeconds == 0 {
		b.MaxProcessingTimeSeconds = 30
	}
	if b.Strategy == "" {
		b.Strategy = StrategyAdaptive
	}
	if b.AdaptiveThreshold == 0 {
		b.AdaptiveThreshold = 200
	}
	if b.RetryAttempts == 0 {
		b.RetryAttempts = 2
	}

	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 2000
	}

	if cfg.Database.Elasticsearch.JobIndex == "" {
		cfg.Database.Elasticsearch.JobIndex = "jobs"
	}
	if cfg.Integrations.AWS.SNS.ErrorRateThreshold == 0 {
		cfg.Integrations.AWS.SNS.ErrorRateThreshold = 0.05
	}
}

// DefaultWeights returns the stock component weighting shipped in the base
// config. It is never substituted at load time; a config without a weights
// block fails validation.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.ComponentBasic:        0.25,
		models.ComponentLocation:     0.10,
		models.ComponentCategory:     0.10,
		models.ComponentSalary:       0.10,
		models.ComponentFeature:      0.05,
		models.ComponentKeyword:      0.15,
		models.ComponentPersonalized: 0.15,
		models.ComponentAI:           0.10,
	}
}

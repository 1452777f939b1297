// Package config handles configuration loading for varscope.
// It supports YAML config files with environment variable overrides and
// carries the full threshold, correlation rule, and account mapping setup
// consumed by the analysis pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/seenimoa/varscope/pkg/models"
)

// Config represents the complete application configuration.
type Config struct {
	Thresholds  ThresholdsConfig   `mapstructure:"thresholds"  yaml:"thresholds"`
	Severity    SeverityConfig     `mapstructure:"severity"    yaml:"severity"`
	Correlation CorrelationConfig  `mapstructure:"correlation" yaml:"correlation"`
	Accounts    []AccountConfig    `mapstructure:"accounts"    yaml:"accounts"`
	Materiality map[string]float64 `mapstructure:"materiality" yaml:"materiality"` // account code → threshold override
	Report      ReportConfig       `mapstructure:"report"      yaml:"report"`
	API         APIConfig          `mapstructure:"api"         yaml:"api"`
	Logging     LoggingConfig      `mapstructure:"logging"     yaml:"logging"`
}

// ThresholdsConfig holds variance significance thresholds.
type ThresholdsConfig struct {
	DefaultVariance     float64            `mapstructure:"default_variance"     yaml:"default_variance"`     // global default, percent
	Categories          map[string]float64 `mapstructure:"categories"           yaml:"categories"`           // per-category overrides
	RecurringStability  float64            `mapstructure:"recurring_stability"  yaml:"recurring_stability"`  // recurring accounts
	QuarterlyDefault    float64            `mapstructure:"quarterly_default"    yaml:"quarterly_default"`    // cyclical accounts
	QuarterlyCategories map[string]float64 `mapstructure:"quarterly_categories" yaml:"quarterly_categories"` // per-category cyclical overrides
}

// SeverityTier pairs the percentage and absolute-amount floors a variance
// must both clear to classify at that tier.
type SeverityTier struct {
	VariancePercent float64 `mapstructure:"variance_percent" yaml:"variance_percent"`
	AbsoluteAmount  float64 `mapstructure:"absolute_amount"  yaml:"absolute_amount"`
}

// SeverityConfig is the three-tier severity classification table.
type SeverityConfig struct {
	Critical SeverityTier `mapstructure:"critical" yaml:"critical"`
	High     SeverityTier `mapstructure:"high"     yaml:"high"`
	Medium   SeverityTier `mapstructure:"medium"   yaml:"medium"`
}

// CorrelationConfig holds the cross-account correlation rule set.
type CorrelationConfig struct {
	Threshold float64      `mapstructure:"threshold" yaml:"threshold"` // significance threshold, percent
	Rules     []RuleConfig `mapstructure:"rules"     yaml:"rules"`
}

// RuleConfig is one correlation rule as configured. PrimaryCategories may
// list one or more categories.
type RuleConfig struct {
	ID                 int      `mapstructure:"id"                  yaml:"id"`
	Name               string   `mapstructure:"name"                yaml:"name"`
	PrimaryCategories  []string `mapstructure:"primary_categories"  yaml:"primary_categories"`
	CorrelatedCategory string   `mapstructure:"correlated_category" yaml:"correlated_category"`
	Relationship       string   `mapstructure:"relationship"        yaml:"relationship"`
	Description        string   `mapstructure:"description"         yaml:"description"`
	Enabled            *bool    `mapstructure:"enabled"             yaml:"enabled"` // nil → enabled
}

// AccountConfig maps one account code to its classification.
type AccountConfig struct {
	Code      string `mapstructure:"code"      yaml:"code"`
	Name      string `mapstructure:"name"      yaml:"name"`
	Category  string `mapstructure:"category"  yaml:"category"`
	Statement string `mapstructure:"statement" yaml:"statement"` // "balance_sheet" or "income_statement"
	Recurring bool   `mapstructure:"recurring" yaml:"recurring"`
	Cyclical  bool   `mapstructure:"cyclical"  yaml:"cyclical"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Format    string `mapstructure:"format"     yaml:"format"` // "text", "html", "csv"
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.varscope/config.yaml (home directory)
//  3. /etc/varscope/config.yaml (system)
//
// Environment variables override config file values.
// Format: VARSCOPE_<SECTION>_<KEY>, e.g., VARSCOPE_THRESHOLDS_DEFAULT_VARIANCE
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".varscope"))
	v.AddConfigPath("/etc/varscope")

	v.SetEnvPrefix("VARSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — use defaults + env vars
	}

	return finalize(v)
}

// Default returns the built-in configuration without consulting config
// files or environment variables. Used by tests and as a fallback.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := finalize(v)
	if err != nil {
		// Defaults always unmarshal cleanly.
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return cfg
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("VARSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Structured sections fall back to coded defaults when the file omits
	// them entirely; viper defaults don't reach into slice values.
	if len(cfg.Correlation.Rules) == 0 {
		cfg.Correlation.Rules = DefaultCorrelationRules()
	}
	if len(cfg.Accounts) == 0 {
		cfg.Accounts = DefaultAccounts()
	}
	if cfg.Materiality == nil {
		cfg.Materiality = map[string]float64{}
	}
	if cfg.Thresholds.Categories == nil {
		cfg.Thresholds.Categories = DefaultCategoryThresholds()
	}
	if cfg.Thresholds.QuarterlyCategories == nil {
		cfg.Thresholds.QuarterlyCategories = map[string]float64{}
	}

	return &cfg, nil
}

// setDefaults sets sensible defaults for all scalar config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("thresholds.default_variance", 5.0)
	v.SetDefault("thresholds.recurring_stability", 5.0)
	v.SetDefault("thresholds.quarterly_default", 30.0)

	v.SetDefault("severity.critical.variance_percent", 20.0)
	v.SetDefault("severity.critical.absolute_amount", 1000000.0)
	v.SetDefault("severity.high.variance_percent", 10.0)
	v.SetDefault("severity.high.absolute_amount", 500000.0)
	v.SetDefault("severity.medium.variance_percent", 5.0)
	v.SetDefault("severity.medium.absolute_amount", 100000.0)

	v.SetDefault("correlation.threshold", 5.0)

	v.SetDefault("report.output_dir", "./output")
	v.SetDefault("report.format", "text")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// VarianceThreshold returns the significance threshold for a category,
// preferring the per-category override over the global default.
func (c *Config) VarianceThreshold(category models.Category) float64 {
	if t, ok := c.Thresholds.Categories[string(category)]; ok {
		return t
	}
	return c.Thresholds.DefaultVariance
}

// QuarterlyThreshold returns the cyclical-pattern threshold for a category,
// falling back to the quarterly default.
func (c *Config) QuarterlyThreshold(category models.Category) float64 {
	if t, ok := c.Thresholds.QuarterlyCategories[string(category)]; ok {
		return t
	}
	return c.Thresholds.QuarterlyDefault
}

// MaterialityOverride returns the configured materiality threshold for an
// account code, if any.
func (c *Config) MaterialityOverride(code string) (float64, bool) {
	t, ok := c.Materiality[code]
	return t, ok
}

// CorrelationRules converts the configured rule set into model rules.
// Rules without an explicit enabled flag are enabled.
func (c *Config) CorrelationRules() []models.CorrelationRule {
	rules := make([]models.CorrelationRule, 0, len(c.Correlation.Rules))
	for _, rc := range c.Correlation.Rules {
		primaries := make([]models.Category, 0, len(rc.PrimaryCategories))
		for _, p := range rc.PrimaryCategories {
			primaries = append(primaries, models.Category(p))
		}
		enabled := true
		if rc.Enabled != nil {
			enabled = *rc.Enabled
		}
		rules = append(rules, models.CorrelationRule{
			ID:                 rc.ID,
			Name:               rc.Name,
			PrimaryCategories:  primaries,
			CorrelatedCategory: models.Category(rc.CorrelatedCategory),
			Relationship:       models.RelationshipType(rc.Relationship),
			Description:        rc.Description,
			Enabled:            enabled,
		})
	}
	return rules
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Package config defines the pipeline configuration surface. Configuration
// is passed explicitly into each component so per-station pipelines stay
// independent and testable in isolation.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Config contains all recognized pipeline options.
type Config struct {
	// Series building
	SamplingInterval      time.Duration `json:"sampling_interval" yaml:"sampling_interval" mapstructure:"sampling_interval"`
	MinIntervals          int           `json:"min_intervals" yaml:"min_intervals" mapstructure:"min_intervals"`
	MaxIntervalThroughput float64       `json:"max_interval_throughput" yaml:"max_interval_throughput" mapstructure:"max_interval_throughput"`

	// Decomposition
	SeasonalPeriod    int                      `json:"seasonal_period" yaml:"seasonal_period" mapstructure:"seasonal_period"`
	DecompositionMode models.DecompositionMode `json:"decomposition_mode" yaml:"decomposition_mode" mapstructure:"decomposition_mode"`

	// Stationarity
	SignificanceLevel    float64 `json:"significance_level" yaml:"significance_level" mapstructure:"significance_level"`
	MaxDifferencingOrder int     `json:"max_differencing_order" yaml:"max_differencing_order" mapstructure:"max_differencing_order"`

	// Model selection and forecasting
	MaxAROrder       int     `json:"max_ar_order" yaml:"max_ar_order" mapstructure:"max_ar_order"`
	Horizon          int     `json:"horizon" yaml:"horizon" mapstructure:"horizon"`
	MaxHorizonFactor int     `json:"max_horizon_factor" yaml:"max_horizon_factor" mapstructure:"max_horizon_factor"`
	ConfidenceLevel  float64 `json:"confidence_level" yaml:"confidence_level" mapstructure:"confidence_level"`
	Model            string  `json:"model" yaml:"model" mapstructure:"model"`
	Detrend          bool    `json:"detrend" yaml:"detrend" mapstructure:"detrend"`

	// Execution
	StationWorkers int `json:"station_workers" yaml:"station_workers" mapstructure:"station_workers"`
}

// Model types selectable via the Model option.
const (
	ModelAR  = "ar"
	ModelSES = "ses"
)

// DefaultConfig returns the default pipeline configuration: daily sampling,
// weekly seasonality, additive decomposition, 14-step horizon.
func DefaultConfig() *Config {
	return &Config{
		SamplingInterval:      24 * time.Hour,
		MinIntervals:          0, // 0 means two full seasonal periods
		MaxIntervalThroughput: 10000,
		SeasonalPeriod:        7,
		DecompositionMode:     models.DecompositionAdditive,
		SignificanceLevel:     0.05,
		MaxDifferencingOrder:  2,
		MaxAROrder:            10,
		Horizon:               14,
		MaxHorizonFactor:      2,
		ConfidenceLevel:       0.95,
		Model:                 ModelAR,
		Detrend:               false,
		StationWorkers:        4,
	}
}

// Load reads configuration from a YAML file, applying defaults for any
// option the file omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration,
			errors.CodeConfigurationLoad, "failed to read configuration file")
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration,
			errors.CodeConfigurationLoad, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.SamplingInterval <= 0 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "sampling interval must be positive")
	}
	if c.SeasonalPeriod < 2 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "seasonal period must be at least 2")
	}
	if c.DecompositionMode != models.DecompositionAdditive && c.DecompositionMode != models.DecompositionMultiplicative {
		return errors.NewConfigurationError(errors.CodeInvalidInput, "decomposition mode must be additive or multiplicative")
	}
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "significance level must be in (0, 1)")
	}
	if c.MaxDifferencingOrder < 0 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "max differencing order must be non-negative")
	}
	if c.MaxAROrder < 0 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "max AR order must be non-negative")
	}
	if c.Horizon < 1 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "horizon must be positive")
	}
	if c.MaxHorizonFactor < 1 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "max horizon factor must be at least 1")
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "confidence level must be in (0, 1)")
	}
	if c.MaxIntervalThroughput <= 0 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "max interval throughput must be positive")
	}
	if c.Model != ModelAR && c.Model != ModelSES {
		return errors.NewConfigurationError(errors.CodeInvalidInput, "model must be ar or ses")
	}
	if c.StationWorkers < 1 {
		return errors.NewConfigurationError(errors.CodeOutOfRange, "station workers must be at least 1")
	}
	return nil
}

// MinIntervalsOrDefault returns the configured minimum number of valid
// intervals, defaulting to two full seasonal periods.
func (c *Config) MinIntervalsOrDefault() int {
	if c.MinIntervals > 0 {
		return c.MinIntervals
	}
	return 2 * c.SeasonalPeriod
}

// MaxHorizon returns the longest allowed forecast horizon.
func (c *Config) MaxHorizon() int {
	return c.MaxHorizonFactor * c.SeasonalPeriod
}

// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	yaml "gopkg.in/yaml.v3"

	"github.com/eddiefleurent/scranton_backtest/internal/backtest"
	"github.com/eddiefleurent/scranton_backtest/internal/strategy"
)

const (
	// dateLayout is the format of data.start_date and data.end_date
	dateLayout = "2006-01-02"
	// defaultLogLevel is used when environment.log_level is unset
	defaultLogLevel = "info"
	// defaultStoragePath is used when storage.path is unset
	defaultStoragePath = "results.json"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Data        DataConfig        `yaml:"data"`
	Backtest    BacktestConfig    `yaml:"backtest"`
	Storage     StorageConfig     `yaml:"storage"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// DataConfig selects the quote files and the date window to replay.
type DataConfig struct {
	Files     []string `yaml:"files"`
	StartDate string   `yaml:"start_date"` // inclusive, empty means first available
	EndDate   string   `yaml:"end_date"`   // inclusive, empty means last available
}

// BacktestConfig defines the strategies to run and how failures are handled.
type BacktestConfig struct {
	Sweep      *SweepConfig     `yaml:"sweep"`
	OnError    string           `yaml:"on_error"` // halt_strategy | abort
	Strategies []StrategyConfig `yaml:"strategies"`
	Capital    float64          `yaml:"capital"`
}

// StrategyConfig defines one strategy.
type StrategyConfig struct {
	Kind          string  `yaml:"kind"`         // weekly_puts | monthly_puts
	IdealStrike   float64 `yaml:"ideal_strike"` // multiplier of the underlying, 1.0 is ATM
	HoldTheStrike bool    `yaml:"hold_the_strike"`
}

// SweepConfig expands into every combination of its lists.
type SweepConfig struct {
	Kinds         []string  `yaml:"kinds"`
	IdealStrikes  []float64 `yaml:"ideal_strikes"`
	HoldTheStrike []bool    `yaml:"hold_the_strike"`
}

// StorageConfig defines where run results are written.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	c.normalize()

	switch c.Environment.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be one of debug, info, warn, error")
	}

	// Data validation
	if len(c.Data.Files) == 0 {
		return fmt.Errorf("data.files must list at least one CSV file")
	}
	for i, f := range c.Data.Files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("data.files[%d] is empty", i)
		}
	}
	start, err := c.StartDate()
	if err != nil {
		return err
	}
	end, err := c.EndDate()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("data.start_date (%s) must be <= data.end_date (%s)", c.Data.StartDate, c.Data.EndDate)
	}

	// Backtest validation
	if c.Backtest.Capital < 0 {
		return fmt.Errorf("backtest.capital must be >= 0")
	}
	if _, err := backtest.ParsePolicy(c.Backtest.OnError); err != nil {
		return fmt.Errorf("backtest.on_error: %w", err)
	}
	if len(c.Backtest.Strategies) == 0 && c.Backtest.Sweep == nil {
		return fmt.Errorf("backtest.strategies or backtest.sweep is required")
	}
	for i, s := range c.Backtest.Strategies {
		if err := validateKind(s.Kind); err != nil {
			return fmt.Errorf("backtest.strategies[%d].kind: %w", i, err)
		}
		if s.IdealStrike <= 0 {
			return fmt.Errorf("backtest.strategies[%d].ideal_strike must be > 0", i)
		}
	}
	if sw := c.Backtest.Sweep; sw != nil {
		if len(sw.Kinds) == 0 || len(sw.IdealStrikes) == 0 {
			return fmt.Errorf("backtest.sweep needs at least one kind and one ideal strike")
		}
		for i, k := range sw.Kinds {
			if err := validateKind(k); err != nil {
				return fmt.Errorf("backtest.sweep.kinds[%d]: %w", i, err)
			}
		}
		for i, s := range sw.IdealStrikes {
			if s <= 0 {
				return fmt.Errorf("backtest.sweep.ideal_strikes[%d] must be > 0", i)
			}
		}
	}

	return nil
}

func validateKind(kind string) error {
	for _, k := range strategy.Kinds() {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("unknown strategy kind %q (want one of %s)", kind, strings.Join(strategy.Kinds(), ", "))
}

// normalize sets default values for optional settings
func (c *Config) normalize() {
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = defaultLogLevel
	}
	if c.Backtest.OnError == "" {
		c.Backtest.OnError = string(backtest.PolicyHaltStrategy)
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath
	}
}

// StartDate returns the parsed data.start_date, or the zero time when unset.
func (c *Config) StartDate() (time.Time, error) {
	return parseDate("data.start_date", c.Data.StartDate)
}

// EndDate returns the parsed data.end_date, or the zero time when unset.
func (c *Config) EndDate() (time.Time, error) {
	return parseDate("data.end_date", c.Data.EndDate)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", field, err)
	}
	return t, nil
}

// Policy returns the configured error policy.
func (c *Config) Policy() backtest.Policy {
	p, err := backtest.ParsePolicy(c.Backtest.OnError)
	if err != nil {
		return backtest.PolicyHaltStrategy
	}
	return p
}

// CapitalDecimal returns the starting cash of every strategy.
func (c *Config) CapitalDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Backtest.Capital)
}

// StrategySpecs returns the explicit strategies followed by the sweep expansion.
func (c *Config) StrategySpecs() []backtest.StrategySpec {
	specs := make([]backtest.StrategySpec, 0, len(c.Backtest.Strategies))
	for _, s := range c.Backtest.Strategies {
		specs = append(specs, backtest.StrategySpec{
			Kind:          s.Kind,
			IdealStrike:   decimal.NewFromFloat(s.IdealStrike),
			HoldTheStrike: s.HoldTheStrike,
		})
	}
	if sw := c.Backtest.Sweep; sw != nil {
		strikes := make([]decimal.Decimal, len(sw.IdealStrikes))
		for i, s := range sw.IdealStrikes {
			strikes[i] = decimal.NewFromFloat(s)
		}
		specs = append(specs, backtest.Sweep(sw.Kinds, strikes, sw.HoldTheStrike)...)
	}
	return specs
}

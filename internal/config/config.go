// Package config loads tierboard settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/alexanderramin/tierboard/internal/tracker"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable, e.g. TIERBOARD_TRACKER_URL.
const EnvPrefix = "TIERBOARD_"

// DefaultEnvFiles are read, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

type Config struct {
	Tracker tracker.Config `envPrefix:"TRACKER_"`

	SchemaPath       string `env:"SCHEMA_PATH"`
	FiscalStartMonth int    `env:"FISCAL_START_MONTH" envDefault:"4"`
	FiscalStartDay   int    `env:"FISCAL_START_DAY" envDefault:"1"`
	Timezone         string `env:"TIMEZONE" envDefault:"UTC"`
	Concurrency      int    `env:"CONCURRENCY" envDefault:"4"`
	DefaultGroup     string `env:"GROUP"`
	MetricsAddr      string `env:"METRICS_ADDR"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	FixtureDB        string `env:"FIXTURE_DB" envDefault:":memory:"`
}

// LoadEnv loads the env files that exist and reports how many were read.
// Variables already set in the process environment win.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads env files then parses the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return Config{}, fmt.Errorf("loading env files: %w", err)
	}
	return parse(env.Options{Prefix: EnvPrefix})
}

// FromMap parses settings from vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if err := c.Tracker.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.FiscalStartMonth < 1 || c.FiscalStartMonth > 12 {
		errs = append(errs, fmt.Errorf("fiscal start month must be within 1..12, got %d", c.FiscalStartMonth))
	}
	if c.FiscalStartDay < 1 || c.FiscalStartDay > 28 {
		errs = append(errs, fmt.Errorf("fiscal start day must be within 1..28, got %d", c.FiscalStartDay))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Calendar builds the fiscal calendar.
func (c Config) Calendar() period.Calendar {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return period.Calendar{
		StartMonth: time.Month(c.FiscalStartMonth),
		StartDay:   c.FiscalStartDay,
		Location:   loc,
	}
}

// Schema loads the field schema file, or the defaults when none is set.
func (c Config) Schema() (fields.Schema, error) {
	if c.SchemaPath == "" {
		return fields.DefaultSchema(), nil
	}
	return fields.LoadSchema(c.SchemaPath)
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

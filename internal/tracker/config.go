package tracker

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds the tracker connection settings.
type Config struct {
	BaseURL    string `env:"URL" envDefault:"http://localhost:3000"`
	APIKey     string `env:"API_KEY"`
	TimeoutMs  int    `env:"TIMEOUT_MS" envDefault:"10000"`
	MaxRetries int    `env:"MAX_RETRIES" envDefault:"1"`
	PageSize   int    `env:"PAGE_SIZE" envDefault:"100"`
	MaxPages   int    `env:"MAX_PAGES" envDefault:"200"`
	LogCalls   bool   `env:"LOG_CALLS"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:3000",
		TimeoutMs:  10000,
		MaxRetries: 1,
		PageSize:   100,
		MaxPages:   200,
	}
}

// Validate checks the settings the client depends on.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("tracker url %q is not an absolute URL", c.BaseURL)
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("tracker page size must be within 1..100, got %d", c.PageSize)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("tracker max pages must be positive, got %d", c.MaxPages)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("tracker max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("tracker timeout must be positive, got %d", c.TimeoutMs)
	}
	return nil
}

func (c Config) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

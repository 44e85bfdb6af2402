package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.BaseURL = "tracker.local"
	assert.ErrorContains(t, cfg.Validate(), "absolute URL")

	cfg = DefaultConfig()
	cfg.PageSize = 500
	assert.ErrorContains(t, cfg.Validate(), "page size")

	cfg = DefaultConfig()
	cfg.MaxPages = 0
	assert.ErrorContains(t, cfg.Validate(), "max pages")
}

func TestConfig_Endpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://tracker.example.com/"
	assert.Equal(t, "https://tracker.example.com/issues.json", cfg.endpoint("/issues.json"))
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Tracker.BaseURL)
	assert.Equal(t, 100, cfg.Tracker.PageSize)
	assert.Equal(t, 200, cfg.Tracker.MaxPages)
	assert.Equal(t, 4, cfg.FiscalStartMonth)
	assert.Equal(t, 1, cfg.FiscalStartDay)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, slog.LevelInfo, cfg.Level())

	cal := cfg.Calendar()
	assert.Equal(t, time.April, cal.StartMonth)
	assert.Equal(t, time.UTC, cal.Location)
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"TIERBOARD_TRACKER_URL":        "https://tracker.example.com",
		"TIERBOARD_TRACKER_API_KEY":    "k",
		"TIERBOARD_TRACKER_PAGE_SIZE":  "25",
		"TIERBOARD_FISCAL_START_MONTH": "1",
		"TIERBOARD_GROUP":              "Growth",
		"TIERBOARD_LOG_LEVEL":          "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://tracker.example.com", cfg.Tracker.BaseURL)
	assert.Equal(t, "k", cfg.Tracker.APIKey)
	assert.Equal(t, 25, cfg.Tracker.PageSize)
	assert.Equal(t, time.January, cfg.Calendar().StartMonth)
	assert.Equal(t, "Growth", cfg.DefaultGroup)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestFromMap_InvalidValuesJoined(t *testing.T) {
	_, err := FromMap(map[string]string{
		"TIERBOARD_TRACKER_PAGE_SIZE":  "500",
		"TIERBOARD_FISCAL_START_MONTH": "13",
		"TIERBOARD_TIMEZONE":           "Mars/Olympus",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page size")
	assert.Contains(t, err.Error(), "fiscal start month")
	assert.Contains(t, err.Error(), "Mars/Olympus")
}

func TestFromMap_UnparsableNumber(t *testing.T) {
	_, err := FromMap(map[string]string{"TIERBOARD_CONCURRENCY": "many"})
	assert.Error(t, err)
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIERBOARD_TEST_ONLY_VAR=from-file\n"), 0o644))
	t.Setenv("TIERBOARD_TEST_ONLY_VAR", "")
	os.Unsetenv("TIERBOARD_TEST_ONLY_VAR")

	n, err := LoadEnv([]string{filepath.Join(dir, "missing.env"), path})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-file", os.Getenv("TIERBOARD_TEST_ONLY_VAR"))
}

func TestSchema_DefaultWhenUnset(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)
	s, err := cfg.Schema()
	require.NoError(t, err)
	assert.Equal(t, fields.DefaultSchema(), s)
}

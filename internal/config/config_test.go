package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://download.geonames.org/export/zip/US.zip", cfg.Zip.URL)
	assert.Equal(t, "US.txt", cfg.Zip.Member)
	assert.Equal(t, "GA", cfg.Zip.State)
	assert.Equal(t, "zip_codes.json", cfg.Zip.Output)
	assert.Equal(t, "data", cfg.Merge.DataDir)
	assert.Equal(t, "SDWA_PUB_WATER_SYSTEMS.csv", cfg.Merge.Systems)
	assert.Equal(t, "SDWA_VIOLATIONS_ENFORCEMENT.csv", cfg.Merge.Violations)
	assert.Equal(t, "SDWA_GEOGRAPHIC_AREAS.csv", cfg.Merge.GeoAreas)
	assert.Equal(t, "SDWA_REF_CODE_VALUES.csv", cfg.Merge.RefCodes)
	assert.Equal(t, "data.json", cfg.Merge.Output)
	assert.Equal(t, "utf-8", cfg.Merge.Encoding)
	assert.Equal(t, 1, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout())
	assert.Equal(t, "water-atlas/1.0", cfg.Fetch.UserAgent)
	assert.False(t, cfg.RunLog.Enabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
zip:
  state: FL
  output: out/fl.json
merge:
  data_dir: extracts
  encoding: windows-1252
runlog:
  path: .water-atlas/runs.db
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "FL", cfg.Zip.State)
	assert.Equal(t, "out/fl.json", cfg.Zip.Output)
	assert.Equal(t, "extracts", cfg.Merge.DataDir)
	assert.Equal(t, "windows-1252", cfg.Merge.Encoding)
	assert.True(t, cfg.RunLog.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	// Defaults still apply for unset values
	assert.Equal(t, "US.txt", cfg.Zip.Member)
	assert.Equal(t, "data.json", cfg.Merge.Output)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
zip:
  state: FL
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("WATER_ATLAS_ZIP_STATE", "AL")
	t.Setenv("WATER_ATLAS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "AL", cfg.Zip.State)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("WATER_ATLAS_FETCH_MAX_RETRIES", "3")
	t.Setenv("WATER_ATLAS_MERGE_DATA_DIR", "/srv/sdwa")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "/srv/sdwa", cfg.Merge.DataDir)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("invalid: [yaml: bad"), 0o644))

	_, err := Load()
	assert.ErrorContains(t, err, "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Zip.URL = "https://download.geonames.org/export/zip/US.zip"
	cfg.Zip.Member = "US.txt"
	cfg.Zip.Output = "zip_codes.json"
	cfg.Merge.DataDir = "data"
	cfg.Merge.Output = "data.json"
	cfg.Fetch.MaxRetries = 1
	return cfg
}

func TestValidateZipcodes(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("zipcodes"))

	cfg.Zip.URL = ""
	cfg.Fetch.MaxRetries = 0
	err := cfg.Validate("zipcodes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip.url is required")
	assert.Contains(t, err.Error(), "fetch.max_retries must be at least 1")
}

func TestValidateMerge(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("merge"))

	cfg.Merge.Output = ""
	assert.ErrorContains(t, cfg.Validate("merge"), "merge.output is required")
}

func TestValidateRuns(t *testing.T) {
	cfg := validDefaults()
	assert.ErrorContains(t, cfg.Validate("runs"), "runlog.path is required")

	cfg.RunLog.Path = "runs.db"
	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.ErrorContains(t, err, "unknown validation mode")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"LOG_LEVEL",
		"LOG_FORMAT",
		"OUTPUT_FORMAT",
		"DRY_RUN",
		"BACKUP",
		"CONCURRENCY",
		"SUPPORT_DEPTH",
	}
	for _, v := range vars {
		key := EnvPrefix + "_" + v
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, DefaultOutputFormat, cfg.OutputFormat)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.Backup)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.Equal(t, DefaultSupportDepth, cfg.SupportDepth)

	app := cfg.ToAppConfig()
	assert.Equal(t, DefaultConcurrency(), app.Concurrency())
	assert.Equal(t, LogFormatPretty, app.LogFormat())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("EMU_LOG_LEVEL", "debug")
	t.Setenv("EMU_LOG_FORMAT", "json")
	t.Setenv("EMU_OUTPUT_FORMAT", "YAML")
	t.Setenv("EMU_DRY_RUN", "true")
	t.Setenv("EMU_BACKUP", "1")
	t.Setenv("EMU_CONCURRENCY", "3")
	t.Setenv("EMU_SUPPORT_DEPTH", "0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	app := cfg.ToAppConfig()

	assert.Equal(t, "DEBUG", app.LogLevel())
	assert.Equal(t, LogFormatJSON, app.LogFormat())
	assert.Equal(t, "yaml", app.OutputFormat())
	assert.True(t, app.DryRun())
	assert.True(t, app.Backup())
	assert.Equal(t, 3, app.Concurrency())
	assert.Equal(t, 0, app.SupportDepth())
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("EMU_CONCURRENCY", "many")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnvVars(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EMU_BACKUP=true\nEMU_SUPPORT_DEPTH=4\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Backup())
	assert.Equal(t, 4, cfg.SupportDepth())
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestOptions(t *testing.T) {
	cfg := NewAppConfigWithOptions(
		WithConcurrency(0),
		WithSupportDepth(-1),
		WithLogLevel("error"),
	)
	assert.Equal(t, DefaultConcurrency(), cfg.Concurrency())
	assert.Equal(t, DefaultSupportDepth, cfg.SupportDepth())
	assert.Equal(t, "ERROR", cfg.LogLevel())
}

func TestAppConfig_With(t *testing.T) {
	base := NewAppConfig()
	cfg := base.With(WithDryRun(true), WithOutputFormat("YAML"))

	assert.True(t, cfg.DryRun())
	assert.Equal(t, "yaml", cfg.OutputFormat())
	assert.False(t, base.DryRun())
}

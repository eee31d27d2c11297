package config

import (
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable emu reads.
const EnvPrefix = "EMU"

// EnvConfig holds all environment-based configuration.
// Field names map to environment variables with the EMU_ prefix.
type EnvConfig struct {
	// LogLevel is the log verbosity level.
	// Env: EMU_LOG_LEVEL (default: WARN)
	LogLevel string `envconfig:"LOG_LEVEL" default:"WARN"`

	// LogFormat is the log output format (pretty or json).
	// Env: EMU_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// OutputFormat is the report format (text, json or yaml).
	// Env: EMU_OUTPUT_FORMAT (default: text)
	OutputFormat string `envconfig:"OUTPUT_FORMAT" default:"text"`

	// DryRun makes fixes report what they would change without writing.
	// Env: EMU_DRY_RUN (default: false)
	DryRun bool `envconfig:"DRY_RUN" default:"false"`

	// Backup copies each file before it is patched.
	// Env: EMU_BACKUP (default: false)
	Backup bool `envconfig:"BACKUP" default:"false"`

	// Concurrency is the number of files processed at once.
	// Env: EMU_CONCURRENCY
	// Default: number of CPUs
	Concurrency int `envconfig:"CONCURRENCY"`

	// SupportDepth is how many parent directories are searched for
	// support files such as sensor logs.
	// Env: EMU_SUPPORT_DEPTH (default: 2)
	SupportDepth int `envconfig:"SUPPORT_DEPTH" default:"2"`
}

// LoadFromEnv loads configuration from EMU_ prefixed environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix(EnvPrefix)
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(LogFormat(e.LogFormat)))
	}
	if e.OutputFormat != "" {
		cfg = applyOption(cfg, WithOutputFormat(e.OutputFormat))
	}
	cfg = applyOption(cfg, WithDryRun(e.DryRun))
	cfg = applyOption(cfg, WithBackup(e.Backup))
	cfg = applyOption(cfg, WithConcurrency(e.Concurrency))
	cfg = applyOption(cfg, WithSupportDepth(e.SupportDepth))

	return cfg
}

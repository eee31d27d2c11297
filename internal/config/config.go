// Package config provides emu's configuration.
package config

import (
	"runtime"
	"strings"
)

// Default configuration values.
const (
	DefaultLogLevel     = "WARN"
	DefaultOutputFormat = "text"
	DefaultSupportDepth = 2
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// DefaultConcurrency is the number of files processed at once when none is
// configured.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// AppConfig holds the resolved application configuration.
type AppConfig struct {
	logLevel     string
	logFormat    LogFormat
	outputFormat string
	dryRun       bool
	backup       bool
	concurrency  int
	supportDepth int
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		logLevel:     DefaultLogLevel,
		logFormat:    LogFormatPretty,
		outputFormat: DefaultOutputFormat,
		concurrency:  DefaultConcurrency(),
		supportDepth: DefaultSupportDepth,
	}
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// OutputFormat returns the report format: text, json or yaml.
func (c AppConfig) OutputFormat() string { return c.outputFormat }

// DryRun reports whether fixes only describe what they would do.
func (c AppConfig) DryRun() bool { return c.dryRun }

// Backup reports whether files are copied before they are patched.
func (c AppConfig) Backup() bool { return c.backup }

// Concurrency returns how many files are processed at once.
func (c AppConfig) Concurrency() int { return c.concurrency }

// SupportDepth returns how many parent directories are searched for
// support files.
func (c AppConfig) SupportDepth() int { return c.supportDepth }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// NewAppConfigWithOptions creates an AppConfig with options applied.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	cfg := NewAppConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// With returns a copy of c with opts applied. Command line flags use it to
// take precedence over the environment.
func (c AppConfig) With(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = strings.ToUpper(level) }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithOutputFormat sets the report format.
func WithOutputFormat(format string) AppConfigOption {
	return func(c *AppConfig) { c.outputFormat = strings.ToLower(format) }
}

// WithDryRun sets dry-run mode.
func WithDryRun(dryRun bool) AppConfigOption {
	return func(c *AppConfig) { c.dryRun = dryRun }
}

// WithBackup sets whether files are backed up before patching.
func WithBackup(backup bool) AppConfigOption {
	return func(c *AppConfig) { c.backup = backup }
}

// WithConcurrency sets the number of files processed at once. Values below
// one are ignored.
func WithConcurrency(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithSupportDepth sets the support file search depth.
func WithSupportDepth(depth int) AppConfigOption {
	return func(c *AppConfig) {
		if depth >= 0 {
			c.supportDepth = depth
		}
	}
}

// Package main is the emu command line: it extracts metadata from
// ecoacoustic recordings and checks and repairs known problems in them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/support"
	"github.com/ecoacoustics/emu/internal/config"
	"github.com/ecoacoustics/emu/internal/log"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

// errFailures is returned after output has been written when at least one
// file could not be processed.
var errFailures = errors.New("some files could not be processed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		core.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once configuration is loaded.
type app struct {
	cfg    config.AppConfig
	logger *log.Logger
	out    io.Writer
	cache  *support.Cache
}

type globalFlags struct {
	envFile     string
	output      string
	logLevel    string
	concurrency int
}

func rootCmd(out io.Writer) *cobra.Command {
	var flags globalFlags
	a := &app{out: out}

	cmd := &cobra.Command{
		Use:   "emu",
		Short: "Metadata extraction and repair for ecoacoustic recordings",
		Long: `emu reads WAVE and FLAC recordings from acoustic sensors, extracts
their metadata and repairs known problems in place.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file
  3. Environment variables (EMU_ prefix)
  4. Command line flags

Environment variables:
  EMU_LOG_LEVEL       DEBUG, INFO, WARN, ERROR (default: WARN)
  EMU_LOG_FORMAT      pretty, json (default: pretty)
  EMU_OUTPUT_FORMAT   text, json, yaml (default: text)
  EMU_DRY_RUN         Report fixes without writing (default: false)
  EMU_BACKUP          Back up files before fixing them (default: false)
  EMU_CONCURRENCY     Files processed at once (default: number of CPUs)
  EMU_SUPPORT_DEPTH   Parent directories searched for support files (default: 2)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags.envFile)
			if err != nil {
				return err
			}
			a.cfg = applyGlobalOverrides(cmd, cfg, flags)
			a.logger = log.Configure(a.cfg)
			a.cache = support.NewCache()
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Path to .env file")
	pf.StringVarP(&flags.output, "output", "o", "", "Output format: text, json, yaml")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	pf.IntVarP(&flags.concurrency, "concurrency", "j", 0, "Files processed at once")

	cmd.AddCommand(metadataCmd(a))
	cmd.AddCommand(checkCmd(a))
	cmd.AddCommand(fixCmd(a))
	cmd.AddCommand(problemsCmd(a))
	cmd.AddCommand(versionCmd(out))

	return cmd
}

func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func applyGlobalOverrides(cmd *cobra.Command, cfg config.AppConfig, flags globalFlags) config.AppConfig {
	var opts []config.AppConfigOption
	if cmd.Flags().Changed("output") {
		opts = append(opts, config.WithOutputFormat(flags.output))
	}
	if cmd.Flags().Changed("log-level") {
		opts = append(opts, config.WithLogLevel(flags.logLevel))
	}
	if cmd.Flags().Changed("concurrency") {
		opts = append(opts, config.WithConcurrency(flags.concurrency))
	}
	return cfg.With(opts...)
}

func (a *app) printer() *core.Printer {
	p := core.NewPrinter(a.cfg.OutputFormat())
	p.Writer = a.out
	return p
}

func versionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "emu version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
		},
	}
}

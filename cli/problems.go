package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/fix"
	"github.com/ecoacoustics/emu/internal/config"
)

func checkCmd(a *app) *cobra.Command {
	var problems []string

	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Check recordings for known problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd.Context(), args, problems)
		},
	}
	cmd.Flags().StringSliceVarP(&problems, "problem", "p", nil, "Problem ids to check, e.g. FL010 (default: all)")
	return cmd
}

func fixCmd(a *app) *cobra.Command {
	var dryRun, backup bool

	cmd := &cobra.Command{
		Use:   "fix <problem> <path>...",
		Short: "Repair one known problem in recordings",
		Long: `Repair one known problem in recordings.

Every file is checked first and only affected files are changed. With
--dry-run the actions that would be taken are reported and nothing is
written.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.AppConfigOption
			if cmd.Flags().Changed("dry-run") {
				opts = append(opts, config.WithDryRun(dryRun))
			}
			if cmd.Flags().Changed("backup") {
				opts = append(opts, config.WithBackup(backup))
			}
			a.cfg = a.cfg.With(opts...)
			return a.runFix(cmd.Context(), args[0], args[1:])
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report what would change without writing")
	cmd.Flags().BoolVar(&backup, "backup", false, "Copy each file to <name>"+fix.BackupSuffix+" before changing it")
	return cmd
}

func problemsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "problems",
		Short: "List the problems emu can check and fix",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, def := range fix.All() {
				p := def.Problem
				fmt.Fprintf(a.out, "%s\t%s\t%s\n", p.ID(), p.Title, p.URL)
			}
		},
	}
}

func selectProblems(ids []string) ([]fix.Definition, error) {
	if len(ids) == 0 {
		return fix.All(), nil
	}
	defs := make([]fix.Definition, 0, len(ids))
	for _, id := range ids {
		def, ok := fix.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown problem %q (known: %s)", id, knownIDs())
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func knownIDs() string {
	var ids []string
	for _, def := range fix.All() {
		ids = append(ids, def.Problem.ID())
	}
	return strings.Join(ids, ", ")
}

func (a *app) runCheck(ctx context.Context, args, ids []string) error {
	defs, err := selectProblems(ids)
	if err != nil {
		return err
	}
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	results := make([][]fix.CheckResult, len(paths))
	err = a.forEach(ctx, paths, func(ctx context.Context, i int, path string) error {
		for _, def := range defs {
			r := fix.Check(ctx, def, path)
			a.logger.Debug("checked", "path", path, "problem", def.Problem.ID(), "status", r.Status)
			results[i] = append(results[i], r)
		}
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	var reports []core.Report
	failed := false
	for i, rs := range results {
		for j, r := range rs {
			reports = append(reports, r.Report(paths[i], defs[j].Problem))
			failed = failed || r.Status == fix.Error
		}
	}
	if err := a.printer().PrintReports(reports); err != nil {
		return err
	}
	if failed {
		return errFailures
	}
	return nil
}

func (a *app) runFix(ctx context.Context, id string, args []string) error {
	def, ok := fix.Lookup(id)
	if !ok {
		return fmt.Errorf("unknown problem %q (known: %s)", id, knownIDs())
	}
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	results := make([]fix.FixResult, len(paths))
	err = a.forEach(ctx, paths, func(ctx context.Context, i int, path string) error {
		logger := a.logger.Slog().With("path", path, "problem", def.Problem.ID())
		pc := fix.NewPatchContext(a.cfg.DryRun(), a.cfg.Backup(), logger)
		results[i] = fix.Fix(ctx, def, path, pc)
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	reports := make([]core.Report, len(results))
	failed := false
	for i, r := range results {
		reports[i] = r.Report(paths[i], def.Problem)
		failed = failed || r.CheckResult.Status == fix.Error
	}
	if err := a.printer().PrintReports(reports); err != nil {
		return err
	}
	if failed {
		return errFailures
	}
	return nil
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/extract"
)

func metadataCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <path>...",
		Short: "Extract metadata from recordings",
		Long: `Extract metadata from recordings.

Paths may be files, directories (searched for .wav and .flac files) or glob
patterns. Support files such as Frontier Labs logs are found in each
recording's directory and its parents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMetadata(cmd.Context(), args)
		},
	}
}

func (a *app) runMetadata(ctx context.Context, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	recs := make([]*core.Recording, len(paths))
	err = a.forEach(ctx, paths, func(ctx context.Context, i int, path string) error {
		rec, err := a.extract(ctx, path)
		recs[i] = rec
		return err
	})
	if err != nil {
		return err
	}

	if err := a.printer().PrintRecordings(recs); err != nil {
		return err
	}
	for _, r := range recs {
		if r.HasErrors() {
			return errFailures
		}
	}
	return nil
}

// extract reads one recording. A file that cannot be opened still yields a
// record carrying the error so it appears in the output.
func (a *app) extract(ctx context.Context, path string) (*core.Recording, error) {
	logger := a.logger.With("path", path)

	t, err := extract.Open(path, a.supportFor(path))
	if err != nil {
		logger.Warn("could not open recording", "error", err)
		rec := core.NewRecording(path, core.FormatFromExtension(path), 0)
		rec.AddNotice("open", core.LevelError, err.Error())
		return rec, nil
	}
	defer t.Close()

	// Run only fails when ctx is done.
	return extract.Run(ctx, t, logger.Slog())
}

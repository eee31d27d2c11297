package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/support"
)

// expandPaths resolves glob patterns and walks directories for recordings.
// An argument that matches nothing is kept so the failure is reported
// against it.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			fi, err := os.Stat(m)
			if err != nil || !fi.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.Type().IsRegular() && core.FormatFromExtension(p).Supported() {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return paths, nil
}

// forEach runs fn over paths, at most cfg.Concurrency at a time. fn stores
// its result at index i so output keeps argument order.
func (a *app) forEach(ctx context.Context, paths []string, fn func(ctx context.Context, i int, path string) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency())
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i, p)
		})
	}
	return g.Wait()
}

// supportFor returns the support files shared by recordings in path's
// directory. Failures are logged and extraction carries on without them.
func (a *app) supportFor(path string) *support.TargetSupportFiles {
	dir := filepath.Dir(path)
	sup, err := a.cache.ScanDirectory(dir, support.Kinds, a.cfg.SupportDepth())
	if err != nil {
		a.logger.Warn("support files skipped", "dir", dir, "error", err)
	}
	return sup
}

package fix

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ecoacoustics/emu/core/stream"
)

// BackupSuffix is appended to a file's name to form its backup path.
const BackupSuffix = ".bak"

// ErrBackupMismatch means a backup copy does not hash the same as its
// source.
var ErrBackupMismatch = errors.New("backup does not match original")

// PatchContext carries the options of one fix and records what it did.
// Every mutation goes through WouldDo so a dry run touches nothing.
type PatchContext struct {
	DryRun bool
	Backup bool
	Logger *slog.Logger

	actions []string
}

// NewPatchContext returns a context for one fix. A nil logger discards.
func NewPatchContext(dryRun, backup bool, logger *slog.Logger) *PatchContext {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PatchContext{DryRun: dryRun, Backup: backup, Logger: logger}
}

func (pc *PatchContext) logger() *slog.Logger {
	if pc.Logger == nil {
		pc.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return pc.Logger
}

// WouldDo runs action unless this is a dry run. Either way desc is recorded
// and nil is returned for the skipped action.
func (pc *PatchContext) WouldDo(desc string, action func() error) error {
	if pc.DryRun {
		pc.actions = append(pc.actions, "(dry run) "+desc)
		pc.logger().Info("dry run", "action", desc)
		return nil
	}
	if err := action(); err != nil {
		return fmt.Errorf("%s: %w", desc, err)
	}
	pc.actions = append(pc.actions, desc)
	pc.logger().Info("patched", "action", desc)
	return nil
}

// Actions returns the actions recorded so far.
func (pc *PatchContext) Actions() []string {
	return append([]string(nil), pc.actions...)
}

// BackupFile copies path to path+BackupSuffix when backups are enabled and
// verifies the copy by hash. An existing backup is never overwritten.
func (pc *PatchContext) BackupFile(path string) (string, error) {
	if !pc.Backup {
		return "", nil
	}
	dest := path + BackupSuffix
	err := pc.WouldDo("back up to "+dest, func() error {
		return copyVerified(path, dest)
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

// Rename moves oldPath to newPath, refusing to replace an existing file.
func (pc *PatchContext) Rename(oldPath, newPath string) error {
	return pc.WouldDo(fmt.Sprintf("rename to %s", newPath), func() error {
		if _, err := os.Lstat(newPath); err == nil {
			return fmt.Errorf("%s: %w", newPath, os.ErrExist)
		}
		return os.Rename(oldPath, newPath)
	})
}

func copyVerified(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	want, err := stream.HashFile(src)
	if err != nil {
		return err
	}
	got, err := stream.HashFile(dest)
	if err != nil {
		return err
	}
	if got != want {
		os.Remove(dest)
		return fmt.Errorf("%w: %s", ErrBackupMismatch, dest)
	}
	return nil
}

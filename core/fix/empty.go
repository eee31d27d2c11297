package fix

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecoacoustics/emu/core/extract"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/wave"
)

// EmptySuffix is appended to files renamed by the preallocated header fix.
const EmptySuffix = ".error_empty"

// ─── OE004 ───────────────────────────────────────────────────────────────────

func checkEmptyFile(_ context.Context, t *extract.Target) CheckResult {
	if t.Length > 0 {
		return CheckResult{Status: Unaffected}
	}
	return CheckResult{Status: Affected, Severity: SeveritySevere, Message: "file is empty"}
}

func fixEmptyFile(ctx context.Context, path string, _ *PatchContext) FixResult {
	check := checkPath(ctx, path, checkEmptyFile)
	if check.Status != Affected {
		return skipFix(check)
	}
	return notFixed(check, "an empty file has nothing to repair")
}

// ─── FL001 ───────────────────────────────────────────────────────────────────

// checkPreallocatedHeader finds recordings whose header was written before
// recording started and never completed.
func checkPreallocatedHeader(_ context.Context, t *extract.Target) CheckResult {
	if t.Length == 0 {
		return CheckResult{Status: NotApplicable, Message: "file is empty"}
	}
	switch {
	case t.IsFlac():
		return checkPreallocatedFlac(t)
	case t.IsWave():
		return checkPreallocatedWave(t)
	}
	return CheckResult{Status: NotApplicable}
}

func checkPreallocatedFlac(t *extract.Target) CheckResult {
	f, err := t.Flac()
	if err != nil {
		return structuralOrError(err)
	}
	si, err := f.ReadStreamInfo()
	if err != nil {
		return checkError(err)
	}
	if si.TotalSamples != 0 {
		return CheckResult{Status: Unaffected}
	}
	offset, err := f.AudioOffset()
	if err != nil {
		return checkError(err)
	}
	if offset < t.Length {
		b, err := stream.ReadExact(t.File, stream.New(offset, 2).Clamp(t.Length))
		if err == nil && len(b) == 2 && b[0] == 0xFF && b[1]&0xFE == 0xF8 {
			return CheckResult{Status: Unaffected, Message: "header reports no samples but audio frames follow"}
		}
	}
	return CheckResult{
		Status:   Affected,
		Severity: SeveritySevere,
		Message:  fmt.Sprintf("header reports no samples and no audio frames follow offset %d", offset),
	}
}

func checkPreallocatedWave(t *extract.Target) CheckResult {
	w, err := t.Wave()
	if err != nil {
		return structuralOrError(err)
	}
	data, err := w.Data()
	switch {
	case errors.Is(err, wave.ErrChunkNotFound):
		return CheckResult{Status: Affected, Severity: SeveritySevere, Message: "no data chunk"}
	case err != nil:
		return checkError(err)
	case data.Range.Length == 0:
		return CheckResult{Status: Affected, Severity: SeveritySevere, Message: "data chunk is empty"}
	}
	return CheckResult{Status: Unaffected}
}

func fixPreallocatedHeader(ctx context.Context, path string, pc *PatchContext) FixResult {
	check := checkPath(ctx, path, checkPreallocatedHeader)
	if check.Status != Affected {
		return skipFix(check)
	}
	newPath := path + EmptySuffix
	if err := pc.Rename(path, newPath); err != nil {
		return notFixed(check, "%v", err)
	}
	return FixResult{Status: Renamed, CheckResult: check, Message: "renamed so it is no longer processed", NewPath: newPath}
}

func structuralOrError(err error) CheckResult {
	if stream.IsStructural(err) {
		return CheckResult{Status: NotApplicable, Message: err.Error()}
	}
	return checkError(err)
}

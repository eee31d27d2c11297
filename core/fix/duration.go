package fix

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ecoacoustics/emu/core/extract"
	"github.com/ecoacoustics/emu/core/flac"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/vendors/frontierlabs"
)

// DurationBugMarker is added to the firmware comment of a repaired file.
const DurationBugMarker = "EMU+FL010"

var (
	durationBugMin = frontierlabs.MustParseVersion("3.17")
	durationBugMax = frontierlabs.MustParseVersion("3.28")
)

// durationBug is the CheckResult.Data of an affected file.
type durationBug struct {
	Firmware   frontierlabs.FirmwareRecord
	StreamInfo flac.StreamInfo
}

func checkDurationBug(_ context.Context, t *extract.Target) CheckResult {
	if !t.IsFlac() {
		return CheckResult{Status: NotApplicable}
	}
	f, err := t.Flac()
	if err != nil {
		return structuralOrError(err)
	}

	fw, err := frontierlabs.ReadFirmware(f)
	if err != nil {
		return CheckResult{Status: Error, Message: "could not read firmware: " + err.Error(), Err: err}
	}
	if fw.HasTag(DurationBugMarker) {
		return CheckResult{Status: Repaired, Message: "already repaired"}
	}
	if !fw.Version.Within(durationBugMin, durationBugMax) {
		return CheckResult{Status: Unaffected, Message: "firmware " + fw.Version.String()}
	}

	si, err := f.ReadStreamInfo()
	if err != nil {
		return checkError(err)
	}
	return CheckResult{
		Status:   Affected,
		Severity: SeverityModerate,
		Message: fmt.Sprintf("firmware %s: header claims %d samples, recording holds %d",
			fw.Version, si.TotalSamples, si.TotalSamples/2),
		Data: durationBug{Firmware: fw, StreamInfo: si},
	}
}

// markComment appends the repair marker to a firmware comment without
// changing its byte length. Trailing padding is consumed first.
func markComment(raw string, length uint64) (string, bool) {
	text := strings.TrimRight(raw, " \x00") + " " + DurationBugMarker
	if uint64(len(text)) > length {
		return "", false
	}
	return text + strings.Repeat(" ", int(length)-len(text)), true
}

// fixDurationBug halves the total sample count in place and marks the
// firmware comment. The file is opened once and both writes target ranges
// found by the check on that same handle.
func fixDurationBug(ctx context.Context, path string, pc *PatchContext) FixResult {
	flag := os.O_RDWR
	if pc.DryRun {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return notFixed(checkError(err), "could not open file: %v", err)
	}
	defer file.Close()

	t, err := extract.NewTarget(path, file, nil)
	if err != nil {
		return notFixed(checkError(err), "%v", err)
	}
	check := checkDurationBug(ctx, t)
	if check.Status != Affected {
		return skipFix(check)
	}
	bug := check.Data.(durationBug)
	fw, si := bug.Firmware, bug.StreamInfo

	comment, ok := markComment(fw.RawComment, fw.FoundAt.Length)
	if !ok {
		return notFixed(check, "firmware comment at %s has no room for %q", fw.FoundAt, DurationBugMarker)
	}

	window := si.TotalSamplesRange()
	field, err := stream.ReadExact(file, window)
	if err != nil {
		return notFixed(check, "could not read total samples: %v", err)
	}
	corrected := si.TotalSamples / 2
	if err := flac.Write36BitUnsignedBigEndianIgnoringFirstOctet(field, corrected); err != nil {
		return notFixed(check, "%v", err)
	}

	if _, err := pc.BackupFile(path); err != nil {
		return notFixed(check, "%v", err)
	}
	err = pc.WouldDo(fmt.Sprintf("set total samples %d -> %d at %s", si.TotalSamples, corrected, window), func() error {
		_, err := file.WriteAt(field, int64(window.Start))
		return err
	})
	if err != nil {
		return notFixed(check, "%v", err)
	}
	err = pc.WouldDo(fmt.Sprintf("mark firmware comment at %s", fw.FoundAt), func() error {
		if _, err := file.WriteAt([]byte(comment), int64(fw.FoundAt.Start)); err != nil {
			return err
		}
		return file.Sync()
	})
	if err != nil {
		return notFixed(check, "%v", err)
	}
	return FixResult{
		Status:      Fixed,
		CheckResult: check,
		Message:     fmt.Sprintf("total samples corrected to %d", corrected),
	}
}

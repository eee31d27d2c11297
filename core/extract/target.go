package extract

import (
	"fmt"
	"io"
	"os"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/audio"
	"github.com/ecoacoustics/emu/core/flac"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/support"
	"github.com/ecoacoustics/emu/core/wave"
)

// File is the byte stream a target reads from. *os.File and *bytes.Reader
// both satisfy it.
type File interface {
	io.ReaderAt
	io.ReadSeeker
}

// Target is one recording being processed. A target is owned by a single
// goroutine; only Support is shared with other targets.
type Target struct {
	Path    string
	File    File
	Length  uint64
	Format  core.FormatID
	Support *support.TargetSupportFiles

	closer io.Closer

	waveDone bool
	wave     *wave.Reader
	waveErr  error

	flacDone bool
	flac     *flac.Reader
	flacErr  error

	tagsDone bool
	tags     map[string]string
	tagsErr  error
}

// NewTarget wraps an already open stream. The container format is sniffed
// from the stream's first bytes.
func NewTarget(path string, f File, sup *support.TargetSupportFiles) (*Target, error) {
	n, err := stream.Length(f)
	if err != nil {
		return nil, fmt.Errorf("could not size %s: %w", path, err)
	}
	format, err := core.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not detect format of %s: %w", path, err)
	}
	if format == core.FmtUnknown {
		format = core.FormatFromExtension(path)
	}
	return &Target{Path: path, File: f, Length: n, Format: format, Support: sup}, nil
}

// Open opens path read-only. The caller must Close the target.
func Open(path string, sup *support.TargetSupportFiles) (*Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	t, err := NewTarget(path, f, sup)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

// Close releases the file opened by Open. It is a no-op for targets built
// with NewTarget.
func (t *Target) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

// Wave returns the WAVE walker for the target, opening it on first use.
func (t *Target) Wave() (*wave.Reader, error) {
	if !t.waveDone {
		t.wave, t.waveErr = wave.Open(t.File, t.Length)
		t.waveDone = true
	}
	return t.wave, t.waveErr
}

// Flac returns the FLAC walker for the target, opening it on first use.
func (t *Target) Flac() (*flac.Reader, error) {
	if !t.flacDone {
		t.flac, t.flacErr = flac.Open(t.File, t.Length)
		t.flacDone = true
	}
	return t.flac, t.flacErr
}

// VorbisTags returns the Vorbis comments of a FLAC target keyed by
// lower-cased name, reading them on first use.
func (t *Target) VorbisTags() (map[string]string, error) {
	if !t.tagsDone {
		t.tags, t.tagsErr = audio.ReadVorbisTags(t.File)
		t.tagsDone = true
	}
	return t.tags, t.tagsErr
}

// IsWave reports whether the target sniffed as WAVE.
func (t *Target) IsWave() bool { return t.Format == core.FmtWAV }

// IsFlac reports whether the target sniffed as FLAC.
func (t *Target) IsFlac() bool { return t.Format == core.FmtFLAC }

// HasChunk reports whether a WAVE target has a top-level chunk with id.
func (t *Target) HasChunk(id string) bool {
	if !t.IsWave() {
		return false
	}
	w, err := t.Wave()
	if err != nil {
		return false
	}
	_, err = w.Find(id)
	return err == nil
}

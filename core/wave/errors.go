package wave

import (
	"errors"
	"fmt"

	"github.com/ecoacoustics/emu/core/stream"
)

var (
	// ErrNotRiff means the stream does not start with a RIFF header.
	ErrNotRiff = stream.NewStructural("not a RIFF file")
	// ErrNotWave means the RIFF form type is not WAVE.
	ErrNotWave = stream.NewStructural("RIFF form is not WAVE")
	// ErrChunkNotFound is matched by every *NotFoundError.
	ErrChunkNotFound = stream.NewStructural("chunk not found")

	// ErrChunkTruncated means a chunk declares more bytes than its parent holds.
	ErrChunkTruncated = errors.New("chunk extends past its parent")
	// ErrBadFormatChunk means the fmt chunk is too short or inconsistent.
	ErrBadFormatChunk = errors.New("invalid format chunk")
	// ErrTooManyCues means a cue chunk holds more than MaxCues points.
	ErrTooManyCues = errors.New("too many cue points")
	// ErrNotPCM means the audio is compressed.
	ErrNotPCM = errors.New("audio format is not PCM")
)

// NotFoundError reports a named chunk missing from its parent.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("chunk %q not found", e.ID)
}

// Is makes errors.Is(err, ErrChunkNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrChunkNotFound
}

// Structural implements stream.Structural.
func (e *NotFoundError) Structural() bool { return true }

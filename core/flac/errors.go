package flac

import (
	"errors"
	"fmt"

	"github.com/ecoacoustics/emu/core/stream"
)

var (
	// ErrNotFlac means the stream does not start with the fLaC marker.
	ErrNotFlac = stream.NewStructural("not a FLAC file")
	// ErrBlockNotFound is matched by every *BlockNotFoundError.
	ErrBlockNotFound = stream.NewStructural("metadata block not found")
	// ErrCommentNotFound means no Vorbis comment carries the requested key.
	ErrCommentNotFound = stream.NewStructural("vorbis comment not found")

	// ErrBadStreamInfo means the STREAMINFO block is short or invalid.
	ErrBadStreamInfo = errors.New("invalid STREAMINFO block")
	// ErrBadVorbisComment means the comment block lengths are inconsistent.
	ErrBadVorbisComment = errors.New("invalid VORBIS_COMMENT block")
	// ErrTooManyBlocks means the walk hit MaxBlocks without a last-block flag.
	ErrTooManyBlocks = errors.New("too many metadata blocks")
)

// BlockNotFoundError reports a missing metadata block type.
type BlockNotFoundError struct {
	Type BlockType
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("%s block not found", e.Type)
}

// Is makes errors.Is(err, ErrBlockNotFound) true.
func (e *BlockNotFoundError) Is(target error) bool {
	return target == ErrBlockNotFound
}

// Structural implements stream.Structural.
func (e *BlockNotFoundError) Structural() bool { return true }

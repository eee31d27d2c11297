// Package wave walks RIFF/WAVE containers by byte range.
//
// Chunks are located by reading their 8-byte headers only; payloads are
// returned as ranges so that callers read what they need and nothing else.
// Absence of a chunk is a structural error (see stream.IsStructural) because
// it usually means "this vendor format does not apply" rather than a fault.
package wave

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ecoacoustics/emu/core/stream"
)

// Well-known chunk identifiers.
const (
	IDRiff   = "RIFF"
	IDWave   = "WAVE"
	IDFormat = "fmt "
	IDData   = "data"
	IDCue    = "cue "
	IDList   = "LIST"
	IDWamd   = "wamd"
	IDID3    = "id3 "
	IDFact   = "fact"

	ListInfo = "INFO"
	ListAdtl = "adtl"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
)

// FindRiff validates the RIFF/WAVE header and returns the range of the RIFF
// body that follows the form tag. The body is bounded by the stream length,
// not the declared RIFF size, so that recordings whose header was never
// finalised can still be walked.
func FindRiff(r io.ReaderAt, size uint64) (stream.Range, error) {
	hdr, err := stream.ReadExact(r, stream.New(0, riffHeaderSize))
	if err != nil {
		if len(hdr) >= 4 && !bytes.Equal(hdr[0:4], []byte(IDRiff)) {
			return stream.Range{}, ErrNotRiff
		}
		if len(hdr) < 4 {
			return stream.Range{}, fmt.Errorf("%w: %w", ErrNotRiff, err)
		}
		return stream.Range{}, fmt.Errorf("%w: %w", ErrNotWave, err)
	}
	if !bytes.Equal(hdr[0:4], []byte(IDRiff)) {
		return stream.Range{}, ErrNotRiff
	}
	if !bytes.Equal(hdr[8:12], []byte(IDWave)) || size < riffHeaderSize {
		return stream.Range{}, ErrNotWave
	}
	return stream.New(riffHeaderSize, size-riffHeaderSize), nil
}

// DeclaredRiffSize returns the size field of the RIFF header.
func DeclaredRiffSize(r io.ReaderAt) (uint32, error) {
	b, err := stream.ReadExact(r, stream.New(4, 4))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Reader walks one WAVE stream.
type Reader struct {
	r    io.ReaderAt
	size uint64
	body stream.Range
}

// Open validates the RIFF header of r, whose total length is size.
func Open(r io.ReaderAt, size uint64) (*Reader, error) {
	body, err := FindRiff(r, size)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, size: size, body: body}, nil
}

// Size returns the length of the underlying stream.
func (w *Reader) Size() uint64 { return w.size }

// Body returns the RIFF body range.
func (w *Reader) Body() stream.Range { return w.body }

// Chunks lists every top-level chunk.
func (w *Reader) Chunks() ([]Chunk, error) {
	return Chunks(w.r, w.body)
}

// Find returns the first top-level chunk with the given id.
func (w *Reader) Find(id string) (Chunk, error) {
	return FindChunk(w.r, w.body, id)
}

// List returns the first LIST chunk of the given list type. The returned
// chunk's range excludes the 4-byte list type.
func (w *Reader) List(listType string) (Chunk, error) {
	return FindList(w.r, w.body, listType)
}

// Format decodes the fmt chunk.
func (w *Reader) Format() (Format, error) {
	c, err := w.Find(IDFormat)
	if err != nil {
		return Format{}, err
	}
	return ReadFormat(w.r, c)
}

// Data returns the data chunk. Its payload is never read.
func (w *Reader) Data() (Chunk, error) {
	return w.Find(IDData)
}

// Cues decodes the cue chunk and decorates cues from LIST/adtl when present.
func (w *Reader) Cues() ([]Cue, error) {
	c, err := w.Find(IDCue)
	if err != nil {
		return nil, err
	}
	cues, cueErr := ReadCues(w.r, c)

	adtl, err := w.List(ListAdtl)
	if err == nil {
		if err := LabelCues(w.r, adtl, cues); err != nil && cueErr == nil {
			cueErr = err
		}
	}
	return cues, cueErr
}

// Info returns all LIST/INFO entries.
func (w *Reader) Info() ([]InfoEntry, error) {
	list, err := w.List(ListInfo)
	if err != nil {
		return nil, err
	}
	return ReadInfo(w.r, list)
}

// InfoValue returns one LIST/INFO entry.
func (w *Reader) InfoValue(id string) (InfoEntry, error) {
	list, err := w.List(ListInfo)
	if err != nil {
		return InfoEntry{}, err
	}
	return FindInfo(w.r, list, id)
}

// ReaderAt exposes the underlying stream for decoders keyed off chunks.
func (w *Reader) ReaderAt() io.ReaderAt { return w.r }

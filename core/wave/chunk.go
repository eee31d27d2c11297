package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ecoacoustics/emu/core/stream"
)

// Chunk is one RIFF chunk. Range covers the payload only and is clamped to
// the parent; DeclaredSize is the size field as written.
type Chunk struct {
	ID           string
	Offset       uint64 // offset of the chunk header
	DeclaredSize uint32
	Range        stream.Range
}

// Truncated reports whether the chunk declares more bytes than exist.
func (c Chunk) Truncated() bool {
	return c.Offset+chunkHeaderSize+uint64(c.DeclaredSize) > c.Range.End()
}

// Next returns the offset of the header following c, honouring the even
// padding rule.
func (c Chunk) Next() uint64 {
	size := uint64(c.DeclaredSize)
	return c.Offset + chunkHeaderSize + size + size%2
}

// Walk calls fn for each chunk header found in parent, in order, until fn
// returns false or the parent is exhausted. A chunk whose declared size
// overruns the parent is passed to fn clamped and ends the walk.
func Walk(r io.ReaderAt, parent stream.Range, fn func(Chunk) bool) error {
	pos := parent.Start
	end := parent.End()
	var hdr [chunkHeaderSize]byte
	for pos+chunkHeaderSize <= end {
		n, err := r.ReadAt(hdr[:], int64(pos))
		if n < chunkHeaderSize {
			if err == nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read chunk header at %d: %w", pos, err)
		}
		size := binary.LittleEndian.Uint32(hdr[4:8])
		c := Chunk{
			ID:           string(hdr[0:4]),
			Offset:       pos,
			DeclaredSize: size,
			Range:        stream.New(pos+chunkHeaderSize, uint64(size)).Clamp(end),
		}
		if !fn(c) || c.Truncated() {
			return nil
		}
		pos = c.Next()
	}
	return nil
}

// Chunks lists every chunk in parent.
func Chunks(r io.ReaderAt, parent stream.Range) ([]Chunk, error) {
	var out []Chunk
	err := Walk(r, parent, func(c Chunk) bool {
		out = append(out, c)
		return true
	})
	return out, err
}

// FindChunk returns the first chunk in parent with the given id.
func FindChunk(r io.ReaderAt, parent stream.Range, id string) (Chunk, error) {
	var found *Chunk
	err := Walk(r, parent, func(c Chunk) bool {
		if c.ID == id {
			found = &c
			return false
		}
		return true
	})
	if err != nil {
		return Chunk{}, err
	}
	if found == nil {
		return Chunk{}, &NotFoundError{ID: id}
	}
	return *found, nil
}

// FindList returns the first LIST chunk in parent whose list type matches.
// The returned range starts after the list type.
func FindList(r io.ReaderAt, parent stream.Range, listType string) (Chunk, error) {
	var (
		found   *Chunk
		readErr error
	)
	err := Walk(r, parent, func(c Chunk) bool {
		if c.ID != IDList || c.Range.Length < 4 {
			return true
		}
		kind, err := stream.ReadExact(r, stream.New(c.Range.Start, 4))
		if err != nil {
			readErr = err
			return false
		}
		if string(kind) != listType {
			return true
		}
		body, _ := c.Range.From(4)
		c.Range = body
		found = &c
		return false
	})
	if err != nil {
		return Chunk{}, err
	}
	if readErr != nil {
		return Chunk{}, readErr
	}
	if found == nil {
		return Chunk{}, &NotFoundError{ID: IDList + "/" + listType}
	}
	return *found, nil
}

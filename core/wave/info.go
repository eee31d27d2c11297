package wave

import (
	"fmt"
	"io"
	"strings"

	"github.com/ecoacoustics/emu/core/stream"
)

// maxInfoValue bounds a single LIST/INFO value read.
const maxInfoValue = 64 * 1024

// InfoEntry is one LIST/INFO sub-chunk.
type InfoEntry struct {
	ID    string
	Value string
	Range stream.Range
}

// ReadInfo returns every entry of the LIST/INFO chunk list.
func ReadInfo(r io.ReaderAt, list Chunk) ([]InfoEntry, error) {
	var (
		out     []InfoEntry
		readErr error
	)
	err := Walk(r, list.Range, func(sub Chunk) bool {
		e, err := readInfoEntry(r, sub)
		if err != nil {
			readErr = err
			return false
		}
		out = append(out, e)
		return true
	})
	if err != nil {
		return out, err
	}
	return out, readErr
}

// FindInfo returns the first LIST/INFO entry with the given id.
func FindInfo(r io.ReaderAt, list Chunk, id string) (InfoEntry, error) {
	c, err := FindChunk(r, list.Range, id)
	if err != nil {
		return InfoEntry{}, err
	}
	return readInfoEntry(r, c)
}

func readInfoEntry(r io.ReaderAt, c Chunk) (InfoEntry, error) {
	b, err := stream.ReadUpTo(r, c.Range, maxInfoValue)
	if err != nil {
		return InfoEntry{}, fmt.Errorf("read INFO %q: %w", c.ID, err)
	}
	return InfoEntry{
		ID:    c.ID,
		Value: strings.TrimRight(string(b), "\x00 "),
		Range: c.Range,
	}, nil
}

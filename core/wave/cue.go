package wave

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ecoacoustics/emu/core/stream"
)

const cuePointSize = 24

// Cue is one cue point, optionally decorated from LIST/adtl.
type Cue struct {
	ID           uint32
	Position     uint32
	DataChunkID  string
	ChunkStart   uint32
	BlockStart   uint32
	SampleOffset uint32

	Label string
	Note  string
	Text  string
}

// Seconds returns the cue's offset into the audio in seconds.
func (c Cue) Seconds(sampleRate uint32) *big.Rat {
	if sampleRate == 0 {
		return new(big.Rat)
	}
	return big.NewRat(int64(c.SampleOffset), int64(sampleRate))
}

// MaxCues bounds the cue points decoded from one chunk.
const MaxCues = 4096

// cueBatch is the number of cue points read per ReadAt.
const cueBatch = stream.SniffSize / cuePointSize

// ReadCues decodes the cue chunk. When the declared cue count exceeds the
// chunk, the cues that fit are returned with ErrChunkTruncated. At most
// MaxCues are decoded; a larger table returns those with ErrTooManyCues.
func ReadCues(r io.ReaderAt, c Chunk) ([]Cue, error) {
	if c.Range.Length < 4 {
		return nil, fmt.Errorf("cue chunk of %d bytes: %w", c.Range.Length, ErrChunkTruncated)
	}
	head, err := stream.ReadExact(r, stream.New(c.Range.Start, 4))
	if err != nil {
		return nil, err
	}
	declared := uint64(binary.LittleEndian.Uint32(head))
	fits := (c.Range.Length - 4) / cuePointSize
	count := min(declared, fits, MaxCues)

	le := binary.LittleEndian
	cues := make([]Cue, 0, count)
	for done := uint64(0); done < count; {
		n := min(count-done, cueBatch)
		body, err := stream.ReadExact(r, stream.New(c.Range.Start+4+done*cuePointSize, n*cuePointSize))
		if err != nil {
			return cues, err
		}
		for i := uint64(0); i < n; i++ {
			p := body[i*cuePointSize : (i+1)*cuePointSize]
			cues = append(cues, Cue{
				ID:           le.Uint32(p[0:4]),
				Position:     le.Uint32(p[4:8]),
				DataChunkID:  string(p[8:12]),
				ChunkStart:   le.Uint32(p[12:16]),
				BlockStart:   le.Uint32(p[16:20]),
				SampleOffset: le.Uint32(p[20:24]),
			})
		}
		done += n
	}
	switch {
	case min(declared, fits) > MaxCues:
		return cues, fmt.Errorf("cue chunk declares %d cues: %w", declared, ErrTooManyCues)
	case declared > fits:
		return cues, fmt.Errorf("cue chunk declares %d cues, room for %d: %w", declared, fits, ErrChunkTruncated)
	}
	return cues, nil
}

// LabelCues fills Label, Note and Text of cues from the labl, note and ltxt
// sub-chunks of a LIST/adtl chunk. Cues without a matching entry are left
// untouched.
func LabelCues(r io.ReaderAt, adtl Chunk, cues []Cue) error {
	if len(cues) == 0 {
		return nil
	}
	byID := make(map[uint32]*Cue, len(cues))
	for i := range cues {
		byID[cues[i].ID] = &cues[i]
	}

	var readErr error
	err := Walk(r, adtl.Range, func(sub Chunk) bool {
		if sub.Range.Length < 4 {
			return true
		}
		b, err := stream.ReadUpTo(r, sub.Range, stream.SniffSize)
		if err != nil {
			readErr = err
			return false
		}
		cue, ok := byID[binary.LittleEndian.Uint32(b[0:4])]
		if !ok {
			return true
		}
		switch sub.ID {
		case "labl":
			cue.Label = cString(b[4:])
		case "note":
			cue.Note = cString(b[4:])
		case "ltxt":
			// cue id, sample length, purpose, country, language, dialect, code page
			if len(b) > 20 {
				cue.Text = cString(b[20:])
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	return readErr
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Package flac walks FLAC metadata blocks by byte range.
//
// Only the metadata section is touched; audio frames are never read. The
// walk is bounded by MaxBlocks so that a corrupt header chain cannot loop.
package flac

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ecoacoustics/emu/core/stream"
)

// Marker is the FLAC stream signature.
const Marker = "fLaC"

// MaxBlocks bounds metadata block iteration.
const MaxBlocks = 20

const blockHeaderSize = 4

// BlockType is the 7-bit metadata block type.
type BlockType uint8

// Metadata block types.
const (
	BlockStreamInfo    BlockType = 0
	BlockPadding       BlockType = 1
	BlockApplication   BlockType = 2
	BlockSeekTable     BlockType = 3
	BlockVorbisComment BlockType = 4
	BlockCueSheet      BlockType = 5
	BlockPicture       BlockType = 6
)

var blockNames = map[BlockType]string{
	BlockStreamInfo:    "STREAMINFO",
	BlockPadding:       "PADDING",
	BlockApplication:   "APPLICATION",
	BlockSeekTable:     "SEEKTABLE",
	BlockVorbisComment: "VORBIS_COMMENT",
	BlockCueSheet:      "CUESHEET",
	BlockPicture:       "PICTURE",
}

func (t BlockType) String() string {
	if n, ok := blockNames[t]; ok {
		return n
	}
	return fmt.Sprintf("block type %d", uint8(t))
}

// Block is one metadata block. Range covers the payload, clamped to the
// stream.
type Block struct {
	IsLast bool
	Type   BlockType
	Size   uint32
	Offset uint64 // offset of the block header
	Range  stream.Range
}

// Truncated reports whether the block declares more bytes than exist.
func (b Block) Truncated() bool {
	return uint64(b.Size) > b.Range.Length
}

// CheckSignature verifies the fLaC marker at offset 0.
func CheckSignature(r io.ReaderAt) error {
	b, err := stream.ReadExact(r, stream.New(0, 4))
	if err != nil || !bytes.Equal(b, []byte(Marker)) {
		return ErrNotFlac
	}
	return nil
}

// Reader walks the metadata of one FLAC stream.
type Reader struct {
	r    io.ReaderAt
	size uint64
}

// Open verifies the signature of r, whose total length is size.
func Open(r io.ReaderAt, size uint64) (*Reader, error) {
	if err := CheckSignature(r); err != nil {
		return nil, err
	}
	return &Reader{r: r, size: size}, nil
}

// Size returns the length of the underlying stream.
func (f *Reader) Size() uint64 { return f.size }

// ReaderAt exposes the underlying stream.
func (f *Reader) ReaderAt() io.ReaderAt { return f.r }

// Walk calls fn for each metadata block until fn returns false, the last
// block is seen, or MaxBlocks blocks were visited.
func (f *Reader) Walk(fn func(Block) bool) error {
	pos := uint64(len(Marker))
	for i := 0; i < MaxBlocks; i++ {
		hdr, err := stream.ReadExact(f.r, stream.New(pos, blockHeaderSize))
		if err != nil {
			return fmt.Errorf("block header at %d: %w", pos, err)
		}
		isLast, kind, size := ReadBlockHeader(hdr)
		b := Block{
			IsLast: isLast,
			Type:   BlockType(kind),
			Size:   size,
			Offset: pos,
			Range:  stream.New(pos+blockHeaderSize, uint64(size)).Clamp(f.size),
		}
		if !fn(b) || b.IsLast || b.Truncated() {
			return nil
		}
		pos = b.Range.End()
	}
	return ErrTooManyBlocks
}

// Blocks lists the metadata blocks.
func (f *Reader) Blocks() ([]Block, error) {
	var out []Block
	err := f.Walk(func(b Block) bool {
		out = append(out, b)
		return true
	})
	return out, err
}

// FindBlock returns the first block of the given type.
func (f *Reader) FindBlock(t BlockType) (Block, error) {
	var found *Block
	err := f.Walk(func(b Block) bool {
		if b.Type == t {
			found = &b
			return false
		}
		return true
	})
	if found != nil {
		return *found, nil
	}
	if err != nil {
		return Block{}, err
	}
	return Block{}, &BlockNotFoundError{Type: t}
}

// AudioOffset returns the offset of the first audio frame, that is the end
// of the last metadata block.
func (f *Reader) AudioOffset() (uint64, error) {
	var end uint64
	err := f.Walk(func(b Block) bool {
		end = b.Range.End()
		return true
	})
	return end, err
}

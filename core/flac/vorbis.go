package flac

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/ecoacoustics/emu/core/stream"
)

// maxCommentLength bounds one comment read; sensor comments are short.
const maxCommentLength = 64 * 1024

// Comment is one Vorbis comment. Range is the exact byte range of Text in
// the stream, excluding its length prefix.
type Comment struct {
	Text  string
	Range stream.Range
}

// Key returns the part of the comment before '='.
func (c Comment) Key() string {
	k, _, _ := strings.Cut(c.Text, "=")
	return k
}

// Value returns the part of the comment after '='.
func (c Comment) Value() string {
	_, v, _ := strings.Cut(c.Text, "=")
	return v
}

// VorbisComments is a decoded VORBIS_COMMENT block.
type VorbisComments struct {
	Vendor   string
	Comments []Comment
}

// walkComments visits each comment of the VORBIS_COMMENT block until fn
// returns false.
func walkComments(r io.ReaderAt, blk Block, fn func(Comment) bool) (vendor string, err error) {
	body := blk.Range
	pos := body.Start
	end := body.End()

	readU32 := func() (uint32, error) {
		if pos+4 > end {
			return 0, fmt.Errorf("%w: length prefix at %d past block end", ErrBadVorbisComment, pos)
		}
		b, err := stream.ReadExact(r, stream.New(pos, 4))
		if err != nil {
			return 0, err
		}
		pos += 4
		return binary.LittleEndian.Uint32(b), nil
	}
	readText := func(n uint32) (stream.Range, string, error) {
		rg := stream.New(pos, uint64(n))
		if rg.End() > end {
			return rg, "", fmt.Errorf("%w: %d-byte string at %d past block end", ErrBadVorbisComment, n, pos)
		}
		if n > maxCommentLength {
			return rg, "", fmt.Errorf("%w: %d-byte string too long", ErrBadVorbisComment, n)
		}
		b, err := stream.ReadExact(r, rg)
		if err != nil {
			return rg, "", err
		}
		pos = rg.End()
		return rg, string(b), nil
	}

	vendorLen, err := readU32()
	if err != nil {
		return "", err
	}
	_, vendor, err = readText(vendorLen)
	if err != nil {
		return "", err
	}
	count, err := readU32()
	if err != nil {
		return vendor, err
	}
	for i := uint32(0); i < count; i++ {
		n, err := readU32()
		if err != nil {
			return vendor, err
		}
		rg, text, err := readText(n)
		if err != nil {
			return vendor, err
		}
		if !fn(Comment{Text: text, Range: rg}) {
			return vendor, nil
		}
	}
	return vendor, nil
}

// ReadComments decodes the whole VORBIS_COMMENT block.
func (f *Reader) ReadComments() (VorbisComments, error) {
	blk, err := f.FindBlock(BlockVorbisComment)
	if err != nil {
		return VorbisComments{}, err
	}
	var vc VorbisComments
	vc.Vendor, err = walkComments(f.r, blk, func(c Comment) bool {
		vc.Comments = append(vc.Comments, c)
		return true
	})
	return vc, err
}

// FindComment returns the first comment whose text starts with prefix
// (typically "Key="). The scan stops at the first match.
func (f *Reader) FindComment(prefix string) (Comment, error) {
	blk, err := f.FindBlock(BlockVorbisComment)
	if err != nil {
		return Comment{}, err
	}
	var found *Comment
	_, err = walkComments(f.r, blk, func(c Comment) bool {
		if strings.HasPrefix(c.Text, prefix) {
			found = &c
			return false
		}
		return true
	})
	if found != nil {
		return *found, nil
	}
	if err != nil {
		return Comment{}, err
	}
	return Comment{}, fmt.Errorf("%q: %w", prefix, ErrCommentNotFound)
}

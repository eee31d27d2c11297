// Package stream provides byte-range addressing over seekable streams.
//
// Every read in the container walkers goes through a Range so that no
// operation ever buffers a whole file: headers are sniffed through a small
// window and bulk payloads (audio data) are described, never read.
package stream

import (
	"errors"
	"fmt"
	"io"
)

// SniffSize bounds reads used for header and tag discovery.
const SniffSize = 4096

var (
	// ErrOutOfRange is returned when a sub-range does not fit in its parent.
	ErrOutOfRange = errors.New("range out of bounds")
	// ErrTruncated is returned when the stream ends before a range does.
	ErrTruncated = errors.New("stream truncated")
)

// Range is a window of Length bytes starting at Start within one stream.
type Range struct {
	Start  uint64
	Length uint64
}

// New returns the range [start, start+length).
func New(start, length uint64) Range {
	return Range{Start: start, Length: length}
}

// End returns the offset one past the last byte of r.
func (r Range) End() uint64 {
	return r.Start + r.Length
}

// IsEmpty reports whether r has no bytes.
func (r Range) IsEmpty() bool {
	return r.Length == 0
}

// Contains reports whether other lies entirely within r.
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End() <= r.End()
}

// Slice returns the range of length bytes starting subStart bytes into r.
func (r Range) Slice(subStart, length uint64) (Range, error) {
	if subStart > r.Length || length > r.Length-subStart {
		return Range{}, fmt.Errorf("slice [%d,+%d) of %s: %w", subStart, length, r, ErrOutOfRange)
	}
	return Range{Start: r.Start + subStart, Length: length}, nil
}

// From returns the tail of r starting subStart bytes in.
func (r Range) From(subStart uint64) (Range, error) {
	if subStart > r.Length {
		return Range{}, fmt.Errorf("tail from %d of %s: %w", subStart, r, ErrOutOfRange)
	}
	return r.Slice(subStart, r.Length-subStart)
}

// Clamp returns r truncated so that it ends no later than limit.
func (r Range) Clamp(limit uint64) Range {
	if r.Start >= limit {
		return Range{Start: limit}
	}
	if r.End() > limit {
		return Range{Start: r.Start, Length: limit - r.Start}
	}
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End())
}

// Length returns the size of s without moving its read position.
func Length(s io.Seeker) (uint64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return uint64(end), nil
}

// ReadExact reads exactly the bytes of rg. It fails with ErrTruncated when
// the stream holds fewer bytes than rg describes.
func ReadExact(r io.ReaderAt, rg Range) ([]byte, error) {
	buf := make([]byte, rg.Length)
	n, err := r.ReadAt(buf, int64(rg.Start))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return buf[:n], fmt.Errorf("read %s: got %d bytes: %w", rg, n, ErrTruncated)
	}
	return buf[:n], fmt.Errorf("read %s: %w", rg, err)
}

// SeekAndReadExact seeks to offset and reads length bytes.
func SeekAndReadExact(r io.ReadSeeker, offset, length uint64) ([]byte, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to %d: %w", offset, err)
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return buf[:n], fmt.Errorf("read %d bytes at %d: got %d: %w", length, offset, n, ErrTruncated)
		}
		return buf[:n], fmt.Errorf("read %d bytes at %d: %w", length, offset, err)
	}
	return buf, nil
}

// ReadUpTo reads at most max bytes of rg, returning fewer only when rg is
// shorter. It is used for sniffing headers of chunks that may be large.
func ReadUpTo(r io.ReaderAt, rg Range, max uint64) ([]byte, error) {
	if rg.Length > max {
		rg.Length = max
	}
	return ReadExact(r, rg)
}

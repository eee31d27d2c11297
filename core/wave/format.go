package wave

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/ecoacoustics/emu/core/stream"
)

// Audio format codes.
const (
	FormatPCM        uint16 = 0x0001
	FormatFloat      uint16 = 0x0003
	FormatExtensible uint16 = 0xFFFE
)

const (
	minFormatSize        = 16
	extensibleFormatSize = 40
)

// pcmSubFormat is KSDATAFORMAT_SUBTYPE_PCM as stored on disk.
var pcmSubFormat = []byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// Format is the decoded fmt chunk.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16

	// Set only for WAVE_FORMAT_EXTENSIBLE.
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          [16]byte
}

// ReadFormat decodes the fmt chunk c.
func ReadFormat(r io.ReaderAt, c Chunk) (Format, error) {
	if c.Range.Length < minFormatSize {
		return Format{}, fmt.Errorf("%w: %d bytes", ErrBadFormatChunk, c.Range.Length)
	}
	b, err := stream.ReadUpTo(r, c.Range, extensibleFormatSize)
	if err != nil {
		return Format{}, err
	}
	le := binary.LittleEndian
	f := Format{
		AudioFormat:   le.Uint16(b[0:2]),
		Channels:      le.Uint16(b[2:4]),
		SampleRate:    le.Uint32(b[4:8]),
		ByteRate:      le.Uint32(b[8:12]),
		BlockAlign:    le.Uint16(b[12:14]),
		BitsPerSample: le.Uint16(b[14:16]),
	}
	if f.AudioFormat == FormatExtensible && len(b) >= extensibleFormatSize {
		f.ValidBitsPerSample = le.Uint16(b[18:20])
		f.ChannelMask = le.Uint32(b[20:24])
		copy(f.SubFormat[:], b[24:40])
	}
	return f, nil
}

// IsPCM reports whether the format carries integer PCM samples.
func (f Format) IsPCM() bool {
	switch f.AudioFormat {
	case FormatPCM:
		return true
	case FormatExtensible:
		return bytes.Equal(f.SubFormat[:], pcmSubFormat)
	}
	return false
}

// ValidatePCM returns ErrNotPCM for compressed audio and ErrBadFormatChunk
// when the fields cannot describe any frame.
func (f Format) ValidatePCM() error {
	if !f.IsPCM() {
		return fmt.Errorf("%w: format code 0x%04X", ErrNotPCM, f.AudioFormat)
	}
	if f.Channels == 0 || f.BitsPerSample == 0 || f.SampleRate == 0 {
		return fmt.Errorf("%w: channels=%d bits=%d rate=%d", ErrBadFormatChunk, f.Channels, f.BitsPerSample, f.SampleRate)
	}
	return nil
}

// SampleCount returns the number of sample frames held by the data chunk,
// as an exact rational.
func SampleCount(f Format, data Chunk) (*big.Rat, error) {
	if err := f.ValidatePCM(); err != nil {
		return nil, err
	}
	bitsPerFrame := new(big.Int).SetUint64(uint64(f.Channels) * uint64(f.BitsPerSample))
	bits := new(big.Int).SetUint64(data.Range.Length)
	bits.Mul(bits, big.NewInt(8))
	return new(big.Rat).SetFrac(bits, bitsPerFrame), nil
}

// Duration returns the data chunk's length in seconds as an exact rational.
func Duration(f Format, data Chunk) (*big.Rat, error) {
	samples, err := SampleCount(f, data)
	if err != nil {
		return nil, err
	}
	rate := new(big.Rat).SetInt64(int64(f.SampleRate))
	return samples.Quo(samples, rate), nil
}

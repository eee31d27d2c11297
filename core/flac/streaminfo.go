package flac

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ecoacoustics/emu/core/stream"
)

// StreamInfoSize is the fixed payload length of a STREAMINFO block.
const StreamInfoSize = 34

// totalSamplesOffset is where the 5-byte window holding the 36-bit total
// sample count starts inside the STREAMINFO payload. Its first byte also
// carries the low 4 bits of bits-per-sample.
const totalSamplesOffset = 13

// StreamInfo is the decoded STREAMINFO block.
//
//	block_size_min  16   block_size_max  16
//	frame_size_min  24   frame_size_max  24
//	sample_rate     20   channels-1       3
//	bits_per_sample-1 5  total_samples   36
//	md5            128
type StreamInfo struct {
	MinBlockSize  uint16
	MaxBlockSize  uint16
	MinFrameSize  uint32
	MaxFrameSize  uint32
	SampleRate    uint32
	Channels      uint8
	BitsPerSample uint8
	TotalSamples  uint64
	MD5           [16]byte

	// Range is the payload range of the block.
	Range stream.Range
}

// DecodeStreamInfo decodes a 34-byte STREAMINFO payload.
func DecodeStreamInfo(b []byte) (StreamInfo, error) {
	if len(b) < StreamInfoSize {
		return StreamInfo{}, fmt.Errorf("%w: %d bytes", ErrBadStreamInfo, len(b))
	}
	si := StreamInfo{
		MinBlockSize:  binary.BigEndian.Uint16(b[0:2]),
		MaxBlockSize:  binary.BigEndian.Uint16(b[2:4]),
		MinFrameSize:  Read24BitBigEndian(b[4:7]),
		MaxFrameSize:  Read24BitBigEndian(b[7:10]),
		SampleRate:    Read20BitBigEndian(b[10:13]),
		Channels:      (b[12]>>1)&0x07 + 1,
		BitsPerSample: ((b[12]&0x01)<<4 | b[13]>>4) + 1,
		TotalSamples:  Read36BitUnsignedBigEndianIgnoringFirstOctet(b[totalSamplesOffset : totalSamplesOffset+5]),
	}
	copy(si.MD5[:], b[18:34])
	return si, nil
}

// ReadStreamInfo locates and decodes the STREAMINFO block.
func (f *Reader) ReadStreamInfo() (StreamInfo, error) {
	blk, err := f.FindBlock(BlockStreamInfo)
	if err != nil {
		return StreamInfo{}, err
	}
	if blk.Range.Length < StreamInfoSize {
		return StreamInfo{}, fmt.Errorf("%w: payload of %d bytes", ErrBadStreamInfo, blk.Range.Length)
	}
	b, err := stream.ReadExact(f.r, stream.New(blk.Range.Start, StreamInfoSize))
	if err != nil {
		return StreamInfo{}, err
	}
	si, err := DecodeStreamInfo(b)
	if err != nil {
		return StreamInfo{}, err
	}
	si.Range = blk.Range
	return si, nil
}

// TotalSamplesRange returns the 5-byte window holding the 36-bit total
// sample count.
func (si StreamInfo) TotalSamplesRange() stream.Range {
	return stream.New(si.Range.Start+totalSamplesOffset, 5)
}

// Duration returns TotalSamples / SampleRate as an exact rational.
func (si StreamInfo) Duration() (*big.Rat, error) {
	if si.SampleRate == 0 {
		return nil, fmt.Errorf("%w: sample rate is zero", ErrBadStreamInfo)
	}
	return new(big.Rat).SetFrac(
		new(big.Int).SetUint64(si.TotalSamples),
		new(big.Int).SetUint64(uint64(si.SampleRate)),
	), nil
}

// BitRate returns bits per second of the decoded stream.
func (si StreamInfo) BitRate() uint64 {
	return uint64(si.SampleRate) * uint64(si.Channels) * uint64(si.BitsPerSample)
}

// Package fixture builds small WAVE and FLAC files for tests.
package fixture

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data into dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ─── WAVE ────────────────────────────────────────────────────────────────────

// Wave assembles a RIFF/WAVE file chunk by chunk.
type Wave struct {
	body bytes.Buffer
}

// NewWave returns an empty WAVE builder.
func NewWave() *Wave { return &Wave{} }

// Chunk appends a raw chunk, padding odd payloads.
func (w *Wave) Chunk(id string, payload []byte) *Wave {
	w.body.Write(Chunk(id, payload))
	return w
}

// Format appends a PCM fmt chunk.
func (w *Wave) Format(channels, sampleRate, bits int) *Wave {
	return w.Chunk("fmt ", FormatPayload(1, channels, sampleRate, bits))
}

// Data appends a data chunk of n zero bytes.
func (w *Wave) Data(n int) *Wave {
	return w.Chunk("data", make([]byte, n))
}

// List appends a LIST chunk of the given type built from sub-chunks.
func (w *Wave) List(listType string, subs ...[]byte) *Wave {
	return w.Chunk("LIST", ListPayload(listType, subs...))
}

// Bytes returns the finished file with a correct RIFF size.
func (w *Wave) Bytes() []byte {
	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(w.body.Len()+4))
	out.WriteString("WAVE")
	out.Write(w.body.Bytes())
	return out.Bytes()
}

// Chunk encodes one RIFF chunk.
func Chunk(id string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// FormatPayload encodes a 16-byte fmt payload.
func FormatPayload(code, channels, sampleRate, bits int) []byte {
	blockAlign := channels * bits / 8
	var b bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&b, le, uint16(code))
	_ = binary.Write(&b, le, uint16(channels))
	_ = binary.Write(&b, le, uint32(sampleRate))
	_ = binary.Write(&b, le, uint32(sampleRate*blockAlign))
	_ = binary.Write(&b, le, uint16(blockAlign))
	_ = binary.Write(&b, le, uint16(bits))
	return b.Bytes()
}

// ListPayload encodes a LIST payload: list type then sub-chunks.
func ListPayload(listType string, subs ...[]byte) []byte {
	var b bytes.Buffer
	b.WriteString(listType)
	for _, s := range subs {
		b.Write(s)
	}
	return b.Bytes()
}

// CuePoint describes one cue for CuePayload.
type CuePoint struct {
	ID     uint32
	Sample uint32
}

// CuePayload encodes a cue chunk payload.
func CuePayload(cues ...CuePoint) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&b, le, uint32(len(cues)))
	for _, c := range cues {
		_ = binary.Write(&b, le, c.ID)
		_ = binary.Write(&b, le, c.Sample)
		b.WriteString("data")
		_ = binary.Write(&b, le, uint32(0))
		_ = binary.Write(&b, le, uint32(0))
		_ = binary.Write(&b, le, c.Sample)
	}
	return b.Bytes()
}

// LabelChunk encodes an adtl labl or note sub-chunk.
func LabelChunk(id string, cueID uint32, text string) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, cueID)
	b.WriteString(text)
	b.WriteByte(0)
	return Chunk(id, b.Bytes())
}

// WamdEntry encodes one wamd entry.
func WamdEntry(tag uint16, value []byte) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, tag)
	_ = binary.Write(&b, binary.LittleEndian, uint16(len(value)))
	b.Write(value)
	return b.Bytes()
}

// ─── FLAC ────────────────────────────────────────────────────────────────────

// StreamInfo holds the STREAMINFO fields a test cares about.
type StreamInfo struct {
	BlockSize     uint16
	SampleRate    uint32
	Channels      uint8
	BitsPerSample uint8
	TotalSamples  uint64
}

// DefaultStreamInfo is a plausible mono 16-bit 22.05 kHz stream.
var DefaultStreamInfo = StreamInfo{
	BlockSize:     4096,
	SampleRate:    22050,
	Channels:      1,
	BitsPerSample: 16,
	TotalSamples:  22050 * 60,
}

// Flac assembles a FLAC file holding only metadata blocks and optional
// trailing bytes standing in for audio frames.
type Flac struct {
	Info     StreamInfo
	Vendor   string
	Comments []string
	Padding  int
	Audio    []byte
}

// NewFlac returns a builder with DefaultStreamInfo and no comments.
func NewFlac() *Flac {
	return &Flac{Info: DefaultStreamInfo, Vendor: "reference libFLAC 1.3.2 20170101"}
}

// StreamInfoPayload encodes a 34-byte STREAMINFO payload.
func StreamInfoPayload(si StreamInfo) []byte {
	b := make([]byte, 34)
	binary.BigEndian.PutUint16(b[0:2], si.BlockSize)
	binary.BigEndian.PutUint16(b[2:4], si.BlockSize)
	// frame sizes left unknown (zero)
	sr := si.SampleRate
	b[10] = byte(sr >> 12)
	b[11] = byte(sr >> 4)
	ch := si.Channels - 1
	bps := si.BitsPerSample - 1
	b[12] = byte(sr&0x0F)<<4 | (ch&0x07)<<1 | (bps>>4)&0x01
	b[13] = (bps&0x0F)<<4 | byte(si.TotalSamples>>32)&0x0F
	binary.BigEndian.PutUint32(b[14:18], uint32(si.TotalSamples))
	for i := 18; i < 34; i++ {
		b[i] = byte(i)
	}
	return b
}

// VorbisPayload encodes a VORBIS_COMMENT payload.
func VorbisPayload(vendor string, comments ...string) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&b, le, uint32(len(vendor)))
	b.WriteString(vendor)
	_ = binary.Write(&b, le, uint32(len(comments)))
	for _, c := range comments {
		_ = binary.Write(&b, le, uint32(len(c)))
		b.WriteString(c)
	}
	return b.Bytes()
}

// Bytes returns the finished file.
func (f *Flac) Bytes() []byte {
	type block struct {
		kind    byte
		payload []byte
	}
	blocks := []block{{0, StreamInfoPayload(f.Info)}}
	if f.Comments != nil {
		blocks = append(blocks, block{4, VorbisPayload(f.Vendor, f.Comments...)})
	}
	if f.Padding > 0 {
		blocks = append(blocks, block{1, make([]byte, f.Padding)})
	}

	var out bytes.Buffer
	out.WriteString("fLaC")
	for i, blk := range blocks {
		kind := blk.kind
		if i == len(blocks)-1 {
			kind |= 0x80
		}
		n := len(blk.payload)
		out.Write([]byte{kind, byte(n >> 16), byte(n >> 8), byte(n)})
		out.Write(blk.payload)
	}
	out.Write(f.Audio)
	return out.Bytes()
}

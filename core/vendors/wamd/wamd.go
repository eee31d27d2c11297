// Package wamd decodes the Wildlife Acoustics "wamd" metadata chunk that
// Song Meter recorders embed in WAVE files.
//
// The chunk is a sequence of little-endian {type u16, length u16, value}
// entries. Unknown types are skipped so that newer firmware still decodes.
package wamd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/wave"
)

// Tag is a WAMD entry type.
type Tag uint16

// Known entry types.
const (
	TagVersion        Tag = 0x0000
	TagModel          Tag = 0x0001
	TagSerialNumber   Tag = 0x0002
	TagFirmware       Tag = 0x0003
	TagDeviceName     Tag = 0x0004
	TagStartTime      Tag = 0x0005
	TagGPSFirst       Tag = 0x0006
	TagGPSTrack       Tag = 0x0007
	TagSoftware       Tag = 0x0008
	TagLicenseID      Tag = 0x0009
	TagUserNotes      Tag = 0x000A
	TagAutoID         Tag = 0x000B
	TagManualID       Tag = 0x000C
	TagVoiceNote      Tag = 0x000D
	TagAutoIDStats    Tag = 0x000E
	TagTimeExpansion  Tag = 0x000F
	TagDeviceParams   Tag = 0x0010
	TagDeviceRunState Tag = 0x0011
	TagMicType        Tag = 0x0012
	TagMicSensitivity Tag = 0x0013
	TagPositionLast   Tag = 0x0014
	TagTempInternal   Tag = 0x0015
	TagTempExternal   Tag = 0x0016
	TagHumidity       Tag = 0x0017
	TagLight          Tag = 0x0018
	TagPadding        Tag = 0xFFFF
)

const entryHeaderSize = 4

// maxChunkRead bounds how much of a wamd chunk is decoded. Voice notes can
// make the chunk large; the entries of interest come first.
const maxChunkRead = 1 << 20

// ErrTruncatedEntry means an entry's length runs past the chunk end.
var ErrTruncatedEntry = errors.New("wamd entry truncated")

// Position is a GPS fix.
type Position struct {
	Datum     string
	Latitude  float64
	Longitude float64
	Altitude  *float64
}

// Metadata is a decoded wamd chunk.
type Metadata struct {
	Version        uint16
	Model          string
	SerialNumber   string
	Firmware       string
	DeviceName     string
	StartTime      *time.Time
	Position       *Position
	LastPosition   *Position
	Software       string
	LicenseID      string
	Notes          string
	AutoID         string
	ManualID       string
	TimeExpansion  uint16
	MicTypes       []string
	MicSensitivity []float64
	TempInternal   *float64
	TempExternal   *float64
	Humidity       *float64

	// Skipped lists entry types that were present but not decoded.
	Skipped []Tag
}

// Read locates and decodes the wamd chunk of a WAVE stream.
func Read(w *wave.Reader) (Metadata, error) {
	c, err := w.Find(wave.IDWamd)
	if err != nil {
		return Metadata{}, err
	}
	b, err := stream.ReadUpTo(w.ReaderAt(), c.Range, maxChunkRead)
	if err != nil {
		return Metadata{}, fmt.Errorf("read wamd chunk: %w", err)
	}
	return Decode(b)
}

// Decode parses a wamd payload. On a truncated entry it returns everything
// decoded so far together with ErrTruncatedEntry.
func Decode(b []byte) (Metadata, error) {
	var (
		m    Metadata
		errs []error
	)
	le := binary.LittleEndian
	for pos := 0; pos+entryHeaderSize <= len(b); {
		tag := Tag(le.Uint16(b[pos:]))
		length := int(le.Uint16(b[pos+2:]))
		pos += entryHeaderSize
		if pos+length > len(b) {
			errs = append(errs, fmt.Errorf("%w: type 0x%04X wants %d bytes, %d remain", ErrTruncatedEntry, uint16(tag), length, len(b)-pos))
			break
		}
		if err := m.apply(tag, b[pos:pos+length]); err != nil {
			errs = append(errs, err)
		}
		pos += length
	}
	return m, errors.Join(errs...)
}

func (m *Metadata) apply(tag Tag, v []byte) error {
	switch tag {
	case TagVersion:
		if len(v) >= 2 {
			m.Version = binary.LittleEndian.Uint16(v)
		}
	case TagModel:
		m.Model = text(v)
	case TagSerialNumber:
		m.SerialNumber = text(v)
	case TagFirmware:
		m.Firmware = text(v)
	case TagDeviceName:
		m.DeviceName = text(v)
	case TagStartTime:
		t, err := parseTimestamp(text(v))
		if err != nil {
			return err
		}
		m.StartTime = &t
	case TagGPSFirst:
		p, err := parsePosition(text(v))
		if err != nil {
			return err
		}
		m.Position = p
	case TagPositionLast:
		p, err := parsePosition(text(v))
		if err != nil {
			return err
		}
		m.LastPosition = p
	case TagSoftware:
		m.Software = text(v)
	case TagLicenseID:
		m.LicenseID = text(v)
	case TagUserNotes:
		m.Notes = text(v)
	case TagAutoID:
		m.AutoID = text(v)
	case TagManualID:
		m.ManualID = text(v)
	case TagTimeExpansion:
		if len(v) >= 2 {
			m.TimeExpansion = binary.LittleEndian.Uint16(v)
		}
	case TagMicType:
		m.MicTypes = splitList(text(v))
	case TagMicSensitivity:
		for _, s := range splitList(text(v)) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(s, "dB"), 64)
			if err != nil {
				return fmt.Errorf("wamd mic sensitivity %q: %w", s, err)
			}
			m.MicSensitivity = append(m.MicSensitivity, f)
		}
	case TagTempInternal:
		m.TempInternal = parseMeasure(text(v), "C")
	case TagTempExternal:
		m.TempExternal = parseMeasure(text(v), "C")
	case TagHumidity:
		m.Humidity = parseMeasure(text(v), "%")
	case TagPadding:
	default:
		m.Skipped = append(m.Skipped, tag)
	}
	return nil
}

func text(v []byte) string {
	return strings.TrimRight(string(v), "\x00 ")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("wamd timestamp %q: unrecognised layout", s)
}

// parsePosition decodes "WGS84,33.90090,N,84.29440,W,239".
func parsePosition(s string) (*Position, error) {
	f := strings.Split(s, ",")
	if len(f) < 5 {
		return nil, fmt.Errorf("wamd position %q: want at least 5 fields", s)
	}
	lat, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return nil, fmt.Errorf("wamd latitude %q: %w", f[1], err)
	}
	lon, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return nil, fmt.Errorf("wamd longitude %q: %w", f[3], err)
	}
	if strings.EqualFold(f[2], "S") {
		lat = -lat
	}
	if strings.EqualFold(f[4], "W") {
		lon = -lon
	}
	p := &Position{Datum: f[0], Latitude: lat, Longitude: lon}
	if len(f) > 5 {
		if alt, err := strconv.ParseFloat(strings.TrimSpace(f[5]), 64); err == nil {
			p.Altitude = &alt
		}
	}
	return p, nil
}

func parseMeasure(s, unit string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, unit)), 64)
	if err != nil {
		return nil
	}
	return &f
}

// Package core defines the recording record every extractor writes into,
// container detection, and output rendering for emu.
package core

import (
	"math/big"
	"time"
)

// MetaField represents a single generic tag found in a recording.
type MetaField struct {
	Key      string // Canonical field name (e.g. "Artist", "Title")
	Value    string // String representation of the value
	Category string // Where it came from (e.g. "Vorbis", "WAV INFO")
	Raw      string // Original tag id if different from Key
}

// Microphone describes one microphone attached to a sensor.
type Microphone struct {
	Channel     int
	Type        string
	UID         string
	BuildDate   string
	Gain        string
	Sensitivity *float64 // dB
}

// Sensor identifies the device that made a recording.
type Sensor struct {
	Make         string
	Model        string
	SerialNumber string
	Firmware     string
	Name         string
	BatteryLevel string
	Temperature  *float64 // °C
	Gain         string
	Microphones  []Microphone
}

// Location is a recorded position.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
	Source    string
}

// MemoryCard describes the storage a recording was written to.
type MemoryCard struct {
	CID string
}

// Checksum is a content hash of the whole file.
type Checksum struct {
	Type  string
	Value string
}

// Cue is a marker placed in a recording.
type Cue struct {
	ID           uint32
	SampleOffset uint32
	Seconds      *big.Rat
	Label        string
	Note         string
	Text         string
}

// Level grades a notice.
type Level string

// Notice levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message about a recording raised while extracting it.
type Notice struct {
	Source  string
	Level   Level
	Message string
}

// Recording accumulates every fact extracted from a single file.
//
// Durations and sample counts are exact rationals; they are only rounded when
// rendered.
type Recording struct {
	Path          string
	Format        FormatID
	FileLength    uint64
	StartDate     *time.Time
	Duration      *big.Rat // seconds
	TotalSamples  *big.Rat
	SampleRate    uint32
	Channels      uint16
	BitDepth      uint16
	BitsPerSecond uint64
	Checksum      *Checksum
	Sensor        Sensor
	Location      *Location
	MemoryCard    *MemoryCard
	Cues          []Cue
	Tags          []MetaField
	Notices       []Notice
	ExtractedBy   []string
}

// NewRecording returns an empty record for path.
func NewRecording(path string, format FormatID, length uint64) *Recording {
	return &Recording{Path: path, Format: format, FileLength: length}
}

// AddNotice appends a notice. Notices are never removed.
func (r *Recording) AddNotice(source string, level Level, msg string) {
	r.Notices = append(r.Notices, Notice{Source: source, Level: level, Message: msg})
}

// HasErrors reports whether any error notice was raised.
func (r *Recording) HasErrors() bool {
	for _, n := range r.Notices {
		if n.Level == LevelError {
			return true
		}
	}
	return false
}

// Report is one row of check or fix output.
type Report struct {
	Path     string   `json:"path" yaml:"path"`
	Problem  string   `json:"problem" yaml:"problem"`
	Status   string   `json:"status" yaml:"status"`
	Severity string   `json:"severity,omitempty" yaml:"severity,omitempty"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	NewPath  string   `json:"new_path,omitempty" yaml:"new_path,omitempty"`
	Actions  []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

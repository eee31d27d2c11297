package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats understood by Printer.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// durationDigits is the precision used when rendering exact durations.
const durationDigits = 6

// Printer handles all display output for the CLI.
type Printer struct {
	Format string
	Writer io.Writer
}

// NewPrinter creates a Printer writing to stdout. Unknown formats fall
// back to text.
func NewPrinter(format string) *Printer {
	return &Printer{Format: strings.ToLower(format), Writer: os.Stdout}
}

// ─── records ─────────────────────────────────────────────────────────────────

type fieldView struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Category string `json:"category" yaml:"category"`
}

type cueView struct {
	ID      uint32 `json:"id" yaml:"id"`
	Seconds string `json:"seconds" yaml:"seconds"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Note    string `json:"note,omitempty" yaml:"note,omitempty"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
}

type noticeView struct {
	Source  string `json:"source" yaml:"source"`
	Level   Level  `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
}

type locationView struct {
	Latitude  float64  `json:"latitude" yaml:"latitude"`
	Longitude float64  `json:"longitude" yaml:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"`
	Source    string   `json:"source,omitempty" yaml:"source,omitempty"`
}

type microphoneView struct {
	Channel     int      `json:"channel" yaml:"channel"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	UID         string   `json:"uid,omitempty" yaml:"uid,omitempty"`
	BuildDate   string   `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	Gain        string   `json:"gain,omitempty" yaml:"gain,omitempty"`
	Sensitivity *float64 `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty"`
}

type sensorView struct {
	Make         string           `json:"make,omitempty" yaml:"make,omitempty"`
	Model        string           `json:"model,omitempty" yaml:"model,omitempty"`
	SerialNumber string           `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	Firmware     string           `json:"firmware,omitempty" yaml:"firmware,omitempty"`
	Name         string           `json:"name,omitempty" yaml:"name,omitempty"`
	BatteryLevel string           `json:"battery_level,omitempty" yaml:"battery_level,omitempty"`
	Temperature  *float64         `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Gain         string           `json:"gain,omitempty" yaml:"gain,omitempty"`
	Microphones  []microphoneView `json:"microphones,omitempty" yaml:"microphones,omitempty"`
}

type recordingView struct {
	Path          string        `json:"path" yaml:"path"`
	Format        FormatID      `json:"format" yaml:"format"`
	FileLength    uint64        `json:"file_length" yaml:"file_length"`
	StartDate     string        `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	Duration      string        `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	TotalSamples  string        `json:"total_samples,omitempty" yaml:"total_samples,omitempty"`
	SampleRate    uint32        `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	Channels      uint16        `json:"channels,omitempty" yaml:"channels,omitempty"`
	BitDepth      uint16        `json:"bit_depth,omitempty" yaml:"bit_depth,omitempty"`
	BitsPerSecond uint64        `json:"bits_per_second,omitempty" yaml:"bits_per_second,omitempty"`
	Checksum      string        `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Sensor        sensorView    `json:"sensor" yaml:"sensor"`
	Location      *locationView `json:"location,omitempty" yaml:"location,omitempty"`
	MemoryCardCID string        `json:"memory_card_cid,omitempty" yaml:"memory_card_cid,omitempty"`
	Cues          []cueView     `json:"cues,omitempty" yaml:"cues,omitempty"`
	Tags          []fieldView   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Notices       []noticeView  `json:"notices,omitempty" yaml:"notices,omitempty"`
	ExtractedBy   []string      `json:"extracted_by,omitempty" yaml:"extracted_by,omitempty"`
}

// FormatRat renders an exact rational with fixed precision, or "" for nil.
func FormatRat(r *big.Rat) string {
	if r == nil {
		return ""
	}
	if r.IsInt() {
		return r.RatString()
	}
	return r.FloatString(durationDigits)
}

func newRecordingView(r *Recording) recordingView {
	v := recordingView{
		Path:          r.Path,
		Format:        r.Format,
		FileLength:    r.FileLength,
		Duration:      formatDuration(r.Duration),
		TotalSamples:  FormatRat(r.TotalSamples),
		SampleRate:    r.SampleRate,
		Channels:      r.Channels,
		BitDepth:      r.BitDepth,
		BitsPerSecond: r.BitsPerSecond,
		ExtractedBy:   r.ExtractedBy,
		Sensor: sensorView{
			Make:         r.Sensor.Make,
			Model:        r.Sensor.Model,
			SerialNumber: r.Sensor.SerialNumber,
			Firmware:     r.Sensor.Firmware,
			Name:         r.Sensor.Name,
			BatteryLevel: r.Sensor.BatteryLevel,
			Temperature:  r.Sensor.Temperature,
			Gain:         r.Sensor.Gain,
		},
	}
	if r.StartDate != nil {
		v.StartDate = r.StartDate.Format(time.RFC3339)
	}
	if r.Checksum != nil {
		v.Checksum = strings.ToLower(r.Checksum.Type) + ":" + r.Checksum.Value
	}
	if r.Location != nil {
		v.Location = &locationView{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Altitude:  r.Location.Altitude,
			Source:    r.Location.Source,
		}
	}
	if r.MemoryCard != nil {
		v.MemoryCardCID = r.MemoryCard.CID
	}
	for _, m := range r.Sensor.Microphones {
		v.Sensor.Microphones = append(v.Sensor.Microphones, microphoneView(m))
	}
	for _, c := range r.Cues {
		v.Cues = append(v.Cues, cueView{
			ID:      c.ID,
			Seconds: formatDuration(c.Seconds),
			Label:   c.Label,
			Note:    c.Note,
			Text:    c.Text,
		})
	}
	for _, f := range r.Tags {
		v.Tags = append(v.Tags, fieldView{Key: f.Key, Value: f.Value, Category: f.Category})
	}
	for _, n := range r.Notices {
		v.Notices = append(v.Notices, noticeView(n))
	}
	return v
}

func formatDuration(r *big.Rat) string {
	if r == nil {
		return ""
	}
	return r.FloatString(durationDigits)
}

// PrintRecording renders a Recording to the configured output.
func (p *Printer) PrintRecording(r *Recording) error {
	v := newRecordingView(r)
	switch p.Format {
	case OutputJSON:
		return p.printJSON(v)
	case OutputYAML:
		return p.printYAML(v)
	}
	p.printRecordingText(v)
	return nil
}

// PrintRecordings renders several recordings as one JSON or YAML list, or
// as text blocks separated by a blank line.
func (p *Printer) PrintRecordings(rs []*Recording) error {
	views := make([]recordingView, len(rs))
	for i, r := range rs {
		views[i] = newRecordingView(r)
	}
	switch p.Format {
	case OutputJSON:
		return p.printJSON(views)
	case OutputYAML:
		return p.printYAML(views)
	}
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(p.Writer)
		}
		p.printRecordingText(v)
	}
	return nil
}

func (p *Printer) printRecordingText(v recordingView) {
	w := p.Writer
	fmt.Fprintf(w, "File  : %s\n", v.Path)
	fmt.Fprintf(w, "Format: %s\n", v.Format)
	fmt.Fprintln(w)

	line := func(key, val string) {
		if val != "" && val != "0" {
			fmt.Fprintf(w, "  %-30s %s\n", key+":", val)
		}
	}

	fmt.Fprintln(w, "── Audio ──")
	line("StartDate", v.StartDate)
	line("Duration", v.Duration)
	line("TotalSamples", v.TotalSamples)
	line("SampleRate", fmt.Sprintf("%d", v.SampleRate))
	line("Channels", fmt.Sprintf("%d", v.Channels))
	line("BitDepth", fmt.Sprintf("%d", v.BitDepth))
	line("BitsPerSecond", fmt.Sprintf("%d", v.BitsPerSecond))
	line("FileLength", fmt.Sprintf("%d", v.FileLength))
	line("Checksum", v.Checksum)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "── Sensor ──")
	line("Make", v.Sensor.Make)
	line("Model", v.Sensor.Model)
	line("SerialNumber", v.Sensor.SerialNumber)
	line("Firmware", v.Sensor.Firmware)
	line("Name", v.Sensor.Name)
	line("BatteryLevel", v.Sensor.BatteryLevel)
	if v.Sensor.Temperature != nil {
		line("Temperature", fmt.Sprintf("%g", *v.Sensor.Temperature))
	}
	line("Gain", v.Sensor.Gain)
	for _, m := range v.Sensor.Microphones {
		line(fmt.Sprintf("Microphone%d", m.Channel), strings.TrimSpace(m.Type+" "+m.UID))
	}
	if v.Location != nil {
		line("Location", fmt.Sprintf("%g, %g", v.Location.Latitude, v.Location.Longitude))
	}
	line("MemoryCardCID", v.MemoryCardCID)
	fmt.Fprintln(w)

	if len(v.Cues) > 0 {
		fmt.Fprintln(w, "── Cues ──")
		for _, c := range v.Cues {
			line(fmt.Sprintf("%d", c.ID), strings.TrimSpace(c.Seconds+" "+c.Label))
		}
		fmt.Fprintln(w)
	}

	// Group tags by category
	groups := make(map[string][]fieldView)
	order := []string{}
	for _, f := range v.Tags {
		if _, seen := groups[f.Category]; !seen {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}
	for _, cat := range order {
		fmt.Fprintf(w, "── %s ──\n", cat)
		for _, f := range groups[cat] {
			line(f.Key, f.Value)
		}
		fmt.Fprintln(w)
	}

	for _, n := range v.Notices {
		fmt.Fprintf(w, "  [%s] %s: %s\n", n.Level, n.Source, n.Message)
	}
}

// ─── reports ─────────────────────────────────────────────────────────────────

// PrintReports renders check or fix rows.
func (p *Printer) PrintReports(reports []Report) error {
	switch p.Format {
	case OutputJSON:
		return p.printJSON(reports)
	case OutputYAML:
		return p.printYAML(reports)
	}
	for _, r := range reports {
		fmt.Fprintf(p.Writer, "%s\t%s\t%s", r.Path, r.Problem, r.Status)
		if r.Severity != "" {
			fmt.Fprintf(p.Writer, "\t%s", r.Severity)
		}
		if r.Message != "" {
			fmt.Fprintf(p.Writer, "\t%s", r.Message)
		}
		if r.NewPath != "" {
			fmt.Fprintf(p.Writer, "\t-> %s", r.NewPath)
		}
		fmt.Fprintln(p.Writer)
		for _, a := range r.Actions {
			fmt.Fprintf(p.Writer, "  - %s\n", a)
		}
	}
	return nil
}

func (p *Printer) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Writer, string(b))
	return err
}

func (p *Printer) printYAML(v any) error {
	enc := yaml.NewEncoder(p.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}

// Package audiomoth parses the free-text comment AudioMoth recorders write
// into the LIST/INFO ICMT entry of every WAVE file.
//
// The sentence changed between firmware releases, so each field is matched
// on its own and a missing field never fails the whole parse.
package audiomoth

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/wave"
)

// InfoComment is the LIST/INFO entry holding the comment.
const InfoComment = "ICMT"

// Make is the manufacturer reported for AudioMoth devices.
const Make = "Open Acoustic Devices"

// ErrNotAudioMoth means the comment was not written by an AudioMoth.
var ErrNotAudioMoth = stream.NewStructural("not an audiomoth comment")

var (
	recordedPattern    = regexp.MustCompile(`Recorded at (\d{2}:\d{2}:\d{2}) (\d{2}/\d{2}/\d{4}) \(UTC(?:([+-])(\d{1,2})(?::(\d{2}))?)?\)`)
	devicePattern      = regexp.MustCompile(`by AudioMoth ([0-9A-Fa-f]{16})`)
	deploymentPattern  = regexp.MustCompile(`during deployment ([0-9A-Fa-f]{16})`)
	gainIndexPattern   = regexp.MustCompile(`at gain setting (\d)`)
	gainNamePattern    = regexp.MustCompile(`at (low-medium|medium-high|low|medium|high) gain`)
	batteryPattern     = regexp.MustCompile(`battery (?:state|voltage) was (less than |greater than )?(\d+(?:\.\d+)?)V`)
	temperaturePattern = regexp.MustCompile(`temperature was (-?\d+(?:\.\d+)?)C`)
	thresholdPattern   = regexp.MustCompile(`[Aa]mplitude threshold (?:was|of) (\d+)`)
	filterPattern      = regexp.MustCompile(`(Band-pass|Low-pass|High-pass) filter (?:applied )?with (?:cut-off )?frequenc(?:y|ies) of (\d+(?:\.\d+)?)kHz(?: and (\d+(?:\.\d+)?)kHz)?`)
	statePattern       = regexp.MustCompile(`Recording (?:cancelled|stopped) before completion due to ([^.]+)\.`)
)

var gainNames = map[string]int{
	"low":         0,
	"low-medium":  1,
	"medium":      2,
	"medium-high": 3,
	"high":        4,
}

// Filter describes the firmware's optional frequency filter. Frequencies are
// in hertz; LowHz is zero for a low-pass filter, HighHz for a high-pass one.
type Filter struct {
	Kind   string
	LowHz  float64
	HighHz float64
}

// Comment is a decoded AudioMoth comment. Pointer fields are nil when the
// firmware did not write them.
type Comment struct {
	Raw            string
	RecordedAt     *time.Time
	DeviceID       string
	DeploymentID   string
	Gain           *int
	BatteryVoltage *float64
	// BatteryBound is "less than" or "greater than" when the firmware only
	// reported a bound rather than a reading.
	BatteryBound       string
	Temperature        *float64
	AmplitudeThreshold *int
	Filter             *Filter
	// RecordingState is empty for a complete recording, otherwise the reason
	// the firmware gave for stopping early, e.g. "low voltage".
	RecordingState string
}

// Complete reports whether the recording ran to its scheduled end.
func (c Comment) Complete() bool { return c.RecordingState == "" }

// Read locates the ICMT entry of a WAVE stream and parses it.
func Read(w *wave.Reader) (Comment, error) {
	e, err := w.InfoValue(InfoComment)
	if err != nil {
		return Comment{}, err
	}
	return Parse(e.Value)
}

// Parse decodes comment text. It returns ErrNotAudioMoth when the text
// names neither an AudioMoth device nor a deployment, and otherwise everything it could decode
// together with the errors of fields that matched but failed to convert.
func Parse(text string) (Comment, error) {
	if !strings.Contains(text, "AudioMoth") && !deploymentPattern.MatchString(text) {
		return Comment{}, ErrNotAudioMoth
	}
	c := Comment{Raw: text}
	var errs []error

	if m := recordedPattern.FindStringSubmatch(text); m != nil {
		t, err := parseRecorded(m)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.RecordedAt = &t
		}
	}
	if m := devicePattern.FindStringSubmatch(text); m != nil {
		c.DeviceID = strings.ToUpper(m[1])
	}
	if m := deploymentPattern.FindStringSubmatch(text); m != nil {
		c.DeploymentID = strings.ToUpper(m[1])
	}

	if m := gainIndexPattern.FindStringSubmatch(text); m != nil {
		g, _ := strconv.Atoi(m[1])
		c.Gain = &g
	} else if m := gainNamePattern.FindStringSubmatch(text); m != nil {
		g := gainNames[m[1]]
		c.Gain = &g
	}

	if m := batteryPattern.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("audiomoth battery %q: %w", m[2], err))
		} else {
			c.BatteryVoltage = &v
			c.BatteryBound = strings.TrimSpace(m[1])
		}
	}
	if m := temperaturePattern.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("audiomoth temperature %q: %w", m[1], err))
		} else {
			c.Temperature = &v
		}
	}
	if m := thresholdPattern.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			errs = append(errs, fmt.Errorf("audiomoth amplitude threshold %q: %w", m[1], err))
		} else {
			c.AmplitudeThreshold = &v
		}
	}
	if m := filterPattern.FindStringSubmatch(text); m != nil {
		c.Filter = parseFilter(m)
	}
	if m := statePattern.FindStringSubmatch(text); m != nil {
		c.RecordingState = strings.TrimSpace(m[1])
	}

	return c, errors.Join(errs...)
}

func parseRecorded(m []string) (time.Time, error) {
	offset := 0
	if m[3] != "" {
		h, _ := strconv.Atoi(m[4])
		mins := 0
		if m[5] != "" {
			mins, _ = strconv.Atoi(m[5])
		}
		offset = h*3600 + mins*60
		if m[3] == "-" {
			offset = -offset
		}
	}
	loc := time.FixedZone(zoneName(offset), offset)
	t, err := time.ParseInLocation("15:04:05 02/01/2006", m[1]+" "+m[2], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("audiomoth recorded time %q: %w", m[0], err)
	}
	return t, nil
}

func zoneName(offset int) string {
	if offset == 0 {
		return "UTC"
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offset/3600, offset%3600/60)
}

func parseFilter(m []string) *Filter {
	first, _ := strconv.ParseFloat(m[2], 64)
	f := &Filter{Kind: strings.ToLower(m[1])}
	switch f.Kind {
	case "band-pass":
		second, _ := strconv.ParseFloat(m[3], 64)
		f.LowHz, f.HighHz = first*1000, second*1000
	case "low-pass":
		f.HighHz = first * 1000
	case "high-pass":
		f.LowHz = first * 1000
	}
	return f
}

// Package frontierlabs decodes the metadata Frontier Labs BAR recorders
// write into FLAC Vorbis comments.
package frontierlabs

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ecoacoustics/emu/core/flac"
	"github.com/ecoacoustics/emu/core/stream"
)

// FirmwareKey is the Vorbis comment key holding the firmware version.
const FirmwareKey = "SensorFirmwareVersion"

// firmwarePrefix is matched against comment text to locate the record.
const firmwarePrefix = FirmwareKey + "="

// firmwareSubPrefix is written by some firmware before the version token.
const firmwareSubPrefix = "Firmware:"

var (
	// ErrFirmwareNotFound means the file carries no firmware comment.
	ErrFirmwareNotFound = stream.NewStructural("frontier labs firmware comment not found")
	// ErrInvalidFirmwareVersion means the firmware comment exists but its
	// version token is not a decimal number.
	ErrInvalidFirmwareVersion = errors.New("invalid frontier labs firmware version")
)

var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Version is an exact decimal firmware version such as 3.08.
type Version struct {
	value *big.Rat
	text  string
}

// ParseVersion parses a plain decimal such as "3.17".
func ParseVersion(s string) (Version, error) {
	if !decimalPattern.MatchString(s) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFirmwareVersion, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFirmwareVersion, s)
	}
	return Version{value: r, text: s}, nil
}

// MustParseVersion is ParseVersion for constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Cmp compares v and o numerically, so 3.1 equals 3.10.
func (v Version) Cmp(o Version) int {
	return v.rat().Cmp(o.rat())
}

// Within reports whether min <= v < max.
func (v Version) Within(min, max Version) bool {
	return v.Cmp(min) >= 0 && v.Cmp(max) < 0
}

// IsZero reports whether v was never set.
func (v Version) IsZero() bool { return v.value == nil }

func (v Version) String() string { return v.text }

func (v Version) rat() *big.Rat {
	if v.value == nil {
		return new(big.Rat)
	}
	return v.value
}

// FirmwareRecord is a decoded firmware comment. FoundAt is the exact byte
// range of the comment text so that a fix can overwrite only those bytes.
type FirmwareRecord struct {
	RawComment string
	Version    Version
	FoundAt    stream.Range
	Tags       []string
}

// HasTag reports whether tag appears among the free-text tags.
func (f FirmwareRecord) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParseFirmwareComment decodes the text of a firmware comment, with or
// without its key prefix. Grammar:
//
//	SensorFirmwareVersion=[Firmware: ][V]X.YY [tag ...]
func ParseFirmwareComment(text string, foundAt stream.Range) (FirmwareRecord, error) {
	rec := FirmwareRecord{RawComment: text, FoundAt: foundAt}

	body := strings.TrimPrefix(text, firmwarePrefix)
	tokens := strings.Fields(body)
	if len(tokens) > 0 && strings.HasPrefix(tokens[0], firmwareSubPrefix) {
		rest := strings.TrimPrefix(tokens[0], firmwareSubPrefix)
		if rest == "" {
			tokens = tokens[1:]
		} else {
			tokens[0] = rest
		}
	}
	if len(tokens) == 0 {
		return rec, fmt.Errorf("%w: no version in %q", ErrInvalidFirmwareVersion, text)
	}

	v, err := ParseVersion(strings.TrimPrefix(strings.TrimPrefix(tokens[0], "V"), "v"))
	if err != nil {
		return rec, err
	}
	rec.Version = v
	rec.Tags = tokens[1:]
	return rec, nil
}

// ReadFirmware locates and decodes the firmware comment of a FLAC stream.
func ReadFirmware(f *flac.Reader) (FirmwareRecord, error) {
	c, err := f.FindComment(firmwarePrefix)
	if err != nil {
		if stream.IsStructural(err) {
			return FirmwareRecord{}, fmt.Errorf("%w: %w", ErrFirmwareNotFound, err)
		}
		return FirmwareRecord{}, err
	}
	return ParseFirmwareComment(c.Text, c.Range)
}

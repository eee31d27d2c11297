package frontierlabs

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LogFilePattern matches the log file a BAR writes next to its recordings.
const LogFilePattern = "*logfile*.txt"

// maxHeaderLines bounds how far into a log the header is searched for.
// Logs grow for the life of a deployment; only the header is decoded.
const maxHeaderLines = 200

// LogHeader is the key: value preamble of a BAR log file.
type LogHeader struct {
	Values map[string]string
}

// Get returns a header value by case-insensitive key.
func (h LogHeader) Get(key string) string {
	for k, v := range h.Values {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// SerialNumber is the sensor serial the log was written by.
func (h LogHeader) SerialNumber() string {
	if v := h.Get("Serial Number"); v != "" {
		return v
	}
	return h.Get("Sensor UID")
}

// Firmware is the firmware version reported by the log, without its "V".
func (h LogHeader) Firmware() string {
	v := h.Get("Firmware")
	if v == "" {
		v = h.Get("Firmware Version")
	}
	if i := strings.LastIndexAny(v, "_ "); i >= 0 {
		v = v[i+1:]
	}
	return strings.TrimPrefix(strings.TrimPrefix(v, "V"), "v")
}

// Model is the hardware model reported by the log.
func (h LogHeader) Model() string {
	if v := h.Get("Model"); v != "" {
		return v
	}
	return h.Get("Hardware")
}

// SDCardCID is the identifier of the memory card in use.
func (h LogHeader) SDCardCID() string {
	if v := h.Get("SD Card CID"); v != "" {
		return v
	}
	return h.Get("SD CID")
}

// ParseLogHeader reads "key: value" lines from the top of a log until the
// first blank line after at least one pair, or maxHeaderLines.
func ParseLogHeader(r io.Reader) (LogHeader, error) {
	h := LogHeader{Values: map[string]string{}}
	sc := bufio.NewScanner(r)
	for n := 0; n < maxHeaderLines && sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if len(h.Values) > 0 {
				break
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := h.Values[key]; !dup {
			h.Values[key] = strings.TrimSpace(value)
		}
	}
	if err := sc.Err(); err != nil {
		return h, fmt.Errorf("read log header: %w", err)
	}
	if len(h.Values) == 0 {
		return h, fmt.Errorf("log header: no key: value lines found")
	}
	return h, nil
}

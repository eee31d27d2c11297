package frontierlabs

import (
	"strconv"
	"strings"
	"time"
)

// Vorbis comment keys written by BAR recorders alongside the firmware.
const (
	KeySensorUID    = "SensorUid"
	KeyBatteryLevel = "BatteryLevel"
	KeyLastTimeSync = "LastTimeSync"
	KeySdCid        = "SdCid"
	KeyRecordStart  = "RecordingStart"
	KeyRecordEnd    = "RecordingEnd"
	KeyLatitude     = "LocationLatitude"
	KeyLongitude    = "LocationLongitude"

	keyMicType      = "MicrophoneType"
	keyMicUID       = "MicrophoneUid"
	keyMicBuildDate = "MicrophoneBuildDate"
	keyMicGain      = "MicrophoneGain"
)

// maxMicrophones is the number of channel inputs on a BAR-LT.
const maxMicrophones = 2

// Microphone describes one attached microphone.
type Microphone struct {
	Channel   int
	Type      string
	UID       string
	BuildDate string
	Gain      string
}

// Comments is the decoded set of Frontier Labs Vorbis comments.
type Comments struct {
	SensorUID      string
	BatteryLevel   string
	LastTimeSync   *time.Time
	SdCid          string
	RecordingStart *time.Time
	RecordingEnd   *time.Time
	Latitude       *float64
	Longitude      *float64
	Microphones    []Microphone
}

// IsEmpty reports whether no Frontier Labs key was present.
func (c Comments) IsEmpty() bool {
	return c.SensorUID == "" && c.BatteryLevel == "" && c.LastTimeSync == nil &&
		c.SdCid == "" && c.RecordingStart == nil && c.RecordingEnd == nil &&
		c.Latitude == nil && c.Longitude == nil && len(c.Microphones) == 0
}

// DecodeComments picks the Frontier Labs keys out of a comment map. Keys
// are matched case-insensitively because generic tag readers lower-case
// them. Unparseable values are skipped.
func DecodeComments(raw map[string]string) Comments {
	get := func(key string) string {
		if v, ok := raw[key]; ok {
			return strings.TrimSpace(v)
		}
		for k, v := range raw {
			if strings.EqualFold(k, key) {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	c := Comments{
		SensorUID:      get(KeySensorUID),
		BatteryLevel:   get(KeyBatteryLevel),
		SdCid:          get(KeySdCid),
		LastTimeSync:   parseTime(get(KeyLastTimeSync)),
		RecordingStart: parseTime(get(KeyRecordStart)),
		RecordingEnd:   parseTime(get(KeyRecordEnd)),
		Latitude:       parseFloat(get(KeyLatitude)),
		Longitude:      parseFloat(get(KeyLongitude)),
	}
	for ch := 1; ch <= maxMicrophones; ch++ {
		n := strconv.Itoa(ch)
		m := Microphone{
			Channel:   ch,
			Type:      get(keyMicType + n),
			UID:       get(keyMicUID + n),
			BuildDate: get(keyMicBuildDate + n),
			Gain:      get(keyMicGain + n),
		}
		if m.Type != "" || m.UID != "" || m.BuildDate != "" || m.Gain != "" {
			c.Microphones = append(c.Microphones, m)
		}
	}
	return c
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

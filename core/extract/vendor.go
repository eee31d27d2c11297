package extract

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/support"
	"github.com/ecoacoustics/emu/core/vendors/audiomoth"
	"github.com/ecoacoustics/emu/core/vendors/frontierlabs"
	"github.com/ecoacoustics/emu/core/vendors/wamd"
	"github.com/ecoacoustics/emu/core/wave"
)

// Sensor makes written by the vendor extractors.
const (
	MakeWildlifeAcoustics = "Wildlife Acoustics"
	MakeFrontierLabs      = "Frontier Labs"
)

// Location sources.
const (
	SourceWamd          = "wamd chunk"
	SourceVorbisComment = "vorbis comment"
)

const categoryWamd = "WAMD"

// ─── Wildlife Acoustics ──────────────────────────────────────────────────────

func canWamd(t *Target) bool { return t.HasChunk(wave.IDWamd) }

func processWamd(_ context.Context, t *Target, rec *core.Recording) error {
	w, err := t.Wave()
	if err != nil {
		return err
	}
	m, err := wamd.Read(w)
	if err != nil && stream.IsStructural(err) {
		return err
	}

	s := &rec.Sensor
	override(&s.Make, MakeWildlifeAcoustics)
	override(&s.Model, m.Model)
	override(&s.SerialNumber, m.SerialNumber)
	override(&s.Firmware, m.Firmware)
	override(&s.Name, m.DeviceName)
	override(&s.Temperature, m.TempInternal)
	override(&rec.StartDate, m.StartTime)

	if mics := wamdMicrophones(m); len(mics) > 0 {
		s.Microphones = mics
	}
	if p := m.Position; p != nil {
		rec.Location = &core.Location{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Altitude:  p.Altitude,
			Source:    SourceWamd,
		}
	}
	if m.TimeExpansion > 1 {
		rec.AddNotice(KindWamd.String(), core.LevelInfo,
			fmt.Sprintf("recorded with time expansion factor %d", m.TimeExpansion))
	}

	add := func(key, val string) {
		if val != "" {
			rec.Tags = append(rec.Tags, core.MetaField{Key: key, Value: val, Category: categoryWamd})
		}
	}
	add("Software", m.Software)
	add("License", m.LicenseID)
	add("Notes", m.Notes)
	add("Auto ID", m.AutoID)
	add("Manual ID", m.ManualID)
	if m.TempExternal != nil {
		add("External temperature", strconv.FormatFloat(*m.TempExternal, 'f', -1, 64))
	}
	if m.Humidity != nil {
		add("Humidity", strconv.FormatFloat(*m.Humidity, 'f', -1, 64))
	}
	return err
}

func wamdMicrophones(m wamd.Metadata) []core.Microphone {
	n := max(len(m.MicTypes), len(m.MicSensitivity))
	mics := make([]core.Microphone, 0, n)
	for i := 0; i < n; i++ {
		mic := core.Microphone{Channel: i + 1}
		if i < len(m.MicTypes) {
			mic.Type = m.MicTypes[i]
		}
		if i < len(m.MicSensitivity) {
			v := m.MicSensitivity[i]
			mic.Sensitivity = &v
		}
		mics = append(mics, mic)
	}
	return mics
}

// ─── AudioMoth ───────────────────────────────────────────────────────────────

func canAudioMoth(t *Target) bool { return t.HasChunk(wave.IDList) }

func processAudioMoth(_ context.Context, t *Target, rec *core.Recording) error {
	w, err := t.Wave()
	if err != nil {
		return err
	}
	c, err := audiomoth.Read(w)
	if err != nil && (stream.IsStructural(err) || c.Raw == "") {
		return err
	}

	s := &rec.Sensor
	override(&s.Make, audiomoth.Make)
	override(&s.Model, "AudioMoth")
	override(&s.SerialNumber, c.DeviceID)
	override(&s.Temperature, c.Temperature)
	override(&rec.StartDate, c.RecordedAt)
	if c.Gain != nil {
		s.Gain = strconv.Itoa(*c.Gain)
	}
	if c.BatteryVoltage != nil {
		level := strconv.FormatFloat(*c.BatteryVoltage, 'f', -1, 64) + "V"
		if c.BatteryBound != "" {
			level = c.BatteryBound + " " + level
		}
		s.BatteryLevel = level
	}

	add := func(key, val string) {
		if val != "" {
			rec.Tags = append(rec.Tags, core.MetaField{Key: key, Value: val, Category: audiomoth.Make})
		}
	}
	add("Deployment ID", c.DeploymentID)
	if c.AmplitudeThreshold != nil {
		add("Amplitude threshold", strconv.Itoa(*c.AmplitudeThreshold))
	}
	if f := c.Filter; f != nil {
		add("Filter", fmt.Sprintf("%s %g-%g Hz", f.Kind, f.LowHz, f.HighHz))
	}
	if !c.Complete() {
		rec.AddNotice(KindAudioMoth.String(), core.LevelWarning,
			"recording stopped before completion due to "+c.RecordingState)
	}
	return err
}

// ─── Frontier Labs ───────────────────────────────────────────────────────────

// processFrontierLabsComment decodes the firmware comment and the other
// Frontier Labs Vorbis keys. A malformed firmware version is reported after
// the remaining keys are applied.
func processFrontierLabsComment(_ context.Context, t *Target, rec *core.Recording) error {
	f, err := t.Flac()
	if err != nil {
		return err
	}
	fw, fwErr := frontierlabs.ReadFirmware(f)
	tags, err := t.VorbisTags()
	if err != nil {
		tags = nil
	}
	comments := frontierlabs.DecodeComments(tags)

	noFirmware := fwErr != nil && stream.IsStructural(fwErr)
	if noFirmware && comments.IsEmpty() {
		return fwErr
	}

	s := &rec.Sensor
	override(&s.Make, MakeFrontierLabs)
	if fwErr == nil {
		override(&s.Firmware, fw.Version.String())
		for _, tag := range fw.Tags {
			rec.Tags = append(rec.Tags, core.MetaField{Key: "Firmware tag", Value: tag, Category: MakeFrontierLabs})
		}
	}
	override(&s.SerialNumber, comments.SensorUID)
	override(&s.BatteryLevel, comments.BatteryLevel)
	override(&rec.StartDate, comments.RecordingStart)
	if comments.SdCid != "" {
		rec.MemoryCard = &core.MemoryCard{CID: comments.SdCid}
	}
	if comments.Latitude != nil && comments.Longitude != nil {
		rec.Location = &core.Location{
			Latitude:  *comments.Latitude,
			Longitude: *comments.Longitude,
			Source:    SourceVorbisComment,
		}
	}
	if len(comments.Microphones) > 0 {
		mics := make([]core.Microphone, 0, len(comments.Microphones))
		for _, m := range comments.Microphones {
			mics = append(mics, core.Microphone{
				Channel:   m.Channel,
				Type:      m.Type,
				UID:       m.UID,
				BuildDate: m.BuildDate,
				Gain:      m.Gain,
			})
		}
		s.Microphones = mics
	}

	if noFirmware {
		return nil
	}
	return fwErr
}

func canFrontierLabsLog(t *Target) bool {
	_, ok := t.Support.Get(support.KindFrontierLabsLog)
	return ok
}

// processFrontierLabsLog fills sensor fields still empty after the
// recording itself was decoded.
func processFrontierLabsLog(_ context.Context, t *Target, rec *core.Recording) error {
	f, _ := t.Support.Get(support.KindFrontierLabsLog)
	if f.Err != nil {
		return fmt.Errorf("log file %s: %w", f.Path, f.Err)
	}
	h, ok := f.Value.(frontierlabs.LogHeader)
	if !ok {
		return fmt.Errorf("log file %s: unexpected value %T", f.Path, f.Value)
	}

	s := &rec.Sensor
	fill(&s.SerialNumber, h.SerialNumber())
	fill(&s.Firmware, h.Firmware())
	fill(&s.Model, h.Model())
	if rec.MemoryCard == nil && h.SDCardCID() != "" {
		rec.MemoryCard = &core.MemoryCard{CID: h.SDCardCID()}
	}
	return nil
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/audio"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/wave"
)

// ChecksumType names the hash stored in core.Checksum.
const ChecksumType = "BLAKE3"

var errNoTags = stream.NewStructural("no generic tags")

// ─── WAVE ────────────────────────────────────────────────────────────────────

func processWaveHeader(_ context.Context, t *Target, rec *core.Recording) error {
	w, err := t.Wave()
	if err != nil {
		return err
	}
	f, err := w.Format()
	if err != nil {
		return err
	}
	fill(&rec.SampleRate, f.SampleRate)
	fill(&rec.Channels, f.Channels)
	fill(&rec.BitDepth, f.BitsPerSample)
	fill(&rec.BitsPerSecond, uint64(f.ByteRate)*8)

	data, err := w.Data()
	if err != nil {
		// A header without audio is reported by the FL001 check, not here.
		return nil
	}
	if data.Truncated() {
		rec.AddNotice(KindWaveHeader.String(), core.LevelWarning,
			fmt.Sprintf("data chunk declares %d bytes but only %d exist", data.DeclaredSize, data.Range.Length))
	}
	samples, err := wave.SampleCount(f, data)
	if err != nil {
		return err
	}
	fill(&rec.TotalSamples, samples)
	duration, err := wave.Duration(f, data)
	if err != nil {
		return err
	}
	fill(&rec.Duration, duration)
	return nil
}

func canWaveCues(t *Target) bool { return t.HasChunk(wave.IDCue) }

func processWaveCues(_ context.Context, t *Target, rec *core.Recording) error {
	w, err := t.Wave()
	if err != nil {
		return err
	}
	rate := rec.SampleRate
	if rate == 0 {
		f, err := w.Format()
		if err != nil {
			return fmt.Errorf("cue times need a sample rate: %w", err)
		}
		rate = f.SampleRate
	}
	cues, cueErr := w.Cues()
	for _, c := range cues {
		rec.Cues = append(rec.Cues, core.Cue{
			ID:           c.ID,
			SampleOffset: c.SampleOffset,
			Seconds:      c.Seconds(rate),
			Label:        c.Label,
			Note:         c.Note,
			Text:         c.Text,
		})
	}
	return cueErr
}

// ─── FLAC ────────────────────────────────────────────────────────────────────

func processFlacHeader(_ context.Context, t *Target, rec *core.Recording) error {
	f, err := t.Flac()
	if err != nil {
		return err
	}
	si, err := f.ReadStreamInfo()
	if err != nil {
		return err
	}
	fill(&rec.SampleRate, si.SampleRate)
	fill(&rec.Channels, uint16(si.Channels))
	fill(&rec.BitDepth, uint16(si.BitsPerSample))
	fill(&rec.BitsPerSecond, si.BitRate())
	fill(&rec.TotalSamples, new(big.Rat).SetInt(new(big.Int).SetUint64(si.TotalSamples)))
	duration, err := si.Duration()
	if err != nil {
		return err
	}
	fill(&rec.Duration, duration)
	return nil
}

// ─── Any container ───────────────────────────────────────────────────────────

func canChecksum(t *Target) bool { return t.Length > 0 }

func processChecksum(_ context.Context, t *Target, rec *core.Recording) error {
	d, err := stream.HashRange(t.File, stream.New(0, t.Length))
	if err != nil {
		return err
	}
	fill(&rec.Checksum, &core.Checksum{Type: ChecksumType, Value: d.String()})
	return nil
}

func canInfoTags(t *Target) bool { return t.IsWave() || t.IsFlac() }

// processInfoTags records generic tags: LIST/INFO and id3 chunks in WAVE,
// Vorbis comments in FLAC. The artist tag is used as the sensor name when
// nothing better is known.
func processInfoTags(_ context.Context, t *Target, rec *core.Recording) error {
	var (
		fields []core.MetaField
		errs   []error
	)
	if t.IsFlac() {
		if _, err := t.Flac(); err != nil {
			return err
		}
		tags, err := t.VorbisTags()
		if err != nil {
			return err
		}
		fields = audio.VorbisFields(tags)
	} else {
		w, err := t.Wave()
		if err != nil {
			return err
		}
		entries, err := w.Info()
		if err != nil && !stream.IsStructural(err) {
			errs = append(errs, err)
		}
		fields = append(fields, audio.InfoFields(entries)...)

		if c, err := w.Find(wave.IDID3); err == nil {
			id3, err := audio.ReadID3Chunk(w.ReaderAt(), c.Range)
			if err != nil {
				errs = append(errs, err)
			}
			fields = append(fields, id3...)
		}
	}
	if len(fields) == 0 && len(errs) == 0 {
		return errNoTags
	}
	rec.Tags = append(rec.Tags, fields...)
	fill(&rec.Sensor.Name, audio.Artist(fields))
	return errors.Join(errs...)
}

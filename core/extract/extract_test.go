package extract

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/ecoacoustics/emu/core"
	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/core/support"
	"github.com/ecoacoustics/emu/core/vendors/wamd"
	"github.com/ecoacoustics/emu/internal/fixture"
)

func run(t *testing.T, name string, data []byte, sup *support.TargetSupportFiles) *core.Recording {
	t.Helper()
	target, err := NewTarget(name, bytes.NewReader(data), sup)
	require.NoError(t, err)
	rec, err := Run(context.Background(), target, nil)
	require.NoError(t, err)
	return rec
}

func TestRun_WaveHeader(t *testing.T) {
	data := fixture.NewWave().Format(1, 22050, 16).Data(22050 * 2 * 3).Bytes()
	rec := run(t, "a.wav", data, nil)

	assert.Equal(t, core.FmtWAV, rec.Format)
	assert.Equal(t, uint64(len(data)), rec.FileLength)
	assert.Equal(t, uint32(22050), rec.SampleRate)
	assert.Equal(t, uint16(1), rec.Channels)
	assert.Equal(t, uint16(16), rec.BitDepth)
	assert.Equal(t, uint64(352800), rec.BitsPerSecond)
	require.NotNil(t, rec.TotalSamples)
	assert.Equal(t, "66150", rec.TotalSamples.RatString())
	require.NotNil(t, rec.Duration)
	assert.Equal(t, "3", rec.Duration.RatString())

	require.NotNil(t, rec.Checksum)
	assert.Equal(t, ChecksumType, rec.Checksum.Type)
	assert.Equal(t, stream.Digest(blake3.Sum256(data)).String(), rec.Checksum.Value)

	assert.Equal(t, []string{"WaveHeader", "Checksum"}, rec.ExtractedBy)
	assert.Empty(t, rec.Notices)
}

func TestRun_WaveCues(t *testing.T) {
	const rate = 16000
	data := fixture.NewWave().
		Format(1, rate, 16).
		Chunk("cue ", fixture.CuePayload(
			fixture.CuePoint{ID: 1, Sample: 154272},
			fixture.CuePoint{ID: 2, Sample: 206848},
		)).
		List("adtl", fixture.LabelChunk("labl", 2, "MARK_02")).
		Data(21 * rate * 2).
		Bytes()
	rec := run(t, "cues.wav", data, nil)

	require.Len(t, rec.Cues, 2)
	assert.Equal(t, "9.642000", rec.Cues[0].Seconds.FloatString(6))
	assert.Empty(t, rec.Cues[0].Label)
	assert.Equal(t, "12.928000", rec.Cues[1].Seconds.FloatString(6))
	assert.Equal(t, "MARK_02", rec.Cues[1].Label)
	assert.Contains(t, rec.ExtractedBy, "WaveCues")
}

func TestRun_WamdOverridesGenericTags(t *testing.T) {
	wamdPayload := bytes.Join([][]byte{
		fixture.WamdEntry(uint16(wamd.TagModel), []byte("SM4")),
		fixture.WamdEntry(uint16(wamd.TagSerialNumber), []byte("S4A03895")),
		fixture.WamdEntry(uint16(wamd.TagFirmware), []byte("2.2.1")),
		fixture.WamdEntry(uint16(wamd.TagDeviceName), []byte("S4A03895")),
		fixture.WamdEntry(uint16(wamd.TagStartTime), []byte("2019-08-19 23:00:00-04:00")),
		fixture.WamdEntry(uint16(wamd.TagGPSFirst), []byte("WGS84,33.90090,N,84.29440,W,239")),
		fixture.WamdEntry(uint16(wamd.TagMicType), []byte("U2,U2")),
		fixture.WamdEntry(uint16(wamd.TagMicSensitivity), []byte("-11.0,-11.5")),
		fixture.WamdEntry(uint16(wamd.TagTimeExpansion), []byte{10, 0}),
	}, nil)
	data := fixture.NewWave().
		Format(2, 24000, 16).
		List("INFO", fixture.Chunk("IART", []byte("generic name\x00"))).
		Chunk("wamd", wamdPayload).
		Data(24000 * 4).
		Bytes()
	rec := run(t, "sm4.wav", data, nil)

	s := rec.Sensor
	assert.Equal(t, MakeWildlifeAcoustics, s.Make)
	assert.Equal(t, "SM4", s.Model)
	assert.Equal(t, "S4A03895", s.SerialNumber)
	assert.Equal(t, "2.2.1", s.Firmware)
	assert.Equal(t, "S4A03895", s.Name)
	require.Len(t, s.Microphones, 2)
	assert.Equal(t, "U2", s.Microphones[1].Type)
	require.NotNil(t, s.Microphones[1].Sensitivity)
	assert.InDelta(t, -11.5, *s.Microphones[1].Sensitivity, 1e-9)

	require.NotNil(t, rec.StartDate)
	assert.Equal(t, time.Date(2019, 8, 20, 3, 0, 0, 0, time.UTC), rec.StartDate.UTC())
	require.NotNil(t, rec.Location)
	assert.InDelta(t, 33.9009, rec.Location.Latitude, 1e-9)
	assert.InDelta(t, -84.2944, rec.Location.Longitude, 1e-9)
	assert.Equal(t, SourceWamd, rec.Location.Source)

	assert.Contains(t, rec.Tags, core.MetaField{Key: "Artist", Value: "generic name", Category: "WAV INFO", Raw: "IART"})
	assert.Equal(t, []string{"WaveHeader", "Checksum", "InfoTags", "Wamd"}, rec.ExtractedBy)
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, core.LevelInfo, rec.Notices[0].Level)
}

func TestRun_AudioMoth(t *testing.T) {
	comment := "Recorded at 00:00:00 01/01/2021 (UTC) by AudioMoth 24E144085F256162 at gain setting 3 while battery state was 4.5V. " +
		"Recording stopped before completion due to low voltage."
	data := fixture.NewWave().
		Format(1, 48000, 16).
		List("INFO",
			fixture.Chunk("ICMT", append([]byte(comment), 0)),
			fixture.Chunk("IART", []byte("AudioMoth 24E144085F256162\x00")),
		).
		Data(96000).
		Bytes()
	rec := run(t, "20210101_000000.WAV", data, nil)

	s := rec.Sensor
	assert.Equal(t, "Open Acoustic Devices", s.Make)
	assert.Equal(t, "AudioMoth", s.Model)
	assert.Equal(t, "24E144085F256162", s.SerialNumber)
	assert.Equal(t, "3", s.Gain)
	assert.Equal(t, "4.5V", s.BatteryLevel)
	assert.Equal(t, "AudioMoth 24E144085F256162", s.Name)
	require.NotNil(t, rec.StartDate)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), rec.StartDate.UTC())
	assert.Equal(t, "1", rec.Duration.RatString())

	assert.Contains(t, rec.ExtractedBy, "AudioMoth")
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, core.LevelWarning, rec.Notices[0].Level)
	assert.Contains(t, rec.Notices[0].Message, "low voltage")
}

// failingReader fails every read starting at or after failFrom.
type failingReader struct {
	*bytes.Reader
	failFrom int64
}

func (f failingReader) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.failFrom {
		return 0, errors.New("device error")
	}
	return f.Reader.ReadAt(p, off)
}

func TestRun_UnreadableCommentIsNotAudioMoth(t *testing.T) {
	payload := []byte("Recorded at 00:00:00 01/01/2021 (UTC) by AudioMoth\x00\x00")
	data := fixture.NewWave().
		Format(1, 48000, 16).
		Data(96).
		List("INFO", fixture.Chunk("ICMT", payload)).
		Bytes()
	f := failingReader{Reader: bytes.NewReader(data), failFrom: int64(len(data) - len(payload))}

	target, err := NewTarget("a.wav", f, nil)
	require.NoError(t, err)
	rec, err := Run(context.Background(), target, nil)
	require.NoError(t, err)

	assert.Empty(t, rec.Sensor.Make)
	assert.Empty(t, rec.Sensor.Model)
	assert.NotContains(t, rec.ExtractedBy, "AudioMoth")
	var sources []string
	for _, n := range rec.Notices {
		sources = append(sources, n.Source)
	}
	assert.Contains(t, sources, "AudioMoth")
}

func TestRun_FrontierLabs(t *testing.T) {
	dir := t.TempDir()
	fixture.WriteFile(t, dir, "logfile_00012345.txt",
		[]byte("Model: BAR-LT\nSerial Number: 9999-9999\nFirmware: V3.20\nSD Card CID: 1234\n\n"))
	sup, err := support.NewCache().ScanDirectory(dir, support.Kinds, 0)
	require.NoError(t, err)

	b := fixture.NewFlac()
	b.Comments = []string{
		"ARTIST=BAR-LT 0123",
		"SensorFirmwareVersion=3.20 tag1",
		"SensorUid=0000-1111",
		"BatteryLevel=86%",
		"SdCid=9F8E",
		"LocationLatitude=-27.5",
		"LocationLongitude=153.0",
		"MicrophoneType1=STD AUDIO MIC",
		"MicrophoneUid1=1A2B",
	}
	rec := run(t, filepath.Join(dir, "20200101T000000+1000_REC.flac"), b.Bytes(), sup)

	assert.Equal(t, core.FmtFLAC, rec.Format)
	assert.Equal(t, uint32(22050), rec.SampleRate)
	assert.Equal(t, "60", rec.Duration.RatString())
	assert.Equal(t, "1323000", rec.TotalSamples.RatString())

	s := rec.Sensor
	assert.Equal(t, MakeFrontierLabs, s.Make)
	assert.Equal(t, "3.20", s.Firmware)
	assert.Equal(t, "0000-1111", s.SerialNumber)
	assert.Equal(t, "BAR-LT", s.Model)
	assert.Equal(t, "86%", s.BatteryLevel)
	assert.Equal(t, "BAR-LT 0123", s.Name)
	require.Len(t, s.Microphones, 1)
	assert.Equal(t, core.Microphone{Channel: 1, Type: "STD AUDIO MIC", UID: "1A2B"}, s.Microphones[0])

	require.NotNil(t, rec.MemoryCard)
	assert.Equal(t, "9F8E", rec.MemoryCard.CID)
	require.NotNil(t, rec.Location)
	assert.Equal(t, -27.5, rec.Location.Latitude)
	assert.Equal(t, SourceVorbisComment, rec.Location.Source)
	assert.Contains(t, rec.Tags, core.MetaField{Key: "Firmware tag", Value: "tag1", Category: MakeFrontierLabs})

	assert.Equal(t, []string{"FlacHeader", "Checksum", "InfoTags", "FrontierLabsComment", "FrontierLabsLog"}, rec.ExtractedBy)
	assert.Empty(t, rec.Notices)
}

func TestRun_MalformedFirmwareIsReported(t *testing.T) {
	b := fixture.NewFlac()
	b.Comments = []string{"SensorFirmwareVersion=abc", "SensorUid=0000-1111"}
	rec := run(t, "bad.flac", b.Bytes(), nil)

	assert.Equal(t, "0000-1111", rec.Sensor.SerialNumber)
	assert.Empty(t, rec.Sensor.Firmware)
	assert.NotContains(t, rec.ExtractedBy, "FrontierLabsComment")
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, "FrontierLabsComment", rec.Notices[0].Source)
	assert.Equal(t, core.LevelError, rec.Notices[0].Level)
	assert.True(t, rec.HasErrors())
}

func TestRun_PlainFlacIsNotVendor(t *testing.T) {
	b := fixture.NewFlac()
	b.Comments = []string{"ARTIST=someone"}
	rec := run(t, "plain.flac", b.Bytes(), nil)

	assert.Empty(t, rec.Sensor.Make)
	assert.Equal(t, "someone", rec.Sensor.Name)
	assert.NotContains(t, rec.ExtractedBy, "FrontierLabsComment")
	assert.Empty(t, rec.Notices)
}

func TestRun_EmptyFile(t *testing.T) {
	rec := run(t, "empty.flac", nil, nil)
	assert.Equal(t, core.FmtFLAC, rec.Format)
	assert.Equal(t, uint64(0), rec.FileLength)
	assert.Empty(t, rec.ExtractedBy)
	assert.Nil(t, rec.Checksum)
}

func TestRunTable_OrderAndFailure(t *testing.T) {
	data := fixture.NewWave().Format(1, 8000, 16).Data(16).Bytes()
	target, err := NewTarget("x.wav", bytes.NewReader(data), nil)
	require.NoError(t, err)

	var order []string
	step := func(k Kind, err error) Extractor {
		return Extractor{
			Kind:       k,
			CanProcess: func(*Target) bool { return true },
			Process: func(_ context.Context, _ *Target, rec *core.Recording) error {
				order = append(order, k.String())
				fill(&rec.Sensor.Model, k.String())
				return err
			},
		}
	}
	table := []Extractor{
		step(KindWaveHeader, nil),
		step(KindWamd, errors.New("boom")),
		step(KindAudioMoth, stream.NewStructural("absent")),
	}
	rec, err := RunTable(context.Background(), target, table, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"WaveHeader", "Wamd", "AudioMoth"}, order)
	assert.Equal(t, "WaveHeader", rec.Sensor.Model)
	assert.Equal(t, []string{"WaveHeader"}, rec.ExtractedBy)
	require.Len(t, rec.Notices, 1)
	assert.Equal(t, "boom", rec.Notices[0].Message)
}

func TestRun_Cancelled(t *testing.T) {
	data := fixture.NewWave().Format(1, 8000, 16).Data(16).Bytes()
	target, err := NewTarget("x.wav", bytes.NewReader(data), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, target, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerge(t *testing.T) {
	s := ""
	fill(&s, "a")
	fill(&s, "b")
	assert.Equal(t, "a", s)
	override(&s, "c")
	override(&s, "")
	assert.Equal(t, "c", s)
}

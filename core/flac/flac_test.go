package flac

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	mflac "github.com/mewkiz/flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoacoustics/emu/core/stream"
	"github.com/ecoacoustics/emu/internal/fixture"
)

func open(t *testing.T, data []byte) *Reader {
	t.Helper()
	f, err := Open(bytes.NewReader(data), uint64(len(data)))
	require.NoError(t, err)
	return f
}

func TestOpen_Signature(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("RIFF")), 4)
	assert.ErrorIs(t, err, ErrNotFlac)
	assert.True(t, stream.IsStructural(err))

	_, err = Open(bytes.NewReader([]byte("fL")), 2)
	assert.ErrorIs(t, err, ErrNotFlac)
}

func TestBlocks(t *testing.T) {
	b := fixture.NewFlac()
	b.Comments = []string{"A=1"}
	b.Padding = 10
	b.Audio = []byte{0xFF, 0xF8, 0x00}
	data := b.Bytes()

	f := open(t, data)
	blocks, err := f.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockStreamInfo, blocks[0].Type)
	assert.Equal(t, uint32(StreamInfoSize), blocks[0].Size)
	assert.Equal(t, BlockVorbisComment, blocks[1].Type)
	assert.Equal(t, BlockPadding, blocks[2].Type)
	assert.True(t, blocks[2].IsLast)
	assert.False(t, blocks[1].IsLast)

	audio, err := f.AudioOffset()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)-3), audio)
}

func TestWalk_BoundedOnCorruptChain(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Marker)
	for i := 0; i < MaxBlocks+5; i++ {
		buf.Write([]byte{byte(BlockPadding), 0, 0, 0})
	}
	data := buf.Bytes()

	_, err := open(t, data).Blocks()
	assert.ErrorIs(t, err, ErrTooManyBlocks)

	_, err = open(t, data).FindBlock(BlockVorbisComment)
	assert.ErrorIs(t, err, ErrTooManyBlocks)
}

func TestFindBlock_Missing(t *testing.T) {
	_, err := open(t, fixture.NewFlac().Bytes()).FindBlock(BlockVorbisComment)
	assert.ErrorIs(t, err, ErrBlockNotFound)
	assert.True(t, stream.IsStructural(err))
}

func TestReadStreamInfo(t *testing.T) {
	b := fixture.NewFlac()
	b.Info = fixture.StreamInfo{
		BlockSize:     4608,
		SampleRate:    44100,
		Channels:      2,
		BitsPerSample: 24,
		TotalSamples:  0x9_0000_0123,
	}
	si, err := open(t, b.Bytes()).ReadStreamInfo()
	require.NoError(t, err)

	assert.Equal(t, uint16(4608), si.MinBlockSize)
	assert.Equal(t, uint16(4608), si.MaxBlockSize)
	assert.Equal(t, uint32(44100), si.SampleRate)
	assert.Equal(t, uint8(2), si.Channels)
	assert.Equal(t, uint8(24), si.BitsPerSample)
	assert.Equal(t, uint64(0x9_0000_0123), si.TotalSamples)
	assert.Equal(t, stream.New(8, StreamInfoSize), si.Range)
	assert.Equal(t, stream.New(21, 5), si.TotalSamplesRange())
	assert.Equal(t, uint64(44100*2*24), si.BitRate())
}

func TestReadStreamInfo_MatchesMewkiz(t *testing.T) {
	infos := []fixture.StreamInfo{
		fixture.DefaultStreamInfo,
		{BlockSize: 4096, SampleRate: 96000, Channels: 8, BitsPerSample: 32, TotalSamples: 1<<36 - 1},
		{BlockSize: 1152, SampleRate: 8000, Channels: 1, BitsPerSample: 8, TotalSamples: 17},
		{BlockSize: 4096, SampleRate: 655350, Channels: 3, BitsPerSample: 17, TotalSamples: 0xF_0F0F_0F0F},
	}
	for _, info := range infos {
		b := fixture.NewFlac()
		b.Info = info
		b.Comments = []string{"SensorFirmwareVersion=3.20"}
		data := b.Bytes()

		ref, err := mflac.Parse(bytes.NewReader(data))
		require.NoError(t, err)

		si, err := open(t, data).ReadStreamInfo()
		require.NoError(t, err)
		assert.Equal(t, ref.Info.NSamples, si.TotalSamples)
		assert.Equal(t, ref.Info.SampleRate, si.SampleRate)
		assert.Equal(t, ref.Info.NChannels, si.Channels)
		assert.Equal(t, ref.Info.BitsPerSample, si.BitsPerSample)
		assert.Equal(t, ref.Info.BlockSizeMax, si.MaxBlockSize)
	}
}

func TestStreamInfo_Duration(t *testing.T) {
	si := StreamInfo{SampleRate: 22050, TotalSamples: 22050*60 + 1}
	d, err := si.Duration()
	require.NoError(t, err)
	assert.Zero(t, big.NewRat(22050*60+1, 22050).Cmp(d))

	_, err = StreamInfo{}.Duration()
	assert.ErrorIs(t, err, ErrBadStreamInfo)
}

func TestReadStreamInfo_Short(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Marker)
	buf.Write([]byte{0x80, 0, 0, 10})
	buf.Write(make([]byte, 10))

	_, err := open(t, buf.Bytes()).ReadStreamInfo()
	assert.ErrorIs(t, err, ErrBadStreamInfo)
}

func TestFindComment_ExactRange(t *testing.T) {
	b := fixture.NewFlac()
	b.Comments = []string{"SensorUid=0123", "SensorFirmwareVersion=3.20 tag", "SensorFirmwareVersion=9.99"}
	data := b.Bytes()

	c, err := open(t, data).FindComment("SensorFirmwareVersion=")
	require.NoError(t, err)
	assert.Equal(t, "SensorFirmwareVersion=3.20 tag", c.Text)
	assert.Equal(t, "SensorFirmwareVersion", c.Key())
	assert.Equal(t, "3.20 tag", c.Value())
	assert.Equal(t, c.Text, string(data[c.Range.Start:c.Range.End()]))

	prefix := binary.LittleEndian.Uint32(data[c.Range.Start-4 : c.Range.Start])
	assert.Equal(t, uint32(len(c.Text)), prefix)
}

func TestFindComment_Missing(t *testing.T) {
	b := fixture.NewFlac()
	b.Comments = []string{"ARTIST=nobody"}

	_, err := open(t, b.Bytes()).FindComment("SensorFirmwareVersion=")
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.True(t, stream.IsStructural(err))
}

func TestReadComments(t *testing.T) {
	b := fixture.NewFlac()
	b.Comments = []string{"A=1", "B=two"}

	vc, err := open(t, b.Bytes()).ReadComments()
	require.NoError(t, err)
	assert.Equal(t, b.Vendor, vc.Vendor)
	require.Len(t, vc.Comments, 2)
	assert.Equal(t, "B", vc.Comments[1].Key())
	assert.Equal(t, "two", vc.Comments[1].Value())
}

func TestReadComments_CorruptLength(t *testing.T) {
	payload := fixture.VorbisPayload("v", "A=1")
	// Inflate the comment length beyond the block.
	binary.LittleEndian.PutUint32(payload[9:13], 500)

	var buf bytes.Buffer
	buf.WriteString(Marker)
	buf.Write([]byte{0x00, 0, 0, StreamInfoSize})
	buf.Write(fixture.StreamInfoPayload(fixture.DefaultStreamInfo))
	n := len(payload)
	buf.Write([]byte{0x84, byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(payload)

	_, err := open(t, buf.Bytes()).ReadComments()
	assert.ErrorIs(t, err, ErrBadVorbisComment)
}

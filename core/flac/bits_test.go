package flac

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead36Bit_KnownPatterns(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"zero", []byte{0x00, 0, 0, 0, 0}, 0},
		{"max", []byte{0x0F, 0xFF, 0xFF, 0xFF, 0xFF}, Max36Bit},
		{"max with top nibble", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, Max36Bit},
		{"low word only", []byte{0xF0, 0x00, 0x01, 0x00, 0x00}, 0x10000},
		{"high nibble only", []byte{0x31, 0, 0, 0, 0}, 1 << 32},
		{"spans boundary", []byte{0x52, 0x80, 0x00, 0x00, 0x01}, 0x2_8000_0001},
		{"typical 60s at 22050", []byte{0xF0, 0x00, 0x14, 0x2F, 0xF8}, 1323000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Read36BitUnsignedBigEndianIgnoringFirstOctet(tt.in))
		})
	}
}

func TestRead36Bit_IgnoresTopNibble(t *testing.T) {
	rng := rand.New(rand.NewSource(36))
	for i := 0; i < 2000; i++ {
		base := make([]byte, 5)
		rng.Read(base)
		want := Read36BitUnsignedBigEndianIgnoringFirstOctet(base)

		for nibble := 0; nibble < 16; nibble++ {
			other := append([]byte(nil), base...)
			other[0] = byte(nibble)<<4 | other[0]&0x0F
			require.Equal(t, want, Read36BitUnsignedBigEndianIgnoringFirstOctet(other),
				"buffer %x with top nibble %x", base, nibble)
		}
	}
}

func TestWrite36Bit_RoundTripPreservesBuffer(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 5000; i++ {
		buf := make([]byte, 5)
		rng.Read(buf)
		original := append([]byte(nil), buf...)

		require.NoError(t, Write36BitUnsignedBigEndianIgnoringFirstOctet(buf, Read36BitUnsignedBigEndianIgnoringFirstOctet(buf)))
		require.Equal(t, original, buf)
	}
}

func TestWrite36Bit_PreservesCallerNibble(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 2000; i++ {
		value := uint64(rng.Int63()) & Max36Bit
		nibble := byte(rng.Intn(16)) << 4

		buf := []byte{nibble | 0x0F, 0xAA, 0xBB, 0xCC, 0xDD}
		require.NoError(t, Write36BitUnsignedBigEndianIgnoringFirstOctet(buf, value))

		assert.Equal(t, nibble, buf[0]&0xF0)
		assert.Equal(t, value, Read36BitUnsignedBigEndianIgnoringFirstOctet(buf))
	}
}

func TestWrite36Bit_Exact(t *testing.T) {
	buf := []byte{0xA7, 0, 0, 0, 0}
	require.NoError(t, Write36BitUnsignedBigEndianIgnoringFirstOctet(buf, 0x3_1234_5678))
	assert.Equal(t, []byte{0xA3, 0x12, 0x34, 0x56, 0x78}, buf)
}

func TestWrite36Bit_Rejects(t *testing.T) {
	assert.Error(t, Write36BitUnsignedBigEndianIgnoringFirstOctet(make([]byte, 5), Max36Bit+1))
	assert.Error(t, Write36BitUnsignedBigEndianIgnoringFirstOctet(make([]byte, 4), 1))
}

func TestReadBlockHeader(t *testing.T) {
	isLast, kind, size := ReadBlockHeader([]byte{0x84, 0x00, 0x01, 0x02})
	assert.True(t, isLast)
	assert.Equal(t, uint8(4), kind)
	assert.Equal(t, uint32(0x102), size)

	isLast, kind, size = ReadBlockHeader([]byte{0x7F, 0xFF, 0xFF, 0xFF})
	assert.False(t, isLast)
	assert.Equal(t, uint8(0x7F), kind)
	assert.Equal(t, uint32(0xFFFFFF), size)
}

func TestRead20Bit(t *testing.T) {
	// 44100 = 0x0AC44, followed by an unrelated nibble.
	assert.Equal(t, uint32(44100), Read20BitBigEndian([]byte{0x0A, 0xC4, 0x4F}))
}

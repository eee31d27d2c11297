package stream

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_Slice(t *testing.T) {
	parent := New(100, 50)

	sub, err := parent.Slice(10, 20)
	require.NoError(t, err)
	assert.Equal(t, New(110, 20), sub)
	assert.True(t, parent.Contains(sub))

	whole, err := parent.Slice(0, 50)
	require.NoError(t, err)
	assert.Equal(t, parent, whole)

	_, err = parent.Slice(40, 11)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = parent.Slice(51, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRange_From(t *testing.T) {
	tail, err := New(8, 12).From(4)
	require.NoError(t, err)
	assert.Equal(t, New(12, 8), tail)

	_, err = New(8, 12).From(13)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRange_Clamp(t *testing.T) {
	assert.Equal(t, New(10, 5), New(10, 100).Clamp(15))
	assert.Equal(t, New(10, 5), New(10, 5).Clamp(100))
	assert.Equal(t, New(20, 0), New(30, 5).Clamp(20))
}

func TestReadExact(t *testing.T) {
	r := bytes.NewReader([]byte("0123456789"))

	got, err := ReadExact(r, New(2, 3))
	require.NoError(t, err)
	assert.Equal(t, []byte("234"), got)

	got, err = ReadExact(r, New(8, 4))
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, []byte("89"), got)

	got, err = ReadExact(r, New(10, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSeekAndReadExact(t *testing.T) {
	r := bytes.NewReader([]byte("RIFFxxxxWAVE"))

	got, err := SeekAndReadExact(r, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, "WAVE", string(got))

	_, err = SeekAndReadExact(r, 10, 4)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadUpTo(t *testing.T) {
	r := bytes.NewReader(make([]byte, 100))

	got, err := ReadUpTo(r, New(0, 100), 16)
	require.NoError(t, err)
	assert.Len(t, got, 16)
}

func TestLength_PreservesPosition(t *testing.T) {
	r := bytes.NewReader(make([]byte, 42))
	_, err := r.Seek(7, 0)
	require.NoError(t, err)

	n, err := Length(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)

	pos, err := r.Seek(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)
}

func TestIsStructural(t *testing.T) {
	sentinel := NewStructural("not here")
	assert.True(t, IsStructural(sentinel))
	assert.True(t, IsStructural(fmt.Errorf("wrapped: %w", sentinel)))
	assert.False(t, IsStructural(errors.New("plain")))
	assert.False(t, IsStructural(ErrTruncated))
}

package support

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoacoustics/emu/core/vendors/frontierlabs"
	"github.com/ecoacoustics/emu/internal/fixture"
)

const logHeader = "Serial Number: 0000-1111\nFirmware: V3.20\n\nrest of log\n"

func TestGetOrParse_ParsesOnceUnderConcurrency(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	parse := func(path string) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "parsed " + path, nil
	}

	const n = 32
	results := make([]*File, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetOrParse(KindFrontierLabsLog, "/logs/a.txt", parse)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, "parsed /logs/a.txt", results[0].Value)

	c.GetOrParse(KindFrontierLabsLog, "/logs/a.txt", parse)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrParse_CachesFailure(t *testing.T) {
	c := NewCache()
	var calls int
	boom := errors.New("boom")
	parse := func(string) (any, error) {
		calls++
		return nil, boom
	}

	f := c.GetOrParse(KindFrontierLabsLog, "x", parse)
	assert.ErrorIs(t, f.Err, boom)
	f = c.GetOrParse(KindFrontierLabsLog, "x", parse)
	assert.ErrorIs(t, f.Err, boom)
	assert.Equal(t, 1, calls)
}

func TestFindUp(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "site1", "card1")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	want := fixture.WriteFile(t, root, "site1/BAR_logfile_0001.txt", []byte(logHeader))

	got, err := FindUp(deep, frontierlabs.LogFilePattern, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = FindUp(deep, frontierlabs.LogFilePattern, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	fixture.WriteFile(t, root, "site1/BAR_logfile_0002.txt", []byte(logHeader))
	_, err = FindUp(deep, frontierlabs.LogFilePattern, 2)
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestFindUp_IgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "old_logfile_dir.txt"), 0o755))

	got, err := FindUp(root, frontierlabs.LogFilePattern, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	fixture.WriteFile(t, root, "logfile_00012345.txt", []byte(logHeader))
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(a, 0o755))
	require.NoError(t, os.MkdirAll(b, 0o755))

	c := NewCache()
	ta, err := c.ScanDirectory(a, Kinds, 1)
	require.NoError(t, err)
	tb, err := c.ScanDirectory(b, Kinds, 1)
	require.NoError(t, err)

	fa, ok := ta.Get(KindFrontierLabsLog)
	require.True(t, ok)
	fb, ok := tb.Get(KindFrontierLabsLog)
	require.True(t, ok)
	assert.Same(t, fa, fb)
	require.NoError(t, fa.Err)
	header, ok := fa.Value.(frontierlabs.LogHeader)
	require.True(t, ok)
	assert.Equal(t, "0000-1111", header.SerialNumber())

	again, err := c.ScanDirectory(a, Kinds, 1)
	require.NoError(t, err)
	assert.Same(t, ta, again)
}

func TestScanDirectory_ConcurrentParseOnce(t *testing.T) {
	root := t.TempDir()
	fixture.WriteFile(t, root, "logfile.txt", []byte(logHeader))
	var calls atomic.Int32
	kinds := []KindSpec{{
		Kind:    KindFrontierLabsLog,
		Pattern: frontierlabs.LogFilePattern,
		Parse: func(path string) (any, error) {
			calls.Add(1)
			time.Sleep(10 * time.Millisecond)
			return parseFrontierLabsLog(path)
		},
	}}

	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		dir := filepath.Join(root, "d", string(rune('a'+i)))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ScanDirectory(dir, kinds, 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestScanDirectory_Ambiguous(t *testing.T) {
	root := t.TempDir()
	fixture.WriteFile(t, root, "a_logfile.txt", []byte(logHeader))
	fixture.WriteFile(t, root, "b_logfile.txt", []byte(logHeader))

	c := NewCache()
	ts, err := c.ScanDirectory(root, Kinds, 0)
	assert.ErrorIs(t, err, ErrAmbiguous)
	require.NotNil(t, ts)
	assert.Equal(t, 0, ts.Len())
}

func TestTargetSupportFiles_Nil(t *testing.T) {
	var ts *TargetSupportFiles
	_, ok := ts.Get(KindFrontierLabsLog)
	assert.False(t, ok)
	assert.Equal(t, 0, ts.Len())
}

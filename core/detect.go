package core

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FormatID enumerates every recognised container.
type FormatID string

const (
	FmtWAV  FormatID = "wav"
	FmtFLAC FormatID = "flac"

	// Recognised so they can be reported, but never processed.
	FmtMP3  FormatID = "mp3"
	FmtOGG  FormatID = "ogg"
	FmtAIFF FormatID = "aiff"

	FmtUnknown FormatID = "unknown"
)

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".wav":  FmtWAV,
	".wave": FmtWAV,
	".flac": FmtFLAC,
	".mp3":  FmtMP3,
	".ogg":  FmtOGG,
	".oga":  FmtOGG,
	".aif":  FmtAIFF,
	".aiff": FmtAIFF,
}

// magicSize is enough bytes to tell every recognised container apart.
const magicSize = 12

// Supported reports whether emu can extract from and repair a container.
func (id FormatID) Supported() bool {
	return id == FmtWAV || id == FmtFLAC
}

// DetectFormat returns the FormatID for the file at path, first by reading
// magic bytes and falling back to extension.
func DetectFormat(path string) (FormatID, error) {
	f, err := os.Open(path)
	if err != nil {
		return FmtUnknown, err
	}
	defer f.Close()

	id, err := DetectReader(f)
	if err != nil {
		return FmtUnknown, err
	}
	if id != FmtUnknown {
		return id, nil
	}
	return FormatFromExtension(path), nil
}

// DetectReader sniffs the container of r from its leading bytes only. An
// empty or short stream is FmtUnknown, not an error.
func DetectReader(r io.ReaderAt) (FormatID, error) {
	buf := make([]byte, magicSize)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return FmtUnknown, err
	}
	return detectMagic(buf[:n]), nil
}

// FormatFromExtension maps a file name's extension to a FormatID.
func FormatFromExtension(path string) FormatID {
	if id, ok := extMap[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return FmtUnknown
}

func detectMagic(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// FLAC: fLaC
	case bytes.HasPrefix(b, []byte("fLaC")):
		return FmtFLAC
	// WAV: RIFF????WAVE
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return FmtWAV
	// OGG: OggS
	case bytes.HasPrefix(b, []byte("OggS")):
		return FmtOGG
	// AIFF: FORM????AIFF or AIFC
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("FORM")) &&
		(bytes.Equal(b[8:12], []byte("AIFF")) || bytes.Equal(b[8:12], []byte("AIFC"))):
		return FmtAIFF
	// MP3: ID3 tag or frame sync
	case bytes.HasPrefix(b, []byte("ID3")):
		return FmtMP3
	case b[0] == 0xFF && (b[1]&0xE0 == 0xE0):
		return FmtMP3
	}
	return FmtUnknown
}

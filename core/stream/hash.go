package stream

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// DigestSize is the length of a BLAKE3 digest as used by emu.
const DigestSize = 32

// Digest is a BLAKE3 content hash.
type Digest [DigestSize]byte

// String returns the hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashRange computes the BLAKE3 digest of rg. The range is streamed through
// the hasher so memory use does not depend on its length.
func HashRange(r io.ReaderAt, rg Range) (Digest, error) {
	hasher := blake3.New()
	n, err := io.Copy(hasher, io.NewSectionReader(r, int64(rg.Start), int64(rg.Length)))
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", rg, err)
	}
	if uint64(n) != rg.Length {
		return Digest{}, fmt.Errorf("hashing %s: got %d bytes: %w", rg, n, ErrTruncated)
	}
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d, nil
}

// HashFile computes the BLAKE3 digest of the file at path.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d, nil
}

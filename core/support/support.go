// Package support finds and parses the companion files sensors write next
// to their recordings, such as Frontier Labs log files.
//
// A Cache parses every support file at most once per process, however many
// recordings refer to it and however many goroutines ask.
package support

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ecoacoustics/emu/core/vendors/frontierlabs"
)

// Kind names a type of support file.
type Kind string

// Known support file kinds.
const (
	KindFrontierLabsLog Kind = "frontier-labs-log"
)

// ErrAmbiguous means one directory level holds several candidate files, so
// none can be attributed to a recording.
var ErrAmbiguous = errors.New("ambiguous support file")

// ParseFunc parses the support file at path.
type ParseFunc func(path string) (any, error)

// KindSpec describes how to find and parse one kind.
type KindSpec struct {
	Kind    Kind
	Pattern string
	Parse   ParseFunc
}

// Kinds is the closed set of support file kinds emu understands.
var Kinds = []KindSpec{
	{Kind: KindFrontierLabsLog, Pattern: frontierlabs.LogFilePattern, Parse: parseFrontierLabsLog},
}

func parseFrontierLabsLog(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return frontierlabs.ParseLogHeader(f)
}

// File is one parsed support file. Err is set when parsing failed; the
// failure is cached like a success.
type File struct {
	Kind  Kind
	Path  string
	Value any
	Err   error
}

// TargetSupportFiles holds the support files that apply to every recording
// in one directory. It is built once per directory and shared read-only.
type TargetSupportFiles struct {
	Dir   string
	files map[Kind]*File
}

// Get returns the support file of a kind.
func (t *TargetSupportFiles) Get(k Kind) (*File, bool) {
	if t == nil {
		return nil, false
	}
	f, ok := t.files[k]
	return f, ok
}

// Len returns the number of support files found.
func (t *TargetSupportFiles) Len() int {
	if t == nil {
		return 0
	}
	return len(t.files)
}

// Cache memoises parsed support files by path and scanned directories by
// directory.
type Cache struct {
	mu    sync.Mutex
	files map[string]*File
	dirs  map[string]*TargetSupportFiles
	group singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		files: make(map[string]*File),
		dirs:  make(map[string]*TargetSupportFiles),
	}
}

// GetOrParse returns the cached result for path, running parse only if no
// caller has parsed it before. Concurrent callers share one parse.
func (c *Cache) GetOrParse(k Kind, path string, parse ParseFunc) *File {
	if f, ok := c.lookupFile(path); ok {
		return f
	}
	v, _, _ := c.group.Do("file:"+path, func() (any, error) {
		if f, ok := c.lookupFile(path); ok {
			return f, nil
		}
		value, err := parse(path)
		f := &File{Kind: k, Path: path, Value: value, Err: err}
		c.mu.Lock()
		c.files[path] = f
		c.mu.Unlock()
		return f, nil
	})
	return v.(*File)
}

func (c *Cache) lookupFile(path string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[path]
	return f, ok
}

// ScanDirectory finds and parses the support files for recordings in dir,
// searching up to depth parent directories. The result is computed once per
// directory; an ambiguous kind is skipped rather than failing the scan, and
// only the first caller sees that error.
func (c *Cache) ScanDirectory(dir string, kinds []KindSpec, depth int) (*TargetSupportFiles, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	t, ok := c.dirs[dir]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	v, err, _ := c.group.Do("dir:"+dir, func() (any, error) {
		c.mu.Lock()
		t, ok := c.dirs[dir]
		c.mu.Unlock()
		if ok {
			return t, nil
		}

		t = &TargetSupportFiles{Dir: dir, files: make(map[Kind]*File)}
		var errs []error
		for _, spec := range kinds {
			path, err := FindUp(dir, spec.Pattern, depth)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", spec.Kind, err))
				continue
			}
			if path == "" {
				continue
			}
			t.files[spec.Kind] = c.GetOrParse(spec.Kind, path, spec.Parse)
		}

		c.mu.Lock()
		c.dirs[dir] = t
		c.mu.Unlock()
		return t, errors.Join(errs...)
	})
	if v == nil {
		return nil, err
	}
	return v.(*TargetSupportFiles), err
}

// FindUp searches dir and up to maxDepth of its parents for a file matching
// pattern, returning the nearest match. It returns "" when nothing matches
// and ErrAmbiguous when the nearest level holds more than one match.
func FindUp(dir, pattern string, maxDepth int) (string, error) {
	for level := 0; level <= maxDepth; level++ {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		matches = regularFiles(matches)
		switch len(matches) {
		case 0:
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("%w: %d matches for %q in %s", ErrAmbiguous, len(matches), pattern, dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func regularFiles(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

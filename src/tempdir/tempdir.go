package tempdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Dir is a directory owned by the process for the duration of one run. It is removed
// together with everything inside it by Release.
type Dir struct {
	path string

	once       sync.Once
	releaseErr error
}

// Create makes a new uniquely named directory under base (os.TempDir() when empty).
// The last "*" in pattern is replaced by a random string.
func Create(base string, pattern string) (*Dir, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating temporary base %s: %w", base, err)
	}
	path, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) Join(name string) string {
	return filepath.Join(d.path, name)
}

// Release removes the directory recursively. Only the first call does any work, so it
// can be deferred and called explicitly. A directory that is already gone is not an error.
// Releasing a nil Dir is a no-op.
func (d *Dir) Release() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		err := os.RemoveAll(d.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			d.releaseErr = fmt.Errorf("removing temporary directory %s: %w", d.path, err)
		}
	})
	return d.releaseErr
}

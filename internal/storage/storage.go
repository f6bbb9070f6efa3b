// Package storage abstracts the blob store holding models, games and training data.
//
// All rl-loop state lives in storage: there is no other index or checkpoint, so every
// query (e.g. "which is the latest model") is answered by listing storage again.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Storage is the minimal interface rl-loop needs from a blob store.
// Paths are full paths (or object names) including the bucket root.
type Storage interface {
	// Glob returns the sorted list of paths matching pattern, with the syntax of filepath.Match.
	// A non-existing directory simply yields no matches.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// ReadFile returns the full contents of path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path, creating any parent directories.
	// Readers never observe a partially written file.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// Local implements Storage on the local filesystem.
type Local struct{}

// Assert Local implements Storage.
var _ Storage = Local{}

// Glob implements Storage.
func (Local) Glob(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid glob pattern %q", pattern)
	}
	slices.Sort(matches)
	return matches, nil
}

// Exists implements Storage.
func (Local) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %q", path)
}

// ReadFile implements Storage.
func (Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	return data, nil
}

// WriteFile implements Storage. It writes to a temporary file in the same directory and renames it
// in place.
func (Local) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %q", dir)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %q", path)
	}
	tmpPath := f.Name()
	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			klog.Warningf("failed to remove temporary file %q: %v", tmpPath, removeErr)
		}
		return errors.Wrapf(err, "failed to write %q", path)
	}
	klog.V(2).Infof("wrote %d bytes to %s", len(data), path)
	return nil
}

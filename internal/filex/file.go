// Package filex holds small filesystem helpers for the client's data
// directory and for files picked by the user.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotRegularFile is returned when a path names a directory or device.
var ErrNotRegularFile = errors.New("not a regular file")

// EnsureDir creates dir (and parents) with owner-only permissions and
// returns its absolute path. Relative paths are resolved against the
// current working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// CheckRegularFile stats path and fails unless it is a readable regular file.
func CheckRegularFile(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	return fi, nil
}

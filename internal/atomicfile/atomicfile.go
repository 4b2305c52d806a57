// Package atomicfile replaces files so readers see either the old or the new content.
package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// WriteFile replaces path with data through a uniquely named temp file in the same directory.
// The result always has mode perm, even when an existing file had a wider one.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	// the replacement inherits the mode of the file it replaces
	if err := os.Chmod(path, perm); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to restrict %s: %w", path, err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}

	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}

	return nil
}

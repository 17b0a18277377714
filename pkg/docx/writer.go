package docx

import (
	"fmt"
	"os"
	"path/filepath"
)

// WritePackage stores package bytes at path. The file is written to a
// temporary sibling and renamed so a failed write never leaves a partial
// package behind.
func WritePackage(path string, data []byte) error {
	fail := func(cause error) error {
		return NewDocumentError(ErrWriteError, "write", path, cause)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fail(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fail(fmt.Errorf("rename: %w", err))
	}
	return nil
}

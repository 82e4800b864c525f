package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/appbundle/internal/model"
)

// outputFileMode is the permission of published output files.
const outputFileMode = 0o644

// WriteFileAtomic writes the output of write to path.
// Data goes to a temporary file in the same directory which is renamed over
// path once complete; on any error the temporary file is removed and path
// is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()        //nolint:errcheck // Already failing
			_ = os.Remove(tmpName) //nolint:errcheck // Best-effort cleanup
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Chmod(tmpName, outputFileMode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// WriteManifestFile atomically writes manifest to path as two-space
// indented JSON.
func WriteManifestFile(path string, manifest *model.Manifest) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := NewJSONWriter(w, WithPrettyPrint()).Write(manifest)
		return err
	})
}

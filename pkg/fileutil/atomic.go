// Package fileutil provides file system utilities including atomic writes
// and attribute-preserving copies.
package fileutil

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/rombak/internal/errors"
)

// AtomicWrite streams the output of fill into a temp file next to path and
// renames it into place. An interrupted or failed write leaves any existing
// file at path intact.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicWrite(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)

	// Same directory so the rename stays on one filesystem
	tmp, err := os.CreateTemp(dir, ".rombak-atomic-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}

	tmpName := tmp.Name()
	defer func() {
		// Only remove if rename failed (file still exists)
		if _, statErr := os.Stat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "setting file permissions")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}

	return nil
}

// AtomicWriteFile writes data to path atomically with perm.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWrite(path, perm, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "writing temp file")
		}
		return nil
	})
}

// AtomicWriteJSON writes v as indented JSON to path atomically with 0644
// permissions and a trailing newline.
func AtomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}
	return AtomicWriteFile(path, append(data, '\n'), 0o644)
}

// AtomicWriteYAML writes v as YAML to path atomically with 0644 permissions.
func AtomicWriteYAML(path string, v any) (err error) {
	// yaml.Marshal panics on unmarshalable types
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}
	return AtomicWriteFile(path, ensureNewline(data), 0o644)
}

func ensureNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data
}

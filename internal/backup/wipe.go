package backup

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/thoreinstein/rombak/internal/errors"
)

// wipe deletes every top-level entry of dir whose name is not in keep. It
// stops at the first entry that cannot be removed.
func (e *Engine) wipe(dir string, keep []string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "reading %s", dir)
	}
	for _, d := range entries {
		if slices.Contains(keep, d.Name()) {
			continue
		}
		p := filepath.Join(dir, d.Name())
		if err := os.RemoveAll(p); err != nil {
			return errors.Wrapf(err, "wiping %s", p)
		}
	}
	e.logger.Debug("wiped directory", "path", dir, "kept", keep)
	return nil
}

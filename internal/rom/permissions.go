package rom

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	goselinux "github.com/opencontainers/selinux/go-selinux"

	"github.com/thoreinstein/rombak/internal/errors"
)

const (
	// SdcardRWGID is Android's sdcard_rw group.
	SdcardRWGID = 1015
	// MediaContext is the SELinux label of files on internal storage.
	MediaContext = "u:object_r:media_rw_data_file:s0"

	dirMode  = 0o775
	fileMode = 0o664
)

var setFileLabel = goselinux.LsetFileLabel

// Permissions normalizes a multiboot tree so the Android media provider and
// the companion app can read it.
type Permissions struct {
	Logger *slog.Logger
	// AsRoot forces ownership and label changes. When false they are only
	// attempted if the effective uid is 0.
	AsRoot bool
}

// Apply walks root setting modes, ownership and labels. Per-entry failures
// are logged and the walk continues. A missing root is not an error.
func (p *Permissions) Apply(root string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	privileged := p.AsRoot || os.Geteuid() == 0

	if _, err := os.Lstat(root); os.IsNotExist(err) {
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("cannot read entry", "path", path, "error", err)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		mode := os.FileMode(fileMode)
		if d.IsDir() {
			mode = dirMode
		}
		if err := os.Chmod(path, mode); err != nil {
			logger.Warn("chmod failed", "path", path, "error", err)
		}
		if !privileged {
			return nil
		}
		if err := os.Lchown(path, 0, SdcardRWGID); err != nil {
			logger.Warn("chown failed", "path", path, "error", err)
		}
		if err := setFileLabel(path, MediaContext); err != nil {
			logger.Debug("relabel failed", "path", path, "error", err)
		}
		return nil
	})
	return errors.Wrapf(err, "fixing permissions under %s", root)
}

package backup

import (
	"os"
	"path/filepath"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/locator"
)

// BackupPartition archives the partition described by spec to archivePath.
// A missing partition yields FilesMissing and leaves archivePath untouched.
func (e *Engine) BackupPartition(spec PartitionSpec, archivePath string, kind compression.Kind, splitSize uint64) (Result, error) {
	e.logger.Info("=== Backing up " + spec.Path + " ===")

	if _, err := os.Stat(spec.Path); err != nil {
		if os.IsNotExist(err) {
			e.logger.Warn("partition does not exist", "path", spec.Path)
			return FilesMissing, nil
		}
		return e.fail(spec.Path, errors.Wrapf(err, "stat %s", spec.Path))
	}

	if spec.IsImage {
		return e.backupImage(spec, archivePath, kind, splitSize)
	}
	return e.backupDirectory(spec.Path, spec, archivePath, kind, splitSize)
}

func (e *Engine) backupDirectory(dir string, spec PartitionSpec, archivePath string, kind compression.Kind, splitSize uint64) (Result, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return e.fail(dir, errors.Wrapf(err, "reading %s", dir))
	}

	entries := make([]string, 0, len(dirEntries))
	for _, d := range dirEntries {
		if spec.excluded(d.Name()) {
			e.logger.Debug("excluding entry", "path", filepath.Join(dir, d.Name()))
			continue
		}
		entries = append(entries, d.Name())
	}

	if err := e.archiver.Create(archivePath, dir, entries, kind, splitSize); err != nil {
		return e.fail(dir, errors.Wrapf(err, "archiving %s", dir))
	}
	e.logger.Info("archive created", "path", archivePath, "entries", len(entries))
	return Succeeded, nil
}

func (e *Engine) backupImage(spec PartitionSpec, archivePath string, kind compression.Kind, splitSize uint64) (Result, error) {
	if err := e.requireImages(); err != nil {
		return e.fail(spec.Path, err)
	}
	if err := e.prepareMountDir(); err != nil {
		return e.fail(spec.Path, err)
	}

	e.images.Repair(spec.Path)

	if err := e.mounter.MountImage(spec.Path, e.mountDir, true); err != nil {
		return e.fail(spec.Path, errors.Wrapf(err, "mounting %s", spec.Path))
	}
	defer e.releaseMountDir()

	return e.backupDirectory(e.mountDir, spec, archivePath, kind, splitSize)
}

// RestorePartition replaces the contents of the partition described by spec
// with the archive desc found in archiveDir. The archive's presence is
// checked before anything is wiped; if it is absent the result is
// FilesMissing and the partition is unchanged.
func (e *Engine) RestorePartition(spec PartitionSpec, archiveDir string, desc locator.Descriptor) (Result, error) {
	archivePath := desc.Path(archiveDir)
	first := desc.FirstFile(archiveDir)
	if _, err := os.Stat(first); err != nil {
		if os.IsNotExist(err) {
			e.logger.Warn("archive does not exist", "path", first)
			return FilesMissing, nil
		}
		return e.fail(first, errors.Wrapf(err, "stat %s", first))
	}

	e.logger.Info("=== Restoring to " + spec.Path + " ===")

	if spec.IsImage {
		return e.restoreImage(spec, archivePath, desc)
	}

	if err := os.MkdirAll(spec.Path, 0o755); err != nil {
		return e.fail(spec.Path, errors.Wrapf(err, "creating %s", spec.Path))
	}
	return e.restoreDirectory(spec.Path, spec, archivePath, desc)
}

func (e *Engine) restoreDirectory(dir string, spec PartitionSpec, archivePath string, desc locator.Descriptor) (Result, error) {
	if err := e.wipe(dir, spec.Exclusions); err != nil {
		return e.fail(dir, err)
	}
	if err := e.archiver.Extract(archivePath, dir, desc.Compression, desc.Split); err != nil {
		return e.fail(dir, errors.Wrapf(err, "extracting %s", archivePath))
	}
	e.logger.Info("archive extracted", "path", archivePath, "target", dir)
	return Succeeded, nil
}

func (e *Engine) restoreImage(spec PartitionSpec, archivePath string, desc locator.Descriptor) (Result, error) {
	if err := e.requireImages(); err != nil {
		return e.fail(spec.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(spec.Path), 0o755); err != nil {
		return e.fail(spec.Path, errors.Wrapf(err, "creating parent of %s", spec.Path))
	}

	if _, err := os.Stat(spec.Path); err != nil {
		if !os.IsNotExist(err) {
			return e.fail(spec.Path, errors.Wrapf(err, "stat %s", spec.Path))
		}
		e.logger.Info("creating image", "path", spec.Path, "size", spec.SizeHint)
		if err := e.images.Create(spec.Path, spec.SizeHint); err != nil {
			return e.fail(spec.Path, errors.Wrapf(err, "creating image %s", spec.Path))
		}
	}

	e.images.Repair(spec.Path)

	if err := e.prepareMountDir(); err != nil {
		return e.fail(spec.Path, err)
	}
	if err := e.mounter.MountImage(spec.Path, e.mountDir, false); err != nil {
		return e.fail(spec.Path, errors.Wrapf(err, "mounting %s", spec.Path))
	}
	defer e.releaseMountDir()

	return e.restoreDirectory(e.mountDir, spec, archivePath, desc)
}

func (e *Engine) fail(path string, err error) (Result, error) {
	e.logger.Error("operation failed", "path", path, "error", err)
	return Failed, err
}

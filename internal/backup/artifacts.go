package backup

import (
	"os"
	"path/filepath"

	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/rom"
	"github.com/thoreinstein/rombak/pkg/fileutil"
)

// copyArtifact copies src to dst, reporting FilesMissing when src is absent.
func (e *Engine) copyArtifact(src, dst string) (Result, error) {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			e.logger.Warn("file does not exist", "path", src)
			return FilesMissing, nil
		}
		return e.fail(src, errors.Wrapf(err, "stat %s", src))
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return e.fail(src, errors.Wrapf(err, "copying %s to %s", src, dst))
	}
	e.logger.Debug("copied", "from", src, "to", dst)
	return Succeeded, nil
}

// worst folds step results: Failed beats FilesMissing beats Succeeded.
func worst(results ...Result) Result {
	out := Succeeded
	for _, r := range results {
		switch {
		case r == Failed:
			return Failed
		case r == FilesMissing:
			out = FilesMissing
		}
	}
	return out
}

// BackupBootImage copies the ROM's boot image into outputDir.
func (e *Engine) BackupBootImage(r *rom.ROM, outputDir string) (Result, error) {
	e.logger.Info("=== Backing up " + r.BootImagePath + " ===")
	return e.copyArtifact(r.BootImagePath, filepath.Join(outputDir, BootImageName))
}

// BackupConfigs copies the ROM's config and thumbnail into outputDir. The
// two are independent; one missing does not skip the other.
func (e *Engine) BackupConfigs(r *rom.ROM, outputDir string) (Result, error) {
	e.logger.Info("=== Backing up multiboot configs ===")
	cfg, err := e.copyArtifact(r.ConfigPath, filepath.Join(outputDir, ConfigName))
	if cfg == Failed {
		return cfg, err
	}
	thumb, err := e.copyArtifact(r.ThumbnailPath, filepath.Join(outputDir, ThumbnailName))
	return worst(cfg, thumb), err
}

// RestoreBootImage installs boot.img from inputDir as the ROM's boot image,
// stamped with the ROM id.
func (e *Engine) RestoreBootImage(r *rom.ROM, inputDir string) (Result, error) {
	src := filepath.Join(inputDir, BootImageName)
	e.logger.Info("=== Restoring " + r.BootImagePath + " ===")

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			e.logger.Warn("file does not exist", "path", src)
			return FilesMissing, nil
		}
		return e.fail(src, errors.Wrapf(err, "stat %s", src))
	}
	if e.patcher == nil {
		return e.fail(src, errors.New("no boot image patcher configured"))
	}
	if err := os.MkdirAll(filepath.Dir(r.BootImagePath), 0o775); err != nil {
		return e.fail(r.BootImagePath, errors.Wrap(err, "creating boot image directory"))
	}
	if err := e.patcher.Patch(src, r.BootImagePath, r.ID); err != nil {
		return e.fail(src, errors.Wrapf(err, "patching %s", src))
	}
	return Succeeded, nil
}

// RestoreConfigs installs config.json and thumbnail.webp from inputDir.
func (e *Engine) RestoreConfigs(r *rom.ROM, inputDir string) (Result, error) {
	e.logger.Info("=== Restoring multiboot configs ===")
	cfg, err := e.copyArtifact(filepath.Join(inputDir, ConfigName), r.ConfigPath)
	if cfg == Failed {
		return cfg, err
	}
	thumb, err := e.copyArtifact(filepath.Join(inputDir, ThumbnailName), r.ThumbnailPath)
	return worst(cfg, thumb), err
}

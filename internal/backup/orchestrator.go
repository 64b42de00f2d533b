package backup

import (
	"os"
	"path/filepath"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/locator"
	"github.com/thoreinstein/rombak/internal/rom"
	"github.com/thoreinstein/rombak/internal/target"
)

// step is one entry of a run plan. Steps whose target is not selected are
// skipped unless always is set.
type step struct {
	name   string
	target target.Target
	always bool
	run    func() (Result, error)
}

// runPlan evaluates plan in order. FilesMissing is tolerated, having been
// warned about where it occurred; the first Failed stops the run.
func (e *Engine) runPlan(targets target.Set, plan []step) error {
	for _, s := range plan {
		if !s.always && !targets.Has(s.target) {
			continue
		}
		res, err := s.run()
		switch res {
		case Failed:
			if err == nil {
				err = errors.New("step failed")
			}
			return errors.Wrapf(err, "%s", s.name)
		case FilesMissing:
			e.logger.Debug("files missing, continuing", "step", s.name)
		}
	}
	return nil
}

// BackupROM backs up the selected targets of r into outputDir, which must
// exist. Targets run in the order boot, config, system, cache, data. A
// failed step stops the run; earlier outputs are left in place.
func (e *Engine) BackupROM(r *rom.ROM, outputDir string, targets target.Set, kind compression.Kind, splitSize uint64) error {
	if targets.Empty() {
		return ErrNoTargets
	}

	e.logger.Info("backing up ROM",
		"rom", r.ID, "targets", targets.String(), "directory", outputDir,
		"compression", kind.Name(), "split_size", splitSize)

	archive := func(name string) string {
		return filepath.Join(outputDir, name+kind.Extension())
	}
	partition := func(path string, isImage bool, exclusions ...string) PartitionSpec {
		return PartitionSpec{Path: path, IsImage: isImage, Exclusions: exclusions}
	}

	plan := []step{
		{name: "boot image", target: target.Boot, run: func() (Result, error) {
			return e.BackupBootImage(r, outputDir)
		}},
		{name: "configs", target: target.Config, run: func() (Result, error) {
			return e.BackupConfigs(r, outputDir)
		}},
		{name: "system", target: target.System, run: func() (Result, error) {
			return e.BackupPartition(partition(r.SystemPath, r.SystemIsImage, MultibootEntry), archive(SystemArchive), kind, splitSize)
		}},
		{name: "cache", target: target.Cache, run: func() (Result, error) {
			return e.BackupPartition(partition(r.CachePath, r.CacheIsImage, MultibootEntry), archive(CacheArchive), kind, splitSize)
		}},
		{name: "data", target: target.Data, run: func() (Result, error) {
			return e.BackupPartition(partition(r.DataPath, r.DataIsImage, MediaEntry, MultibootEntry), archive(DataArchive), kind, splitSize)
		}},
	}

	if err := e.runPlan(targets, plan); err != nil {
		return errors.Wrapf(err, "backing up %s", r.ID)
	}

	if err := e.writeManifest(outputDir, r.ID, targets, kind, splitSize); err != nil {
		e.logger.Warn("could not write manifest", "path", outputDir, "error", err)
	}
	return nil
}

// RestoreROM restores the selected targets of r from inputDir. Boot and
// config restores run first, then multiboot permissions are fixed, then
// system, cache and data. A partition whose archive is absent aborts the
// run with ErrBackupNotFound before that partition is touched.
func (e *Engine) RestoreROM(r *rom.ROM, inputDir string, targets target.Set) error {
	if targets.Empty() {
		return ErrNoTargets
	}
	if e.registry == nil {
		return errors.New("restore needs a ROM registry")
	}

	e.logger.Info("restoring ROM", "rom", r.ID, "targets", targets.String(), "directory", inputDir)

	romDir := filepath.Join(e.registry.MultibootDir(), r.ID)
	if err := os.MkdirAll(romDir, 0o775); err != nil {
		e.logger.Error("failed to create directory", "path", romDir, "error", err)
		return errors.Wrapf(err, "creating %s", romDir)
	}

	plan := []step{
		{name: "boot image", target: target.Boot, run: func() (Result, error) {
			return e.RestoreBootImage(r, inputDir)
		}},
		{name: "configs", target: target.Config, run: func() (Result, error) {
			return e.RestoreConfigs(r, inputDir)
		}},
		{name: "permissions", always: true, run: func() (Result, error) {
			if err := e.registry.FixPermissions(); err != nil {
				e.logger.Warn("fixing multiboot permissions failed", "error", err)
			}
			return Succeeded, nil
		}},
		{name: "system", target: target.System, run: func() (Result, error) {
			size, err := e.registry.PartitionTotalSize(rom.System)
			if err != nil {
				return e.fail(r.SystemPath, errors.Wrap(err, "failed to get the size of the system partition"))
			}
			return e.restoreFromBackup(PartitionSpec{Path: r.SystemPath, IsImage: r.SystemIsImage, SizeHint: size, Exclusions: []string{MultibootEntry}}, inputDir, SystemArchive)
		}},
		{name: "cache", target: target.Cache, run: func() (Result, error) {
			return e.restoreFromBackup(PartitionSpec{Path: r.CachePath, IsImage: r.CacheIsImage, SizeHint: DefaultImageSize, Exclusions: []string{MultibootEntry}}, inputDir, CacheArchive)
		}},
		{name: "data", target: target.Data, run: func() (Result, error) {
			spec := PartitionSpec{Path: r.DataPath, IsImage: r.DataIsImage, SizeHint: DefaultImageSize, Exclusions: []string{MediaEntry, MultibootEntry}}
			return e.restoreFromBackup(spec, inputDir, DataArchive)
		}},
	}

	if err := e.runPlan(targets, plan); err != nil {
		return errors.Wrapf(err, "restoring %s", r.ID)
	}
	return nil
}

// restoreFromBackup locates the archive for name and restores it. A missing
// archive is fatal here, unlike in RestorePartition.
func (e *Engine) restoreFromBackup(spec PartitionSpec, inputDir, name string) (Result, error) {
	desc, ok := locator.Find(inputDir, name)
	if !ok {
		e.logger.Error("backup not found", "name", name, "directory", inputDir)
		return Failed, errors.Wrapf(ErrBackupNotFound, "%s in %s", name, inputDir)
	}
	e.logger.Debug("found archive", "path", desc.FirstFile(inputDir), "compression", desc.Compression.Name(), "split", desc.Split)
	return e.RestorePartition(spec, inputDir, desc)
}

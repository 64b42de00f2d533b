package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/isolation"
	"github.com/thoreinstein/rombak/internal/logging"
	"github.com/thoreinstein/rombak/internal/target"
)

var (
	restoreROMID   string
	restoreTargets string
	restoreName    string
	restoreDir     string
)

func init() {
	f := restoreCmd.Flags()
	f.StringVarP(&restoreROMID, "romid", "r", "", "ID of the ROM to restore into")
	f.StringVarP(&restoreTargets, "targets", "t", target.AllName,
		"comma-separated targets: system, cache, data, boot, config or all")
	f.StringVarP(&restoreName, "name", "n", "", "name of the backup to restore (required)")
	f.StringVarP(&restoreDir, "backupdir", "d", "", "directory holding backups (default from config)")

	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a ROM from a backup",
	Long: `Restore the selected targets of a ROM from a named backup.

Restoring a partition wipes its current contents first, except the
multiboot directory and, for data, the media directory. Image partitions
that do not exist yet are created. The ROM does not need to be installed.

After the boot image and configs, file permissions below the multiboot
directory are normalized.`,
	Example: `  # Restore everything from a backup
  rombak restore -r data-slot-nightly -n 2026.10.14-09.30.00

  # Restore only the data partition
  rombak restore -r primary -t data -n before-update

  See Also: rombak backup, rombak list`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, _ []string) error {
	if restoreDir == "" {
		restoreDir = cfg.BackupDir
	}
	return runRestoreWithWriter(cmd.OutOrStdout(), logging.FromContext(cmd.Context()))
}

func runRestoreWithWriter(w io.Writer, logger *slog.Logger) error {
	if err := requireROMID(restoreROMID); err != nil {
		return err
	}
	if err := validateBackupName(restoreName); err != nil {
		return err
	}
	targets, err := target.Parse(restoreTargets)
	if err != nil {
		return errors.NewUserError(err, "Valid targets: "+strings.Join(target.ValidNames(), ", "))
	}

	env, err := newEnvironment(cfg, logger)
	if err != nil {
		return err
	}
	warnContext(env, logger)

	if _, err := isolation.Enter(env.isolator); err != nil {
		return errors.NewFailure(err)
	}
	if err := env.preflight.EnsureMounted(); err != nil {
		return errors.NewFailure(err)
	}
	if err := env.preflight.RemountWritable(); err != nil {
		return errors.NewFailure(err)
	}

	r, err := env.registry.Resolve(restoreROMID)
	if err != nil {
		return errors.NewUserError(err, "Check the ROM ID")
	}

	inputDir := filepath.Join(restoreDir, restoreName)
	info, err := os.Stat(inputDir)
	switch {
	case os.IsNotExist(err):
		return errors.NewUserError(errors.Newf("backup %s does not exist", inputDir),
			"Run 'rombak list' to see available backups")
	case err != nil:
		return errors.NewFailure(errors.Wrapf(err, "checking %s", inputDir))
	case !info.IsDir():
		return errors.NewUserError(errors.Newf("%s is not a directory", inputDir), "")
	}

	if err := env.engine.RestoreROM(r, inputDir, targets); err != nil {
		logger.Error("restore failed", "rom", r.ID, "directory", inputDir, "error", err)
		return errors.NewFailure(err)
	}

	fmt.Fprintf(w, "%s✓ Restored %s from %s%s\n", colorGreen, r.ID, inputDir, colorReset)
	return nil
}

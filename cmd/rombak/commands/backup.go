package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/isolation"
	"github.com/thoreinstein/rombak/internal/logging"
	"github.com/thoreinstein/rombak/internal/target"
)

var (
	backupROMID       string
	backupTargets     string
	backupName        string
	backupCompression string
	backupSplitSize   uint64
	backupDir         string
	backupForce       bool
)

func init() {
	f := backupCmd.Flags()
	f.StringVarP(&backupROMID, "romid", "r", "", "ID of the ROM to back up")
	f.StringVarP(&backupTargets, "targets", "t", target.AllName,
		"comma-separated targets: system, cache, data, boot, config or all")
	f.StringVarP(&backupName, "name", "n", "", "backup name (default: current date and time)")
	f.StringVarP(&backupCompression, "compression", "c", "",
		"archive compression: none, lz4, gzip, xz (default from config)")
	f.Uint64VarP(&backupSplitSize, "split-size", "s", 0,
		"split archives into chunks of this many bytes, 0 disables (default from config)")
	f.StringVarP(&backupDir, "backupdir", "d", "", "directory holding backups (default from config)")
	f.BoolVarP(&backupForce, "force", "f", false, "overwrite an existing backup with the same name")

	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up a ROM",
	Long: `Back up the selected targets of an installed ROM into a new named
directory below the backup directory.

Targets are processed in the order boot, config, system, cache, data. A
missing boot image, config or thumbnail is logged and skipped. Any other
failure stops the backup; files already written are left in place.`,
	Example: `  # Back up everything with the default name
  rombak backup -r data-slot-nightly

  # Back up system and data, uncompressed, unsplit
  rombak backup -r primary -t system,data -c none -s 0

  # Replace an existing backup
  rombak backup -r dual -n before-update -f

  See Also: rombak restore, rombak list`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("compression") {
		backupCompression = cfg.Compression
	}
	if !cmd.Flags().Changed("split-size") {
		backupSplitSize = cfg.SplitSize
	}
	if backupDir == "" {
		backupDir = cfg.BackupDir
	}
	if backupName == "" {
		backupName = defaultBackupName()
	}
	return runBackupWithWriter(cmd.OutOrStdout(), logging.FromContext(cmd.Context()))
}

func runBackupWithWriter(w io.Writer, logger *slog.Logger) error {
	if err := requireROMID(backupROMID); err != nil {
		return err
	}
	if err := validateBackupName(backupName); err != nil {
		return err
	}
	kind, ok := compression.Lookup(backupCompression)
	if !ok {
		return errors.NewUserError(
			errors.Wrapf(compression.ErrUnknownKind, "%q", backupCompression),
			"Valid compression kinds: "+strings.Join(compression.Names(), ", "))
	}
	targets, err := target.Parse(backupTargets)
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

	r, err := env.registry.Installed(backupROMID)
	if err != nil {
		return errors.NewUserError(err, "Check the ROM ID; it must name an installed ROM")
	}

	outputDir := filepath.Join(backupDir, backupName)
	if _, err := os.Stat(outputDir); err == nil {
		if !backupForce {
			return errors.NewUserError(errors.Newf("backup %s already exists", outputDir),
				"Choose another name with -n or overwrite it with -f")
		}
	} else if !os.IsNotExist(err) {
		return errors.NewFailure(errors.Wrapf(err, "checking %s", outputDir))
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.NewFailure(errors.Wrapf(err, "creating %s", outputDir))
	}

	if err := env.engine.BackupROM(r, outputDir, targets, kind, backupSplitSize); err != nil {
		logger.Error("backup failed", "rom", r.ID, "directory", outputDir, "error", err)
		return errors.NewFailure(err)
	}

	fmt.Fprintf(w, "%s✓ Backed up %s to %s%s\n", colorGreen, r.ID, outputDir, colorReset)
	return nil
}

// warnContext logs a warning when not running under the expected SELinux
// context. The run continues either way.
func warnContext(env *environment, logger *slog.Logger) {
	expected := cfg.SELinuxContext
	if current, mismatch := env.contextMismatch(expected); mismatch {
		logger.Warn(fmt.Sprintf("Not running under %s context", expected), "current", current)
	}
}

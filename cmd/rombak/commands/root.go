// Package commands implements the CLI commands for rombak.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/rombak/cmd"
	"github.com/thoreinstein/rombak/internal/config"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/logging"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configPath holds the value of the --config flag.
var configPath string

// cfg is the loaded configuration. It is nil when loading failed.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"read configuration from this file instead of the search path")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("rombak version {{.Version}}\n")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	cfg, configLoadErr = config.Load(configPath)
}

var rootCmd = &cobra.Command{
	Use:   "rombak",
	Short: "Back up and restore ROMs on a multi-ROM device",
	Long: `rombak backs up and restores a single installed ROM on a multi-ROM
device without touching the others that share its storage.

A backup holds the ROM's boot image, its multiboot config and thumbnail,
and tar archives of its system, cache and data partitions. Partitions
that live in ext4 images are mounted read-only for backup and recreated
on restore when missing.

rombak must run as root. It enters a private mount namespace before
touching any partition.`,
	Example: `  # Back up everything of a data slot ROM
  rombak backup -r data-slot-nightly

  # Back up only system and boot with gzip to a custom directory
  rombak backup -r primary -t system,boot -c gzip -d /sdcard/backups

  # Restore data from a named backup
  rombak restore -r multi-slot-1 -t data -n 2026.10.14-09.30.00

  See Also: rombak list, rombak config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("cannot use --quiet and --verbose together"),
			"Pass either -q or -v")
	}

	level := logging.LevelFromVerbosity(verbosity)
	if quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case logging.FormatText:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	default:
		err := errors.Newf("invalid log format %q", logFormat)
		return errors.NewUserError(err, "Use --log-format text or --log-format json")
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig reports config load errors for commands that need a config.
func checkConfig(cmd *cobra.Command) error {
	// Skip for help and version commands
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}
	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

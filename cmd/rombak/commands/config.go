package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/rombak/internal/config"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/paths"
	"github.com/thoreinstein/rombak/pkg/fileutil"
)

var (
	configFormat    string
	configInitForce bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: yaml, toml")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect rombak configuration",
	Long: `Inspect rombak configuration.

Configuration is read from config.yaml in the current directory, the
rombak config directory and the MultiBoot directory, in that order.
Every key can be overridden with a ROMBAK_ environment variable, e.g.
ROMBAK_BACKUP_DIR or ROMBAK_PARTITIONS_DATA.

Without a subcommand, shows the effective configuration.`,
	Example: `  # Show the effective configuration
  rombak config

  # Show it as TOML
  rombak config show --format toml

  # Write a config file with the defaults
  rombak config init

See Also: rombak backup, rombak list`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after applying defaults, the config file and environment overrides.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config directory",
	Long: `Write the effective configuration to config.yaml in the rombak config
directory, creating it if needed. An existing file is kept unless --force
is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	return runConfigShowWithWriter(cmd.OutOrStdout())
}

func runConfigShowWithWriter(w io.Writer) error {
	if used := config.FileUsed(); used != "" {
		fmt.Fprintf(w, "# %s\n", used)
	}

	switch configFormat {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		return nil
	default:
		return errors.NewUserError(errors.Newf("invalid format %q", configFormat),
			"Use --format yaml or --format toml")
	}
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	return runConfigInitWithWriter(cmd.OutOrStdout())
}

func runConfigInitWithWriter(w io.Writer) error {
	dir := paths.AppConfigDir()
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.NewUserError(errors.Newf("%s already exists", path),
			"Use --force to overwrite it")
	}
	if err := paths.EnsureDir(dir, 0); err != nil {
		return errors.NewFailure(errors.Wrapf(err, "creating %s", dir))
	}
	if err := fileutil.AtomicWriteYAML(path, cfg); err != nil {
		return errors.NewFailure(errors.Wrapf(err, "writing %s", path))
	}

	fmt.Fprintf(w, "%s✓ Wrote %s%s\n", colorGreen, path, colorReset)
	return nil
}

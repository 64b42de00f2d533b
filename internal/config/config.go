// Package config provides configuration management for rombak using Viper.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/paths"
	"github.com/thoreinstein/rombak/internal/selinux"
)

// EnvPrefix prefixes environment overrides, e.g. ROMBAK_BACKUP_DIR or
// ROMBAK_PARTITIONS_DATA.
const EnvPrefix = "ROMBAK"

// DefaultSplitSize is the largest chunk a FAT32 external card accepts.
const DefaultSplitSize uint64 = 4294967294

// DefaultMountDir is where images are mounted while processed.
const DefaultMountDir = "/mb_mnt"

// Config represents the top-level configuration structure.
type Config struct {
	BackupDir      string     `mapstructure:"backup_dir" yaml:"backup_dir" toml:"backup_dir" json:"backup_dir"`
	MultibootDir   string     `mapstructure:"multiboot_dir" yaml:"multiboot_dir" toml:"multiboot_dir" json:"multiboot_dir"`
	MountDir       string     `mapstructure:"mount_dir" yaml:"mount_dir" toml:"mount_dir" json:"mount_dir"`
	Compression    string     `mapstructure:"compression" yaml:"compression" toml:"compression" json:"compression"`
	SplitSize      uint64     `mapstructure:"split_size" yaml:"split_size" toml:"split_size" json:"split_size"`
	ExtsdDir       string     `mapstructure:"extsd_dir" yaml:"extsd_dir" toml:"extsd_dir" json:"extsd_dir"`
	SELinuxContext string     `mapstructure:"selinux_context" yaml:"selinux_context" toml:"selinux_context" json:"selinux_context"`
	Partitions     Partitions `mapstructure:"partitions" yaml:"partitions" toml:"partitions" json:"partitions"`
	Tools          Tools      `mapstructure:"tools" yaml:"tools" toml:"tools" json:"tools"`
}

// Partitions holds the host partition mount points.
type Partitions struct {
	System string `mapstructure:"system" yaml:"system" toml:"system" json:"system"`
	Cache  string `mapstructure:"cache" yaml:"cache" toml:"cache" json:"cache"`
	Data   string `mapstructure:"data" yaml:"data" toml:"data" json:"data"`
}

// Tools names the external e2fsprogs binaries.
type Tools struct {
	Mkfs string `mapstructure:"mkfs" yaml:"mkfs" toml:"mkfs" json:"mkfs"`
	Fsck string `mapstructure:"fsck" yaml:"fsck" toml:"fsck" json:"fsck"`
}

// CompressionKind returns the configured compression.
func (c *Config) CompressionKind() compression.Kind {
	k, ok := compression.Lookup(c.Compression)
	if !ok {
		return compression.Default
	}
	return k
}

// Init resets Viper and installs search paths, env handling and defaults.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	for _, p := range paths.ConfigSearchPaths() {
		viper.AddConfigPath(p)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("backup_dir", paths.BackupDir())
	viper.SetDefault("multiboot_dir", paths.MultibootDir)
	viper.SetDefault("mount_dir", DefaultMountDir)
	viper.SetDefault("compression", compression.Default.Name())
	viper.SetDefault("split_size", DefaultSplitSize)
	viper.SetDefault("extsd_dir", paths.ExtsdDir)
	viper.SetDefault("selinux_context", selinux.DefaultExpectedContext)
	viper.SetDefault("partitions.system", paths.SystemPartition)
	viper.SetDefault("partitions.cache", paths.CachePartition)
	viper.SetDefault("partitions.data", paths.DataPartition)
	viper.SetDefault("tools.mkfs", "mke2fs")
	viper.SetDefault("tools.fsck", "e2fsck")
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file is found.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit load; defaults apply
		case errors.As(err, &notFound):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrapf(errs[0], "validating config")
	}

	return &cfg, nil
}

// FileUsed returns the config file that was read, or "" if none was.
func FileUsed() string {
	return viper.ConfigFileUsed()
}

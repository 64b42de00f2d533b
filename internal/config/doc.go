// Package config provides configuration management for the rombak CLI.
//
// Settings are read from config.yaml in the current directory, the XDG
// config directory (~/.config/rombak) or the multiboot directory, in that
// order, and can be overridden per key with ROMBAK_ environment variables
// (nested keys use underscores: ROMBAK_PARTITIONS_DATA). Command-line flags
// take precedence over both.
package config

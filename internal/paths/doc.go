// Package paths holds the default on-device locations rombak works with and
// the per-user config directory.
//
// Device defaults follow the MultiBoot layout on internal storage:
//
//	/data/media/0/MultiBoot/            multiboot dir
//	/data/media/0/MultiBoot/<rom id>/   boot.img, config.json, thumbnail.webp
//	/data/media/0/MultiBoot/backups/    backup root
//
// The config directory follows the XDG Base Directory specification
// through github.com/adrg/xdg and can be overridden with ROMBAK_CONFIG_DIR.
package paths

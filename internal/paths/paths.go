package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user config directory.
const AppName = "rombak"

// Default device locations.
const (
	// MultibootDir holds per-ROM boot images and configs on internal storage.
	MultibootDir = "/data/media/0/MultiBoot"
	// ExtsdDir is where the external SD card is mounted for image ROMs.
	ExtsdDir = "/raw/extsd"
	// SystemPartition, CachePartition and DataPartition are the host
	// partition mount points.
	SystemPartition = "/system"
	CachePartition  = "/cache"
	DataPartition   = "/data"
)

// BackupDir returns the default backup root, MultibootDir/backups.
func BackupDir() string {
	return filepath.Join(MultibootDir, "backups")
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
func ConfigHome() string {
	return xdg.ConfigHome
}

// AppConfigDir returns <ConfigHome>/rombak. ROMBAK_CONFIG_DIR overrides it.
func AppConfigDir() string {
	if dir := os.Getenv("ROMBAK_CONFIG_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigSearchPaths returns the directories searched for config.yaml, in
// order of precedence.
func ConfigSearchPaths() []string {
	return []string{".", AppConfigDir(), MultibootDir}
}

// DefaultDirPerm is the permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents. If perm is 0,
// DefaultDirPerm is used. It returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

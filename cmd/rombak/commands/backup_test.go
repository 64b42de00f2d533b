package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/rombak/internal/backup"
	"github.com/thoreinstein/rombak/internal/bootimg"
	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/locator"
	"github.com/thoreinstein/rombak/internal/preflight"
	"github.com/thoreinstein/rombak/internal/rom"
)

const testROM = "data-slot-test"

// bootImage returns a minimal Android boot image header.
func bootImage() string {
	b := make([]byte, 2048)
	copy(b, bootimg.Magic)
	copy(b[bootimg.BoardOffset:], "stock")
	return string(b)
}

// installROM creates a data slot ROM with every target populated.
func installROM(t *testing.T, e *cliEnv) {
	t.Helper()
	writeFiles(t, e.romDir(testROM, rom.System), map[string]string{
		"build.prop":       "ro.build.id=TEST",
		"app/Settings.apk": "settings",
	})
	writeFiles(t, e.romDir(testROM, rom.Cache), map[string]string{"recovery/last_log": "log"})
	writeFiles(t, e.romDir(testROM, rom.Data), map[string]string{
		"data/com.example/db": "rows",
		"media/0/DCIM/a.jpg":  "photo",
	})
	writeFiles(t, filepath.Join(e.multiboot, testROM), map[string]string{
		backup.BootImageName: bootImage(),
		backup.ConfigName:    `{"id":"data-slot-test"}`,
		backup.ThumbnailName: "RIFF",
	})
}

func TestBackupCommand(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)

	stdout, _, err := execute(t, "backup", "-r", testROM, "-c", "gzip")
	require.NoError(t, err)

	dir := filepath.Join(e.backups, "2026.10.14-09.30.00")
	require.Contains(t, stdout, dir)

	for _, name := range []string{backup.BootImageName, backup.ConfigName, backup.ThumbnailName, backup.ManifestName} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	for _, name := range []string{backup.SystemArchive, backup.CacheArchive, backup.DataArchive} {
		desc, ok := locator.Find(dir, name)
		require.True(t, ok, name)
		require.Equal(t, compression.Gzip, desc.Compression)
		require.False(t, desc.Split)
	}

	m, err := backup.ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, testROM, m.ROM)
	require.Equal(t, "gzip", m.Compression)

	require.Equal(t, []string{"unshare", "private /", "remount /"}, e.iso.calls)
	require.Empty(t, e.table.remounted, "backup must not remount partitions")
}

func TestBackupCommand_DefaultsFromConfig(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	t.Setenv("ROMBAK_COMPRESSION", "none")
	t.Setenv("ROMBAK_SPLIT_SIZE", "0")

	_, _, err := execute(t, "backup", "-r", testROM, "-t", "system", "-n", "plain")
	require.NoError(t, err)

	desc, ok := locator.Find(filepath.Join(e.backups, "plain"), backup.SystemArchive)
	require.True(t, ok)
	require.Equal(t, compression.None, desc.Compression)
}

func TestBackupCommand_Split(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	writeFiles(t, e.romDir(testROM, rom.System), map[string]string{
		"blob": strings.Repeat("0123456789abcdef", 64),
	})

	_, _, err := execute(t, "backup", "-r", testROM, "-t", "system", "-n", "split", "-c", "none", "-s", "100")
	require.NoError(t, err)

	desc, ok := locator.Find(filepath.Join(e.backups, "split"), backup.SystemArchive)
	require.True(t, ok)
	require.True(t, desc.Split)
}

func TestBackupCommand_ExistingName(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	existing := filepath.Join(e.backups, "snap")
	writeFiles(t, existing, map[string]string{"keep": "me"})

	_, _, err := execute(t, "backup", "-r", testROM, "-t", "boot", "-n", "snap")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
	_, err = os.Stat(filepath.Join(existing, backup.BootImageName))
	require.True(t, os.IsNotExist(err), "nothing may be written without -f")

	_, _, err = execute(t, "backup", "-r", testROM, "-t", "boot", "-n", "snap", "-f")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(existing, backup.BootImageName))
	require.NoError(t, err)
}

func TestBackupCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing rom id", []string{"backup"}, "ROM ID is required"},
		{"dot name", []string{"backup", "-r", testROM, "-n", ".."}, "invalid backup name"},
		{"slash name", []string{"backup", "-r", testROM, "-n", "a/b"}, "invalid backup name"},
		{"bad compression", []string{"backup", "-r", testROM, "-c", "zstd"}, "unknown compression kind"},
		{"bad targets", []string{"backup", "-r", testROM, "-t", "system,kernel"}, "invalid targets"},
		{"empty targets", []string{"backup", "-r", testROM, "-t", ""}, "invalid targets"},
		{"bad split size", []string{"backup", "-r", testROM, "-s", "big"}, "invalid argument"},
		{"positional args", []string{"backup", "-r", testROM, "extra"}, "unknown command"},
		{"unknown rom", []string{"backup", "-r", "nonsense"}, "invalid ROM id"},
		{"not installed", []string{"backup", "-r", "data-slot-other"}, "not installed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCLIEnv(t)
			installROM(t, e)

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
			require.Equal(t, 1, errors.Code(err))

			_, statErr := os.Stat(e.backups)
			require.True(t, os.IsNotExist(statErr), "no backup directory may be created")
		})
	}
}

func TestBackupCommand_PartitionNotMounted(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	e.table.unmounted[e.cache] = true

	_, _, err := execute(t, "backup", "-r", testROM)
	require.ErrorIs(t, err, preflight.ErrNotMounted)
	require.Contains(t, err.Error(), "cache")
}

func TestBackupCommand_IsolationFailure(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	e.iso.err = errors.New("operation not permitted")

	_, _, err := execute(t, "backup", "-r", testROM)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unshare() failed")
}

func TestBackupCommand_SELinuxWarning(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	e.mismatch = "u:r:su:s0"

	_, stderr, err := execute(t, "backup", "-r", testROM, "-t", "config")
	require.NoError(t, err)
	require.Contains(t, stderr, "Not running under u:r:mb_exec:s0 context")
}

func TestBackupCommand_MissingArtifactsTolerated(t *testing.T) {
	e := newCLIEnv(t)
	writeFiles(t, e.romDir(testROM, rom.System), map[string]string{"build.prop": "x"})

	_, stderr, err := execute(t, "backup", "-r", testROM, "-n", "sparse")
	require.NoError(t, err)
	require.Contains(t, stderr, "WARN")

	dir := filepath.Join(e.backups, "sparse")
	_, ok := locator.Find(dir, backup.SystemArchive)
	require.True(t, ok)
	_, ok = locator.Find(dir, backup.DataArchive)
	require.False(t, ok)
}

package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/target"
)

func TestList(t *testing.T) {
	root := t.TempDir()

	older := filepath.Join(root, "2024.01.01-10.00.00")
	writeFiles(t, older, map[string]string{
		"boot.img":     "boot",
		"system.tar.0": "0123456789",
		"system.tar.1": "01234",
	})
	old := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(older, old, old))

	newer := filepath.Join(root, "2025.06.01-09.30.00")
	writeFiles(t, newer, map[string]string{
		"config.json":     "{}",
		"data.tar.xz":     "xz",
		"cache.tar.lz4":   "lz4!",
		"unrelated.notes": "n",
	})

	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0o644))

	got, err := List(root)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "2025.06.01-09.30.00", got[0].Name)
	require.Equal(t, target.NewSet(target.Config, target.Cache, target.Data), got[0].Targets)
	require.Len(t, got[0].Archives, 2)
	require.Equal(t, compression.LZ4, got[0].Archives[0].Compression)
	require.Equal(t, CacheArchive, got[0].Archives[0].Name)
	require.Equal(t, int64(4), got[0].Archives[0].Size)
	require.Equal(t, int64(2+2+4+1), got[0].Size)

	require.Equal(t, "2024.01.01-10.00.00", got[1].Name)
	require.Equal(t, target.NewSet(target.Boot, target.System), got[1].Targets)
	require.True(t, got[1].Archives[0].Split)
	require.Equal(t, int64(15), got[1].Archives[0].Size)
}

func TestList_Empty(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrNoBackupsFound)

	_, err = List(t.TempDir())
	require.ErrorIs(t, err, ErrNoBackupsFound)
}

func TestInspect_UsesManifestTime(t *testing.T) {
	f := newFixture(t, false)
	populateROM(t, f)
	require.NoError(t, f.engine.BackupROM(f.rom, f.backup, target.NewSet(target.Boot), compression.LZ4, 0))

	s, err := Inspect(f.backup)
	require.NoError(t, err)
	require.NotNil(t, s.Manifest)
	require.Equal(t, s.Manifest.CreatedAt, s.CreatedAt)
	require.Equal(t, []string{"boot"}, s.Manifest.Targets)
}

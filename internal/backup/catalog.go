package backup

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/locator"
	"github.com/thoreinstein/rombak/internal/target"
)

// ErrNoBackupsFound indicates the backup directory holds no backups.
var ErrNoBackupsFound = errors.New("no backups found")

// Archive is a partition archive found in a backup.
type Archive struct {
	locator.Descriptor
	// Size is the total size of the archive or all its chunks.
	Size int64
}

// Summary describes one backup directory.
type Summary struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Targets   target.Set
	Archives  []Archive
	Size      int64
	// Manifest is nil for backups written without one.
	Manifest *Manifest
}

// Inspect summarizes the backup in dir from the files it contains.
func Inspect(dir string) (*Summary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("%s is not a directory", dir)
	}

	s := &Summary{Name: filepath.Base(dir), Path: dir, CreatedAt: info.ModTime()}
	if m, err := ReadManifest(dir); err == nil {
		s.Manifest = m
		s.CreatedAt = m.CreatedAt
	}

	if exists(filepath.Join(dir, BootImageName)) {
		s.Targets = s.Targets.Add(target.Boot)
	}
	if exists(filepath.Join(dir, ConfigName)) || exists(filepath.Join(dir, ThumbnailName)) {
		s.Targets = s.Targets.Add(target.Config)
	}

	partitions := []struct {
		name string
		t    target.Target
	}{
		{SystemArchive, target.System},
		{CacheArchive, target.Cache},
		{DataArchive, target.Data},
	}
	for _, p := range partitions {
		desc, ok := locator.Find(dir, p.name)
		if !ok {
			continue
		}
		s.Targets = s.Targets.Add(p.t)
		s.Archives = append(s.Archives, Archive{Descriptor: desc, Size: archiveSize(dir, desc)})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	for _, e := range entries {
		if fi, err := e.Info(); err == nil && fi.Mode().IsRegular() {
			s.Size += fi.Size()
		}
	}
	return s, nil
}

// List summarizes every backup under root, newest first. Subdirectories
// containing no recognizable backup files are skipped.
func List(root string) ([]Summary, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsFound
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := Inspect(filepath.Join(root, entry.Name()))
		if err != nil || s.Targets.Empty() {
			continue
		}
		summaries = append(summaries, *s)
	}

	if len(summaries) == 0 {
		return nil, ErrNoBackupsFound
	}

	slices.SortFunc(summaries, func(a, b Summary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return summaries, nil
}

func archiveSize(dir string, d locator.Descriptor) int64 {
	base := d.Path(dir)
	if !d.Split {
		if fi, err := os.Stat(base); err == nil {
			return fi.Size()
		}
		return 0
	}
	var total int64
	for i := 0; ; i++ {
		fi, err := os.Stat(base + "." + strconv.Itoa(i))
		if err != nil {
			return total
		}
		total += fi.Size()
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/rombak/internal/archive"
	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/logging"
	"github.com/thoreinstein/rombak/internal/rom"
	"github.com/thoreinstein/rombak/pkg/fileutil"
)

// dirMounter treats an "image" as a directory. Mounting copies it into the
// target; unmounting a read-write mount copies the target back.
type dirMounter struct {
	mounts     map[string]mounted
	failMount  error
	failUnmnt  error
	mountCalls int
}

type mounted struct {
	image    string
	readOnly bool
}

func newDirMounter() *dirMounter {
	return &dirMounter{mounts: make(map[string]mounted)}
}

func (m *dirMounter) MountImage(image, target string, readOnly bool) error {
	m.mountCalls++
	if m.failMount != nil {
		return m.failMount
	}
	if err := os.CopyFS(target, os.DirFS(image)); err != nil {
		return err
	}
	m.mounts[target] = mounted{image: image, readOnly: readOnly}
	return nil
}

func (m *dirMounter) Unmount(target string) error {
	mt, ok := m.mounts[target]
	if !ok {
		return os.ErrNotExist
	}
	delete(m.mounts, target)
	if !mt.readOnly {
		if err := clearDir(mt.image); err != nil {
			return err
		}
		if err := os.CopyFS(mt.image, os.DirFS(target)); err != nil {
			return err
		}
	}
	if err := clearDir(target); err != nil {
		return err
	}
	return m.failUnmnt
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

type mockImageTool struct {
	mock.Mock
}

func (m *mockImageTool) Create(path string, size uint64) error {
	return m.Called(path, size).Error(0)
}

func (m *mockImageTool) Repair(path string) {
	m.Called(path)
}

// newImageTool returns a mock whose Create makes an empty directory image.
func newImageTool() *mockImageTool {
	tool := new(mockImageTool)
	tool.On("Repair", mock.Anything).Return()
	tool.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		os.MkdirAll(args.String(0), 0o755)
	})
	return tool
}

type mockPatcher struct {
	mock.Mock
}

func (m *mockPatcher) Patch(input, output, romID string) error {
	return m.Called(input, output, romID).Error(0)
}

func copyingPatcher() *mockPatcher {
	p := new(mockPatcher)
	p.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		fileutil.CopyFile(args.String(0), args.String(1))
	})
	return p
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Create(path, baseDir string, entries []string, kind compression.Kind, splitSize uint64) error {
	return m.Called(path, baseDir, entries, kind, splitSize).Error(0)
}

func (m *mockArchiver) Extract(path, destDir string, kind compression.Kind, isSplit bool) error {
	return m.Called(path, destDir, kind, isSplit).Error(0)
}

type fakeRegistry struct {
	multiboot  string
	systemSize uint64
	sizeErr    error
	fixed      int
}

func (r *fakeRegistry) PartitionTotalSize(string) (uint64, error) {
	return r.systemSize, r.sizeErr
}

func (r *fakeRegistry) FixPermissions() error {
	r.fixed++
	return nil
}

func (r *fakeRegistry) MultibootDir() string {
	return r.multiboot
}

// fixture is a temp tree holding one ROM plus a backup directory.
type fixture struct {
	root     string
	rom      *rom.ROM
	backup   string
	mounter  *dirMounter
	images   *mockImageTool
	patcher  *mockPatcher
	registry *fakeRegistry
	engine   *Engine
}

func newFixture(t *testing.T, images bool) *fixture {
	t.Helper()
	if images {
		return newFixtureFor(t, "extsd-slot-test")
	}
	return newFixtureFor(t, "data-slot-test")
}

func newFixtureFor(t *testing.T, id string) *fixture {
	t.Helper()
	root := t.TempDir()
	layout := &rom.Layout{
		SystemPartition: filepath.Join(root, "system"),
		CachePartition:  filepath.Join(root, "cache"),
		DataPartition:   filepath.Join(root, "data"),
		Multiboot:       filepath.Join(root, "MultiBoot"),
		ExtsdDir:        filepath.Join(root, "extsd"),
	}
	r, err := layout.Resolve(id)
	require.NoError(t, err)

	f := &fixture{
		root:     root,
		rom:      r,
		backup:   filepath.Join(root, "backups", "snap"),
		mounter:  newDirMounter(),
		images:   newImageTool(),
		patcher:  copyingPatcher(),
		registry: &fakeRegistry{multiboot: layout.Multiboot, systemSize: 1 << 30},
	}
	require.NoError(t, os.MkdirAll(f.backup, 0o755))
	f.engine = NewEngine(archive.New(logging.ForTest(t)),
		WithLogger(logging.ForTest(t)),
		WithMountDir(filepath.Join(root, "mb_mnt")),
		WithImageTool(f.images),
		WithMounter(f.mounter),
		WithBootPatcher(f.patcher),
		WithRegistry(f.registry),
		WithVersion("test"),
	)
	return f
}

// recordHandler keeps every record it handles.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

// at returns the records logged at level.
func (h *recordHandler) at(level slog.Level) []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

func attr(r slog.Record, key string) string {
	var v string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.String()
			return false
		}
		return true
	})
	return v
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

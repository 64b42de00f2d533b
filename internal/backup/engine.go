package backup

import (
	"log/slog"
	"os"

	"github.com/thoreinstein/rombak/internal/errors"
)

// Engine runs partition, artifact and whole-ROM backups and restores.
type Engine struct {
	archiver Archiver
	images   ImageTool
	mounter  Mounter
	patcher  BootPatcher
	registry Registry
	logger   *slog.Logger
	mountDir string
	version  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMountDir sets the directory images are mounted on.
func WithMountDir(dir string) Option {
	return func(e *Engine) {
		if dir != "" {
			e.mountDir = dir
		}
	}
}

// WithImageTool sets the image creator and checker.
func WithImageTool(t ImageTool) Option {
	return func(e *Engine) {
		e.images = t
	}
}

// WithMounter sets the image mounter.
func WithMounter(m Mounter) Option {
	return func(e *Engine) {
		e.mounter = m
	}
}

// WithBootPatcher sets the boot image patcher used on restore.
func WithBootPatcher(p BootPatcher) Option {
	return func(e *Engine) {
		e.patcher = p
	}
}

// WithRegistry sets the ROM registry used on restore.
func WithRegistry(r Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithVersion sets the tool version recorded in manifests.
func WithVersion(v string) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// NewEngine returns an Engine that archives with a. Collaborators not set
// through options make the operations that need them fail.
func NewEngine(a Archiver, opts ...Option) *Engine {
	e := &Engine{
		archiver: a,
		logger:   slog.Default(),
		mountDir: DefaultMountDir,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MountDir returns the directory images are mounted on.
func (e *Engine) MountDir() string {
	return e.mountDir
}

func (e *Engine) requireImages() error {
	if e.images == nil || e.mounter == nil {
		return errors.New("image partitions need an image tool and a mounter")
	}
	return nil
}

// prepareMountDir creates the mount directory. An existing one is reused.
func (e *Engine) prepareMountDir() error {
	if err := os.Mkdir(e.mountDir, 0o755); err != nil && !os.IsExist(err) {
		return errors.Wrapf(err, "creating mount directory %s", e.mountDir)
	}
	return nil
}

// releaseMountDir unmounts and removes the mount directory. Failures are
// only logged.
func (e *Engine) releaseMountDir() {
	if err := e.mounter.Unmount(e.mountDir); err != nil {
		e.logger.Error("failed to unmount", "path", e.mountDir, "error", err)
	}
	if err := os.Remove(e.mountDir); err != nil && !os.IsNotExist(err) {
		e.logger.Error("failed to remove mount directory", "path", e.mountDir, "error", err)
	}
}

// Package image creates and repairs ext4 filesystem images with the e2fsprogs
// tools.
package image

import (
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"

	"github.com/thoreinstein/rombak/internal/errors"
)

// Default tool names, resolved through PATH.
const (
	DefaultMkfs = "mke2fs"
	DefaultFsck = "e2fsck"
)

// ErrSizeTooLarge is returned for image sizes a file offset cannot hold.
var ErrSizeTooLarge = errors.New("image size too large")

// RunFunc executes cmd and returns its combined output.
type RunFunc func(cmd *exec.Cmd) ([]byte, error)

// DefaultRun runs cmd with CombinedOutput.
func DefaultRun(cmd *exec.Cmd) ([]byte, error) {
	return cmd.CombinedOutput()
}

// Tool wraps mke2fs and e2fsck.
type Tool struct {
	MkfsPath string
	FsckPath string
	Logger   *slog.Logger
	// Run is replaced in tests.
	Run RunFunc
}

// New returns a Tool using the given binaries. Empty paths select the
// defaults.
func New(mkfs, fsck string, logger *slog.Logger) *Tool {
	if mkfs == "" {
		mkfs = DefaultMkfs
	}
	if fsck == "" {
		fsck = DefaultFsck
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{MkfsPath: mkfs, FsckPath: fsck, Logger: logger, Run: DefaultRun}
}

func (t *Tool) run(name string, args ...string) (int, []byte, error) {
	run := t.Run
	if run == nil {
		run = DefaultRun
	}
	out, err := run(exec.Command(name, args...))
	if err == nil {
		return 0, out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), out, nil
	}
	return -1, out, err
}

// Create makes a sparse file of size bytes at path and formats it as ext4.
// The file is removed if formatting fails.
func (t *Tool) Create(path string, size uint64) error {
	if size > math.MaxInt64 {
		return errors.Wrapf(ErrSizeTooLarge, "%s: %d bytes", path, size)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating image %s", path)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "sizing image %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "closing image %s", path)
	}

	code, out, err := t.run(t.MkfsPath, "-t", "ext4", "-F", "-q", path)
	if err != nil || code != 0 {
		os.Remove(path)
		if err == nil {
			err = errors.Newf("%s exited with status %d", t.MkfsPath, code)
		}
		t.Logger.Error("formatting image failed", "path", path, "output", string(out))
		return errors.Wrapf(err, "formatting image %s", path)
	}
	t.Logger.Debug("created image", "path", path, "size", strconv.FormatUint(size, 10))
	return nil
}

// Repair runs a forced check with automatic fixes. The outcome is only
// logged; callers proceed regardless.
func (t *Tool) Repair(path string) {
	code, out, err := t.run(t.FsckPath, "-f", "-y", path)
	switch {
	case err != nil:
		t.Logger.Warn("could not run filesystem check", "path", path, "error", err)
	case code == 0:
		t.Logger.Debug("filesystem clean", "path", path)
	case code == 1 || code == 2:
		t.Logger.Info("filesystem errors corrected", "path", path, "status", code)
	default:
		t.Logger.Warn("filesystem check failed", "path", path, "status", code, "output", string(out))
	}
}

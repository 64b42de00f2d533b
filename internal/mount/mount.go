// Package mount attaches filesystem images through loop devices and answers
// questions about the host mount table.
package mount

import (
	"log/slog"
	"sync"

	"github.com/moby/sys/mountinfo"
	"github.com/u-root/u-root/pkg/mount"
	"github.com/u-root/u-root/pkg/mount/loop"
	"golang.org/x/sys/unix"

	"github.com/thoreinstein/rombak/internal/errors"
)

// FSType is the filesystem images are formatted with.
const FSType = "ext4"

// Linux mounts images with the kernel loop driver.
type Linux struct {
	logger *slog.Logger

	mu    sync.Mutex
	loops map[string]string // mount point -> loop device
}

// NewLinux returns a Linux mounter.
func NewLinux(logger *slog.Logger) *Linux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linux{logger: logger, loops: make(map[string]string)}
}

// MountImage attaches image to a free loop device and mounts it at target.
func (l *Linux) MountImage(image, target string, readOnly bool) error {
	dev, err := loop.FindDevice()
	if err != nil {
		return errors.Wrap(err, "finding free loop device")
	}
	if err := loop.SetFile(dev, image); err != nil {
		return errors.Wrapf(err, "attaching %s to %s", image, dev)
	}

	var flags uintptr
	if readOnly {
		flags |= unix.MS_RDONLY
	}
	if err := unix.Mount(dev, target, FSType, flags, ""); err != nil {
		if cerr := loop.ClearFile(dev); cerr != nil {
			l.logger.Warn("detaching loop device failed", "device", dev, "error", cerr)
		}
		return errors.Wrapf(err, "mounting %s at %s", image, target)
	}

	l.mu.Lock()
	l.loops[target] = dev
	l.mu.Unlock()
	l.logger.Debug("mounted image", "image", image, "target", target, "device", dev, "read_only", readOnly)
	return nil
}

// Unmount unmounts target and detaches the loop device it was mounted from,
// if this mounter attached one.
func (l *Linux) Unmount(target string) error {
	if err := mount.Unmount(target, false, false); err != nil {
		return errors.Wrapf(err, "unmounting %s", target)
	}

	l.mu.Lock()
	dev, ok := l.loops[target]
	delete(l.loops, target)
	l.mu.Unlock()

	if ok {
		if err := loop.ClearFile(dev); err != nil {
			return errors.Wrapf(err, "detaching %s", dev)
		}
	}
	return nil
}

// IsMounted reports whether path is a mount point.
func (l *Linux) IsMounted(path string) (bool, error) {
	ok, err := mountinfo.Mounted(path)
	if err != nil {
		return false, errors.Wrapf(err, "checking mount state of %s", path)
	}
	return ok, nil
}

// Remount remounts path with its current source, clearing read-only.
func (l *Linux) Remount(path string) error {
	if err := unix.Mount("", path, "", unix.MS_REMOUNT, ""); err != nil {
		return errors.Wrapf(err, "remounting %s", path)
	}
	return nil
}

// TotalSize returns the capacity in bytes of the filesystem holding path.
func (l *Linux) TotalSize(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, errors.Wrapf(err, "statfs %s", path)
	}
	return st.Blocks * uint64(st.Bsize), nil
}

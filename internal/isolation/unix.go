package isolation

import (
	"golang.org/x/sys/unix"
)

// Unix is the Isolator backed by the unshare(2) and mount(2) syscalls.
// The caller must hold CAP_SYS_ADMIN.
type Unix struct{}

var _ Isolator = Unix{}

// UnshareMounts implements Isolator.
func (Unix) UnshareMounts() error {
	return unix.Unshare(unix.CLONE_NEWNS)
}

// MakePrivate implements Isolator.
func (Unix) MakePrivate(path string) error {
	return unix.Mount("", path, "", unix.MS_PRIVATE|unix.MS_REC, "")
}

// RemountWritable implements Isolator.
func (Unix) RemountWritable(path string) error {
	return unix.Mount("", path, "", unix.MS_REMOUNT, "")
}

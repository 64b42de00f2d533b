// Package isolation moves the process into a private mount namespace so
// mounts made while backing up or restoring never leak to the rest of the
// system.
package isolation

import (
	"github.com/thoreinstein/rombak/internal/errors"
)

// Isolator performs the privileged namespace operations.
type Isolator interface {
	// UnshareMounts detaches the calling process's mount namespace.
	UnshareMounts() error
	// MakePrivate stops mount propagation below path, recursively.
	MakePrivate(path string) error
	// RemountWritable remounts path read-write.
	RemountWritable(path string) error
}

// Session represents an active private namespace. It lasts for the rest of
// the process; there is nothing to undo.
type Session struct {
	root string
}

// Root returns the path that was made private.
func (s *Session) Root() string {
	return s.root
}

// Close does nothing. The namespace is released when the process exits.
func (s *Session) Close() error {
	return nil
}

// Enter unshares the mount namespace, marks "/" private and remounts it
// writable. Steps are performed in that order and the first failure is
// returned.
func Enter(iso Isolator) (*Session, error) {
	if err := iso.UnshareMounts(); err != nil {
		return nil, errors.Wrap(err, "unshare() failed")
	}
	if err := iso.MakePrivate("/"); err != nil {
		return nil, errors.Wrap(err, "failed to set private mount propagation")
	}
	if err := iso.RemountWritable("/"); err != nil {
		return nil, errors.Wrap(err, "failed to remount rootfs as writable")
	}
	return &Session{root: "/"}, nil
}

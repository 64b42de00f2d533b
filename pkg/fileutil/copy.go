package fileutil

import (
	"io"
	"os"

	"github.com/thoreinstein/rombak/internal/errors"
)

// CopyFile copies the regular file src to dst atomically, keeping the
// source's permission bits and modification time. Ownership is copied when
// running as root.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "opening source")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrap(err, "stat source")
	}
	if !info.Mode().IsRegular() {
		return errors.Newf("%s is not a regular file", src)
	}

	err = AtomicWrite(dst, info.Mode().Perm(), func(w io.Writer) error {
		if _, err := io.Copy(w, in); err != nil {
			return errors.Wrap(err, "copying data")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return errors.Wrap(err, "setting times")
	}
	if uid, gid, ok := owner(info); ok && os.Geteuid() == 0 {
		if err := os.Lchown(dst, uid, gid); err != nil {
			return errors.Wrap(err, "setting owner")
		}
	}
	return nil
}

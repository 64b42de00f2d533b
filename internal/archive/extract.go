package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/logging"
)

// ErrUnsafePath is returned when an archive entry would be written outside
// the destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

type dirTimes struct {
	path  string
	atime time.Time
	mtime time.Time
}

// Extract unpacks the archive at path into destDir. When isSplit is set the
// archive is read from path.0, path.1, ... in order. Ownership is restored
// only when running as root.
func (t *Tar) Extract(path, destDir string, kind compression.Kind, isSplit bool) error {
	var src io.ReadCloser
	var err error
	if isSplit {
		src, err = openChunks(path)
	} else {
		src, err = os.Open(path)
		err = errors.Wrapf(err, "opening %s", path)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	cr, err := compression.NewReader(kind, src)
	if err != nil {
		return err
	}
	defer cr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", destDir)
	}

	tr := tar.NewReader(cr)
	var dirs []dirTimes
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading tar stream")
		}
		if err := t.extractEntry(tr, hdr, root, &dirs); err != nil {
			return err
		}
	}

	// Directory times are set last since creating children updates them.
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := os.Chtimes(d.path, d.atime, d.mtime); err != nil {
			t.logger.Debug("setting directory times failed", "path", d.path, "error", err)
		}
	}
	return nil
}

func (t *Tar) extractEntry(tr *tar.Reader, hdr *tar.Header, root string, dirs *[]dirTimes) error {
	target := filepath.Join(root, filepath.FromSlash(hdr.Name))
	if !within(root, target) {
		return errors.Wrapf(ErrUnsafePath, "%s", hdr.Name)
	}
	mode := hdr.FileInfo().Mode()

	walk := filepath.Dir(target)
	if hdr.Typeflag == tar.TypeDir {
		walk = target
	}
	if err := noSymlinks(root, walk); err != nil {
		return errors.Wrapf(err, "%s", hdr.Name)
	}

	if hdr.Typeflag != tar.TypeDir {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "creating parent of %s", hdr.Name)
		}
		if err := removeExisting(target); err != nil {
			return err
		}
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0o755); err != nil {
			return errors.Wrapf(err, "creating directory %s", hdr.Name)
		}
		*dirs = append(*dirs, dirTimes{path: target, atime: hdr.AccessTime, mtime: hdr.ModTime})
	case tar.TypeReg:
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return errors.Wrapf(err, "creating %s", hdr.Name)
		}
		_, copyErr := io.Copy(f, tr)
		closeErr := f.Close()
		if copyErr != nil {
			return errors.Wrapf(copyErr, "writing %s", hdr.Name)
		}
		if closeErr != nil {
			return errors.Wrapf(closeErr, "closing %s", hdr.Name)
		}
	case tar.TypeSymlink:
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return errors.Wrapf(err, "creating symlink %s", hdr.Name)
		}
	case tar.TypeLink:
		source := filepath.Join(root, filepath.FromSlash(hdr.Linkname))
		if !within(root, source) {
			return errors.Wrapf(ErrUnsafePath, "%s links to %s", hdr.Name, hdr.Linkname)
		}
		if err := noSymlinks(root, filepath.Dir(source)); err != nil {
			return errors.Wrapf(err, "%s links to %s", hdr.Name, hdr.Linkname)
		}
		if err := os.Link(source, target); err != nil {
			return errors.Wrapf(err, "creating hard link %s", hdr.Name)
		}
		// Metadata is shared with the link source.
		return nil
	case tar.TypeChar, tar.TypeBlock, tar.TypeFifo:
		if err := mknod(target, hdr); err != nil {
			t.logger.Warn("creating special file failed", "name", hdr.Name, "error", err)
			return nil
		}
	default:
		t.logger.Debug("skipping unsupported entry", "name", hdr.Name, "type", string(hdr.Typeflag))
		return nil
	}

	t.restoreMetadata(target, hdr, mode)
	t.logger.Log(context.Background(), logging.LevelTrace, "extracted", "name", hdr.Name)
	return nil
}

// restoreMetadata applies ownership, xattrs, permissions and times. Failures
// are logged and do not stop extraction.
func (t *Tar) restoreMetadata(target string, hdr *tar.Header, mode os.FileMode) {
	isLink := hdr.Typeflag == tar.TypeSymlink

	if os.Geteuid() == 0 {
		if err := os.Lchown(target, hdr.Uid, hdr.Gid); err != nil {
			t.logger.Debug("chown failed", "name", hdr.Name, "error", err)
		}
	}
	for k, v := range hdr.PAXRecords {
		key, ok := strings.CutPrefix(k, paxXattrPrefix)
		if !ok {
			continue
		}
		if err := writeXattr(target, key, v); err != nil {
			t.logger.Debug("setting xattr failed", "name", hdr.Name, "xattr", key, "error", err)
		}
	}
	if isLink {
		return
	}
	// Chmod after chown so setuid and setgid bits survive.
	if err := os.Chmod(target, mode.Perm()|mode&(os.ModeSetuid|os.ModeSetgid|os.ModeSticky)); err != nil {
		t.logger.Debug("chmod failed", "name", hdr.Name, "error", err)
	}
	if hdr.Typeflag != tar.TypeDir {
		if err := os.Chtimes(target, hdr.AccessTime, hdr.ModTime); err != nil {
			t.logger.Debug("setting times failed", "name", hdr.Name, "error", err)
		}
	}
}

// noSymlinks fails with ErrUnsafePath if an existing component of path below
// root is a symlink. Components that do not exist yet end the walk.
func noSymlinks(root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return nil
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "stat %s", cur)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.Wrapf(ErrUnsafePath, "through symlink %s", cur)
		}
	}
	return nil
}

// removeExisting clears a non-directory at target so it can be replaced.
func removeExisting(target string) error {
	info, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "stat %s", target)
	}
	if info.IsDir() {
		return nil
	}
	if err := os.Remove(target); err != nil {
		return errors.Wrapf(err, "replacing %s", target)
	}
	return nil
}

func mknod(target string, hdr *tar.Header) error {
	mode := uint32(hdr.Mode & 0o7777)
	switch hdr.Typeflag {
	case tar.TypeChar:
		mode |= unix.S_IFCHR
	case tar.TypeBlock:
		mode |= unix.S_IFBLK
	case tar.TypeFifo:
		mode |= unix.S_IFIFO
	}
	dev := unix.Mkdev(uint32(hdr.Devmajor), uint32(hdr.Devminor))
	return unix.Mknod(target, mode, int(dev))
}

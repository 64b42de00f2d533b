// Package archive writes and reads compressed tarballs of partition trees,
// optionally split into fixed-size numbered chunks.
//
// A split archive is stored as base.0, base.1, ... and reassembled in index
// order on extraction. Ownership, permissions, timestamps, hard links,
// device nodes and extended attributes (including SELinux labels) are
// preserved.
package archive

import (
	"archive/tar"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
	"github.com/thoreinstein/rombak/internal/logging"
)

// paxXattrPrefix is the PAX record namespace GNU tar and libarchive use for
// extended attributes.
const paxXattrPrefix = "SCHILY.xattr."

// Tar creates and extracts tar archives.
type Tar struct {
	logger *slog.Logger
}

// New returns a Tar that logs entries at trace level to logger. A nil
// logger discards output.
func New(logger *slog.Logger) *Tar {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tar{logger: logger}
}

type inode struct {
	dev uint64
	ino uint64
}

// Create archives entries, relative to baseDir, into path compressed with
// kind. Directories are walked recursively. With a non-zero splitSize the
// output is split into chunks no larger than splitSize bytes. Any archive or
// chunks previously at path are removed first.
func (t *Tar) Create(path, baseDir string, entries []string, kind compression.Kind, splitSize uint64) (err error) {
	if err := removeChunks(path); err != nil {
		return err
	}

	sw, err := newSplitWriter(path, splitSize)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cw, err := compression.NewWriter(kind, sw)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	links := make(map[inode]string)
	for _, entry := range entries {
		root := filepath.Join(baseDir, entry)
		walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(baseDir, p)
			if err != nil {
				return errors.Wrapf(err, "relative path for %s", p)
			}
			return t.addEntry(tw, p, filepath.ToSlash(rel), links)
		})
		if walkErr != nil {
			return errors.Wrapf(walkErr, "archiving %s", entry)
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "finalizing tar stream")
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, "flushing compressor")
	}
	t.logger.Debug("archive written", "path", path, "chunks", sw.Chunks())
	return nil
}

func (t *Tar) addEntry(tw *tar.Writer, path, name string, links map[inode]string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}

	var linkTarget string
	if info.Mode()&fs.ModeSymlink != 0 {
		if linkTarget, err = os.Readlink(path); err != nil {
			return errors.Wrapf(err, "reading link %s", path)
		}
	}

	hdr, err := tar.FileInfoHeader(info, linkTarget)
	if err != nil {
		// Sockets have no tar representation.
		t.logger.Warn("skipping unarchivable entry", "path", path, "error", err)
		return nil
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Format = tar.FormatPAX

	if st, ok := info.Sys().(*syscall.Stat_t); ok && info.Mode().IsRegular() && st.Nlink > 1 {
		key := inode{dev: uint64(st.Dev), ino: uint64(st.Ino)}
		if first, seen := links[key]; seen {
			hdr.Typeflag = tar.TypeLink
			hdr.Linkname = first
			hdr.Size = 0
		} else {
			links[key] = name
		}
	}

	xattrs, err := readXattrs(path)
	if err != nil {
		t.logger.Debug("reading xattrs failed", "path", path, "error", err)
	}
	if len(xattrs) > 0 {
		hdr.PAXRecords = make(map[string]string, len(xattrs))
		for k, v := range xattrs {
			hdr.PAXRecords[paxXattrPrefix+k] = v
		}
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "writing header for %s", name)
	}
	t.logger.Log(context.Background(), logging.LevelTrace, "archived", "name", name)

	if hdr.Typeflag != tar.TypeReg {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return errors.Wrapf(err, "copying %s", path)
	}
	return nil
}

// within reports whether target stays inside root.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

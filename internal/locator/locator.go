// Package locator finds the archive a backup directory holds for a
// partition, whichever compression it was written with and whether or not
// it was split into chunks.
package locator

import (
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/thoreinstein/rombak/internal/compression"
)

// SplitSuffix is appended to an archive name to form its first chunk.
const SplitSuffix = ".0"

// Descriptor identifies an archive found on disk.
type Descriptor struct {
	// Name is the logical name, e.g. "system".
	Name string
	// Compression is the kind implied by the file extension.
	Compression compression.Kind
	// Split is set when only numbered chunks exist.
	Split bool
}

// Filename returns the archive file name without any chunk suffix.
func (d Descriptor) Filename() string {
	return d.Name + d.Compression.Extension()
}

// Path returns the archive path inside dir without any chunk suffix.
func (d Descriptor) Path(dir string) string {
	return filepath.Join(dir, d.Filename())
}

// FirstFile returns the path of the file that must exist for the archive
// to be readable: the archive itself or its first chunk.
func (d Descriptor) FirstFile(dir string) string {
	p := d.Path(dir)
	if d.Split {
		p += SplitSuffix
	}
	return p
}

// Find probes dir for name with every compression extension in priority
// order and returns the first readable match. For a given kind the unsplit
// file wins over the split form. Only the first matching kind is reported
// even when archives of several kinds coexist.
func Find(dir, name string) (Descriptor, bool) {
	for _, k := range compression.Kinds() {
		unsplit := filepath.Join(dir, name+k.Extension())
		if readable(unsplit) {
			return Descriptor{Name: name, Compression: k}, true
		}
		if readable(unsplit + SplitSuffix) {
			return Descriptor{Name: name, Compression: k, Split: true}, true
		}
	}
	return Descriptor{}, false
}

func readable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

package backup

import (
	"slices"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
)

// Result is the outcome of one backup or restore step.
type Result int

const (
	// Succeeded means the step completed.
	Succeeded Result = iota
	// Failed means the step hit an error and the run must stop.
	Failed
	// FilesMissing means the step's source was absent and nothing was done.
	FilesMissing
	// BootImageUnpatched is reserved for a boot image that could not be
	// stamped. No operation currently produces it.
	BootImageUnpatched
)

func (r Result) String() string {
	switch r {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case FilesMissing:
		return "files missing"
	case BootImageUnpatched:
		return "boot image unpatched"
	default:
		return "unknown"
	}
}

// DefaultImageSize is the size of a newly created cache or data image.
const DefaultImageSize uint64 = 4 << 30

// DefaultMountDir is where images are mounted while being processed.
const DefaultMountDir = "/mb_mnt"

// File names inside a backup directory.
const (
	BootImageName = "boot.img"
	ConfigName    = "config.json"
	ThumbnailName = "thumbnail.webp"
	ManifestName  = "manifest.json"
)

// Archive base names; the compression extension is appended.
const (
	SystemArchive = "system"
	CacheArchive  = "cache"
	DataArchive   = "data"
)

// Directory names left alone by backups and restore wipes.
const (
	MultibootEntry = "multiboot"
	MediaEntry     = "media"
)

var (
	// ErrNoTargets is returned when a run is asked to process nothing.
	ErrNoTargets = errors.New("no backup targets selected")
	// ErrBackupNotFound is returned when a restore cannot find a partition
	// archive in the backup directory.
	ErrBackupNotFound = errors.New("backup archive not found")
)

// PartitionSpec describes one partition to back up or restore.
type PartitionSpec struct {
	// Path is the directory tree or image file.
	Path string
	// IsImage selects the loop-mount path.
	IsImage bool
	// Exclusions are top-level names skipped by the backup or kept by the
	// restore wipe.
	Exclusions []string
	// SizeHint is the size of an image created during restore.
	SizeHint uint64
}

func (s PartitionSpec) excluded(name string) bool {
	return slices.Contains(s.Exclusions, name)
}

// Archiver writes and reads partition archives.
type Archiver interface {
	Create(path, baseDir string, entries []string, kind compression.Kind, splitSize uint64) error
	Extract(path, destDir string, kind compression.Kind, isSplit bool) error
}

// ImageTool creates and repairs filesystem images.
type ImageTool interface {
	Create(path string, size uint64) error
	// Repair is best effort and reports nothing.
	Repair(path string)
}

// Mounter mounts filesystem images.
type Mounter interface {
	MountImage(image, target string, readOnly bool) error
	Unmount(target string) error
}

// BootPatcher copies a boot image, stamping it with a ROM id.
type BootPatcher interface {
	Patch(input, output, romID string) error
}

// Registry is the part of the ROM registry a restore needs.
type Registry interface {
	PartitionTotalSize(name string) (uint64, error)
	FixPermissions() error
	MultibootDir() string
}

// Package rom resolves ROM identifiers to the filesystem locations of their
// partitions and multiboot artifacts.
package rom

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/thoreinstein/rombak/internal/errors"
)

// Partition names accepted by the Registry methods.
const (
	System = "system"
	Cache  = "cache"
	Data   = "data"
)

// Well-known ROM ids.
const (
	PrimaryID = "primary"
	DualID    = "dual"
)

var (
	// ErrInvalidROM is returned for an id that matches no known layout.
	ErrInvalidROM = errors.New("invalid ROM id")
	// ErrNotInstalled is returned when a ROM's system tree is absent.
	ErrNotInstalled = errors.New("ROM is not installed")
	// ErrUnknownPartition is returned for a partition name other than
	// system, cache or data.
	ErrUnknownPartition = errors.New("unknown partition")
)

var (
	multiSlotRe = regexp.MustCompile(`^multi-slot-[0-9]+$`)
	dataSlotRe  = regexp.MustCompile(`^data-slot-[^/]+$`)
	extsdSlotRe = regexp.MustCompile(`^extsd-slot-[^/]+$`)
)

// ROM describes where one installed ROM keeps its data.
type ROM struct {
	ID string

	SystemPath string
	CachePath  string
	DataPath   string

	SystemIsImage bool
	CacheIsImage  bool
	DataIsImage   bool

	BootImagePath string
	ConfigPath    string
	ThumbnailPath string
}

// Registry looks up ROMs and the host partitions they live on.
type Registry interface {
	// Resolve returns the layout for a valid id whether or not it is
	// installed.
	Resolve(id string) (*ROM, error)
	// Installed is like Resolve but also requires the system tree to exist.
	Installed(id string) (*ROM, error)
	// PartitionPath returns the mount point of a host partition.
	PartitionPath(name string) (string, error)
	// PartitionTotalSize returns the capacity in bytes of a host partition.
	PartitionTotalSize(name string) (uint64, error)
	// FixPermissions normalizes ownership and modes under MultibootDir.
	FixPermissions() error
	// MultibootDir is the root of per-ROM bookkeeping directories.
	MultibootDir() string
}

// Sizer reports filesystem capacity.
type Sizer interface {
	TotalSize(path string) (uint64, error)
}

// Layout is the default Registry. Paths are derived from the host partition
// mount points and the multiboot and external SD directories.
type Layout struct {
	SystemPartition string
	CachePartition  string
	DataPartition   string
	Multiboot       string
	ExtsdDir        string

	Sizer Sizer
	Perms *Permissions
}

var _ Registry = (*Layout)(nil)

// Resolve implements Registry.
func (l *Layout) Resolve(id string) (*ROM, error) {
	r := &ROM{ID: id}
	switch {
	case id == PrimaryID:
		r.SystemPath = l.SystemPartition
		r.CachePath = l.CachePartition
		r.DataPath = l.DataPartition
	case id == DualID:
		base := filepath.Join(l.SystemPartition, "multiboot", DualID)
		r.SystemPath = filepath.Join(base, System)
		r.CachePath = filepath.Join(base, Cache)
		r.DataPath = filepath.Join(base, Data)
	case multiSlotRe.MatchString(id):
		r.SystemPath = filepath.Join(l.CachePartition, "multiboot", id, System)
		r.CachePath = filepath.Join(l.SystemPartition, "multiboot", id, Cache)
		r.DataPath = filepath.Join(l.DataPartition, "multiboot", id, Data)
	case dataSlotRe.MatchString(id):
		base := filepath.Join(l.DataPartition, "multiboot", id)
		r.SystemPath = filepath.Join(base, System)
		r.CachePath = filepath.Join(base, Cache)
		r.DataPath = filepath.Join(base, Data)
	case extsdSlotRe.MatchString(id):
		base := filepath.Join(l.ExtsdDir, "multiboot", id)
		r.SystemPath = filepath.Join(base, System+".img")
		r.CachePath = filepath.Join(base, Cache+".img")
		r.DataPath = filepath.Join(base, Data+".img")
		r.SystemIsImage = true
		r.CacheIsImage = true
		r.DataIsImage = true
	default:
		return nil, errors.Wrapf(ErrInvalidROM, "%q", id)
	}

	r.BootImagePath = filepath.Join(l.Multiboot, id, "boot.img")
	r.ConfigPath = filepath.Join(l.Multiboot, id, "config.json")
	r.ThumbnailPath = filepath.Join(l.Multiboot, id, "thumbnail.webp")
	return r, nil
}

// Installed implements Registry.
func (l *Layout) Installed(id string) (*ROM, error) {
	r, err := l.Resolve(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.SystemPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotInstalled, "%s", id)
		}
		return nil, errors.Wrapf(err, "checking %s", r.SystemPath)
	}
	return r, nil
}

// PartitionPath implements Registry.
func (l *Layout) PartitionPath(name string) (string, error) {
	switch name {
	case System:
		return l.SystemPartition, nil
	case Cache:
		return l.CachePartition, nil
	case Data:
		return l.DataPartition, nil
	}
	return "", errors.Wrapf(ErrUnknownPartition, "%q", name)
}

// PartitionTotalSize implements Registry.
func (l *Layout) PartitionTotalSize(name string) (uint64, error) {
	p, err := l.PartitionPath(name)
	if err != nil {
		return 0, err
	}
	if l.Sizer == nil {
		return 0, errors.New("no filesystem sizer configured")
	}
	size, err := l.Sizer.TotalSize(p)
	if err != nil {
		return 0, errors.Wrapf(err, "sizing %s partition", name)
	}
	return size, nil
}

// MultibootDir implements Registry.
func (l *Layout) MultibootDir() string {
	return l.Multiboot
}

// FixPermissions implements Registry.
func (l *Layout) FixPermissions() error {
	perms := l.Perms
	if perms == nil {
		perms = &Permissions{}
	}
	return perms.Apply(l.Multiboot)
}

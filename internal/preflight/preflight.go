// Package preflight verifies the host partitions are in a usable state
// before a backup or restore starts.
package preflight

import (
	"github.com/thoreinstein/rombak/internal/errors"
)

// ErrNotMounted is returned when a required partition is not mounted.
var ErrNotMounted = errors.New("partition is not mounted")

// MountTable answers mount state queries and performs remounts.
type MountTable interface {
	IsMounted(path string) (bool, error)
	Remount(path string) error
}

// Partition is a named host mount point.
type Partition struct {
	Name string
	Path string
}

// Checker checks a fixed, ordered list of partitions.
type Checker struct {
	table      MountTable
	partitions []Partition
}

// New returns a Checker for partitions, which are checked in order.
func New(table MountTable, partitions ...Partition) *Checker {
	return &Checker{table: table, partitions: partitions}
}

// EnsureMounted fails with ErrNotMounted naming the first partition that is
// unconfigured or not mounted.
func (c *Checker) EnsureMounted() error {
	for _, p := range c.partitions {
		if p.Path == "" {
			return errors.Wrapf(ErrNotMounted, "%s partition has no mount point", p.Name)
		}
		ok, err := c.table.IsMounted(p.Path)
		if err != nil {
			return errors.Wrapf(err, "checking %s partition", p.Name)
		}
		if !ok {
			return errors.Wrapf(ErrNotMounted, "%s partition (%s)", p.Name, p.Path)
		}
	}
	return nil
}

// RemountWritable remounts every partition read-write, stopping at the first
// failure.
func (c *Checker) RemountWritable() error {
	for _, p := range c.partitions {
		if err := c.table.Remount(p.Path); err != nil {
			return errors.Wrapf(err, "remounting %s partition writable", p.Name)
		}
	}
	return nil
}

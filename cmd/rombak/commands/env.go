package commands

import (
	"log/slog"

	"github.com/thoreinstein/rombak/cmd"
	"github.com/thoreinstein/rombak/internal/archive"
	"github.com/thoreinstein/rombak/internal/backup"
	"github.com/thoreinstein/rombak/internal/bootimg"
	"github.com/thoreinstein/rombak/internal/config"
	"github.com/thoreinstein/rombak/internal/image"
	"github.com/thoreinstein/rombak/internal/isolation"
	"github.com/thoreinstein/rombak/internal/mount"
	"github.com/thoreinstein/rombak/internal/preflight"
	"github.com/thoreinstein/rombak/internal/rom"
	"github.com/thoreinstein/rombak/internal/selinux"
)

// environment bundles the collaborators a backup or restore run needs.
type environment struct {
	engine    *backup.Engine
	registry  rom.Registry
	isolator  isolation.Isolator
	preflight *preflight.Checker
	// contextMismatch reports the current SELinux context when it differs
	// from the expected one.
	contextMismatch func(expected string) (string, bool)
}

// newEnvironment builds the environment for a run. Tests replace it.
var newEnvironment = defaultEnvironment

func defaultEnvironment(c *config.Config, logger *slog.Logger) (*environment, error) {
	mounter := mount.NewLinux(logger)

	layout := &rom.Layout{
		SystemPartition: c.Partitions.System,
		CachePartition:  c.Partitions.Cache,
		DataPartition:   c.Partitions.Data,
		Multiboot:       c.MultibootDir,
		ExtsdDir:        c.ExtsdDir,
		Sizer:           mounter,
		Perms:           &rom.Permissions{Logger: logger},
	}

	engine := backup.NewEngine(archive.New(logger),
		backup.WithLogger(logger),
		backup.WithMountDir(c.MountDir),
		backup.WithImageTool(image.New(c.Tools.Mkfs, c.Tools.Fsck, logger)),
		backup.WithMounter(mounter),
		backup.WithBootPatcher(&bootimg.Patcher{Logger: logger}),
		backup.WithRegistry(layout),
		backup.WithVersion(cmd.Version),
	)

	checker := preflight.New(mounter, hostPartitions(c)...)

	return &environment{
		engine:          engine,
		registry:        layout,
		isolator:        isolation.Unix{},
		preflight:       checker,
		contextMismatch: selinux.Mismatch,
	}, nil
}

// hostPartitions lists the host partitions in the order they are checked.
func hostPartitions(c *config.Config) []preflight.Partition {
	return []preflight.Partition{
		{Name: rom.System, Path: c.Partitions.System},
		{Name: rom.Cache, Path: c.Partitions.Cache},
		{Name: rom.Data, Path: c.Partitions.Data},
	}
}

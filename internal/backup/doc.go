// Package backup sequences the backup and restore of a single ROM.
//
// A ROM is made of up to five targets: the system, cache and data
// partitions, its boot image, and its multiboot config artifacts. Each
// partition is either a plain directory tree or an ext4 image that must be
// loop-mounted before its contents can be read or replaced.
//
// # Results
//
// Every partition and artifact operation returns a [Result] with an error:
//
//   - [Succeeded]: the work was done
//   - [FilesMissing]: the source did not exist; nothing was changed
//   - [Failed]: an I/O or tool error; the error is non-nil
//
// Orchestrators treat FilesMissing as a warning and stop at the first
// Failed, without rolling back earlier steps.
//
// # Backup layout
//
// A backup directory holds at most:
//
//	<backup dir>/<name>/
//	├── boot.img
//	├── config.json
//	├── thumbnail.webp
//	├── system.tar.lz4      (or system.tar.lz4.0, .1, ... when split)
//	├── cache.tar.lz4
//	├── data.tar.lz4
//	└── manifest.json
//
// The archive extension follows the compression kind. Restore locates each
// archive by probing the extensions in a fixed order.
//
// # Image partitions
//
// Image partitions are repaired with e2fsck, mounted at the engine's mount
// directory (read-only for backup, read-write for restore), processed as a
// directory, then unmounted. The mount directory is always cleaned up once
// a mount succeeded; an unmount failure is logged and does not change the
// outcome.
//
// # Restore wipes
//
// Restoring a partition first deletes every top-level entry of the target
// except the exclusions (data keeps "media"). The archive is checked for
// before anything is deleted.
package backup

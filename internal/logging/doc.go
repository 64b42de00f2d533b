// Package logging provides structured logging for rombak using slog.
//
// Console output uses [Handler], a compact colorized text handler. A JSON
// copy of every record can be written to a file through [MultiHandler].
//
// # Levels
//
// Progress lines ("=== Backing up /system ===") are Info, missing inputs
// are Warn, failures are Error. Per-entry archive and wipe messages use
// [LevelTrace] and only show with -vv.
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//	})
//
// # Testing
//
// Use [ForTest] to route log output through the test framework:
//
//	engine := backup.NewEngine(backup.WithLogger(logging.ForTest(t)))
package logging

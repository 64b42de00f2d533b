// Package errors provides error handling conventions for the rombak CLI.
//
// It re-exports the cockroachdb/errors constructors used across the module,
// defines a small set of shared sentinel errors, and an ExitError type that
// carries the process exit code.
//
// # Exit Codes
//
// rombak only distinguishes success from failure:
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): Validation error (invalid flags, unknown ROM, etc.)
//   - ExitFailure (1): Execution error (I/O, mount, codec, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. It supports [errors.Is] and [errors.As]:
//
//	err := rerrors.NewUserError(target.ErrInvalidTargets, "Valid targets: all, system, cache, data, boot, config")
//	os.Exit(rerrors.Code(err))
package errors

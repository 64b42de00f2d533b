package config

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/rombak/internal/compression"
	"github.com/thoreinstein/rombak/internal/errors"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidCompression indicates an unrecognized compression name.
	ErrInvalidCompression = errors.New("invalid compression")

	// ErrInvalidPath indicates a path value is malformed or relative.
	ErrInvalidPath = errors.New("invalid path")

	// ErrMissingTool indicates an external tool name is empty.
	ErrMissingTool = errors.New("tool not set")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if _, ok := compression.Lookup(cfg.Compression); !ok {
		errs = append(errs, &FieldError{
			Field: "compression",
			Value: cfg.Compression,
			Err:   ErrInvalidCompression,
		})
	}

	dirs := []struct {
		field string
		path  string
	}{
		{"backup_dir", cfg.BackupDir},
		{"multiboot_dir", cfg.MultibootDir},
		{"mount_dir", cfg.MountDir},
		{"extsd_dir", cfg.ExtsdDir},
		{"partitions.system", cfg.Partitions.System},
		{"partitions.cache", cfg.Partitions.Cache},
		{"partitions.data", cfg.Partitions.Data},
	}
	for _, d := range dirs {
		if err := validatePath(d.path); err != nil {
			errs = append(errs, &FieldError{Field: d.field, Value: d.path, Err: err})
		}
	}
	if filepath.Clean(cfg.MountDir) == "/" {
		errs = append(errs, &FieldError{Field: "mount_dir", Value: cfg.MountDir, Err: ErrInvalidPath})
	}

	if cfg.Tools.Mkfs == "" {
		errs = append(errs, &FieldError{Field: "tools.mkfs", Err: ErrMissingTool})
	}
	if cfg.Tools.Fsck == "" {
		errs = append(errs, &FieldError{Field: "tools.fsck", Err: ErrMissingTool})
	}

	return errs
}

// validatePath requires an absolute path without NUL bytes. It does not
// check that the path exists.
func validatePath(path string) error {
	if path == "" || strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	if !filepath.IsAbs(path) {
		return ErrInvalidPath
	}
	return nil
}

// FieldError represents an error for a specific config field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

package commands

import (
	"strings"
	"time"

	"github.com/thoreinstein/rombak/internal/errors"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// backupNameLayout formats the default backup name, e.g. 2026.10.14-09.30.00.
const backupNameLayout = "2006.01.02-15.04.05"

// now is replaced in tests.
var now = time.Now

// defaultBackupName returns a timestamp name for a new backup.
func defaultBackupName() string {
	return now().Format(backupNameLayout)
}

// validateBackupName rejects names that would not be a single directory
// entry below the backup directory.
func validateBackupName(name string) error {
	switch {
	case name == "":
		return errors.NewUserError(errors.ErrMissingName, "Pass a backup name with -n")
	case name == "." || name == "..", strings.ContainsRune(name, '/'):
		return errors.NewUserError(errors.Newf("invalid backup name %q", name),
			"Backup names cannot contain '/' or be '.' or '..'")
	}
	return nil
}

// requireROMID fails when no ROM id was given.
func requireROMID(id string) error {
	if id == "" {
		return errors.NewUserError(errors.New("ROM ID is required"), "Pass the ROM to operate on with -r")
	}
	return nil
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

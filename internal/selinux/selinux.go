// Package selinux reads the SELinux context of the current process.
package selinux

import (
	"strings"

	goselinux "github.com/opencontainers/selinux/go-selinux"

	"github.com/thoreinstein/rombak/internal/errors"
)

// DefaultExpectedContext is the context the multiboot daemon runs tools in.
const DefaultExpectedContext = "u:r:mb_exec:s0"

var currentLabel = goselinux.CurrentLabel

// Current returns the SELinux context of the calling process.
func Current() (string, error) {
	label, err := currentLabel()
	if err != nil {
		return "", errors.Wrap(err, "reading process context")
	}
	return strings.TrimRight(label, "\x00\n"), nil
}

// Mismatch reports the current context when it is readable and differs
// from expected. An unreadable context, such as on a kernel without
// SELinux, is not a mismatch.
func Mismatch(expected string) (string, bool) {
	ctx, err := Current()
	if err != nil || ctx == "" {
		return "", false
	}
	return ctx, ctx != expected
}

// Package cmd holds build metadata for the rombak binary, injected with
// -ldflags "-X github.com/thoreinstein/rombak/cmd.Version=...".
package cmd

var (
	// Version is the release version, or "dev" for local builds.
	Version = "dev"
	// Commit is the source revision the binary was built from.
	Commit = "none"
	// Date is when the binary was built.
	Date = "unknown"
)

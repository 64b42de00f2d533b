// Package compression maps archive compression kinds to their names and
// file extensions, and provides the stream codecs for each kind.
package compression

import (
	"slices"
)

// Kind is an archive compression kind.
type Kind int

// Compression kinds. Probe order for existing archives follows this order.
const (
	None Kind = iota
	LZ4
	Gzip
	XZ
)

type entry struct {
	kind      Kind
	name      string
	extension string
}

var table = []entry{
	{None, "none", ".tar"},
	{LZ4, "lz4", ".tar.lz4"},
	{Gzip, "gzip", ".tar.gz"},
	{XZ, "xz", ".tar.xz"},
}

// Default is the compression used when none is configured.
const Default = LZ4

// Kinds returns every kind in probe priority order.
func Kinds() []Kind {
	out := make([]Kind, len(table))
	for i, e := range table {
		out[i] = e.kind
	}
	return out
}

// Names returns the short name of every kind in probe priority order.
func Names() []string {
	out := make([]string, len(table))
	for i, e := range table {
		out[i] = e.name
	}
	return out
}

// Lookup returns the kind with the given short name.
func Lookup(name string) (Kind, bool) {
	i := slices.IndexFunc(table, func(e entry) bool { return e.name == name })
	if i < 0 {
		return None, false
	}
	return table[i].kind, true
}

func (k Kind) entry() (entry, bool) {
	i := slices.IndexFunc(table, func(e entry) bool { return e.kind == k })
	if i < 0 {
		return entry{}, false
	}
	return table[i], true
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := k.entry()
	return ok
}

// Name returns the short name of k, or "" for an unknown kind.
func (k Kind) Name() string {
	e, _ := k.entry()
	return e.name
}

// Extension returns the archive file extension of k, or "" for an unknown kind.
func (k Kind) Extension() string {
	e, _ := k.entry()
	return e.extension
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if n := k.Name(); n != "" {
		return n
	}
	return "unknown"
}

// Package target defines the units a ROM backup is made of and the set type
// used to select them.
package target

import (
	"strings"

	"github.com/thoreinstein/rombak/internal/errors"
)

// Target is one backable/restorable unit of a ROM.
type Target int

// Targets in canonical processing order for the partition-independent
// views (listing, flag help). Orchestrators define their own step order.
const (
	System Target = iota
	Cache
	Data
	Boot
	Config

	count
)

// ErrInvalidTargets is returned by Parse for unknown names or an empty selection.
var ErrInvalidTargets = errors.New("invalid targets")

// AllName selects every target.
const AllName = "all"

var names = [count]string{
	System: "system",
	Cache:  "cache",
	Data:   "data",
	Boot:   "boot",
	Config: "config",
}

// String returns the command-line name of t.
func (t Target) String() string {
	if t < 0 || t >= count {
		return "unknown"
	}
	return names[t]
}

// Lookup returns the target with the given command-line name.
func Lookup(name string) (Target, bool) {
	for t, n := range names {
		if n == name {
			return Target(t), true
		}
	}
	return 0, false
}

// Set is a finite set of targets. The zero value is empty.
type Set struct {
	members [count]bool
}

// NewSet returns a set containing ts.
func NewSet(ts ...Target) Set {
	var s Set
	for _, t := range ts {
		s = s.Add(t)
	}
	return s
}

// All returns the set of every target.
func All() Set {
	return NewSet(System, Cache, Data, Boot, Config)
}

// Add returns s with t added. Out-of-range targets are ignored.
func (s Set) Add(t Target) Set {
	if t >= 0 && t < count {
		s.members[t] = true
	}
	return s
}

// Has reports whether t is in s.
func (s Set) Has(t Target) bool {
	return t >= 0 && t < count && s.members[t]
}

// Union returns the targets in s or o.
func (s Set) Union(o Set) Set {
	for i := range s.members {
		s.members[i] = s.members[i] || o.members[i]
	}
	return s
}

// Intersect returns the targets in both s and o.
func (s Set) Intersect(o Set) Set {
	for i := range s.members {
		s.members[i] = s.members[i] && o.members[i]
	}
	return s
}

// Empty reports whether s has no targets.
func (s Set) Empty() bool {
	return s == Set{}
}

// Targets returns the members of s in declaration order.
func (s Set) Targets() []Target {
	var ts []Target
	for i, ok := range s.members {
		if ok {
			ts = append(ts, Target(i))
		}
	}
	return ts
}

// String returns s in the form accepted by Parse.
func (s Set) String() string {
	if s == All() {
		return AllName
	}
	ts := s.Targets()
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Parse parses a comma-separated list of target names, or "all".
func Parse(raw string) (Set, error) {
	var s Set
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == AllName {
			s = s.Union(All())
			continue
		}
		t, ok := Lookup(tok)
		if !ok {
			return Set{}, errors.Wrapf(ErrInvalidTargets, "%q", raw)
		}
		s = s.Add(t)
	}
	if s.Empty() {
		return Set{}, errors.Wrapf(ErrInvalidTargets, "%q", raw)
	}
	return s, nil
}

// ValidNames returns "all" followed by every target name.
func ValidNames() []string {
	out := []string{AllName}
	return append(out, names[:]...)
}

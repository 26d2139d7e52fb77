// Package update implements the stale-feedstock selection core: classifying
// which feedstocks are behind upstream and filtering the stale set down to the
// subset that can be patched without building against a soon-to-change
// dependency. Both steps are pure functions over an immutable snapshot.
package update

import (
	"sort"

	"github.com/feedtick/feedtick/internal/feedstock"
)

// VersionLookup resolves the latest known upstream version for a package.
// ok is false when the version is unknown: the package does not exist
// upstream, the source was unreachable, or the lookup timed out. A failed
// lookup is never an error here; the caller's adapter decides retry and
// timeout policy and degrades to absent.
type VersionLookup func(name string) (version string, ok bool)

// StaleSet is a set of feedstock names that are behind upstream.
type StaleSet map[string]struct{}

// Has reports whether name is in the set.
func (s StaleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members in sorted order.
func (s StaleSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classify returns the names of feedstocks whose upstream version is strictly
// newer than their pinned version.
//
// A feedstock is excluded when the upstream version is unknown (absent lookup)
// or when either version string is malformed: without trustworthy data on both
// sides the system cannot judge staleness, and a spurious pull request is
// worse than a missed update. Neither condition is an error; the result is
// always a valid, possibly empty, set.
func Classify(snap *feedstock.Snapshot, lookup VersionLookup) StaleSet {
	stale := make(StaleSet)

	for _, name := range snap.Names() {
		fs, _ := snap.Get(name)

		upstream, ok := lookup(name)
		if !ok {
			continue
		}

		pinned, err := feedstock.ParseVersion(fs.PinnedVersion)
		if err != nil {
			continue
		}
		latest, err := feedstock.ParseVersion(upstream)
		if err != nil {
			continue
		}

		if latest.Compare(pinned) > 0 {
			stale[name] = struct{}{}
		}
	}

	return stale
}

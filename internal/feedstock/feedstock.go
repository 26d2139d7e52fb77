package feedstock

import (
	"sort"
	"strings"
)

// Feedstock is one package-build recipe the user maintains.
// All fields are read once at snapshot build time and never mutated afterwards;
// recipe edits happen downstream in the pipeline, after filtering.
type Feedstock struct {
	// Name is the package name, unique within a run (e.g. "requests")
	Name string
	// PinnedVersion is the version currently recorded in the recipe
	PinnedVersion string
	// Dependencies are normalized package names the recipe requires.
	// They may reference names outside the maintained set.
	Dependencies []string
	// Recipe holds the parsed recipe payload needed by the patch pipeline.
	// Nil when the snapshot was built without recipe contents (tests).
	Recipe *Recipe
}

// Snapshot is an immutable inventory of the feedstocks a user maintains,
// built once at the start of a run. The classifier and the safe-subset
// filter only ever read it.
type Snapshot struct {
	feedstocks map[string]Feedstock
}

// NormalizeName lower-cases and trims a package name so dependency names and
// feedstock names compare equal regardless of recipe spelling.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewSnapshot builds a snapshot from a list of feedstocks.
// Names are normalized; a duplicate name keeps the first occurrence.
func NewSnapshot(feedstocks []Feedstock) *Snapshot {
	m := make(map[string]Feedstock, len(feedstocks))
	for _, fs := range feedstocks {
		name := NormalizeName(fs.Name)
		if name == "" {
			continue
		}
		if _, exists := m[name]; exists {
			continue
		}
		fs.Name = name
		deps := make([]string, 0, len(fs.Dependencies))
		for _, d := range fs.Dependencies {
			if nd := NormalizeName(d); nd != "" {
				deps = append(deps, nd)
			}
		}
		sort.Strings(deps)
		fs.Dependencies = deps
		m[name] = fs
	}
	return &Snapshot{feedstocks: m}
}

// Get returns the feedstock with the given name.
func (s *Snapshot) Get(name string) (Feedstock, bool) {
	fs, ok := s.feedstocks[NormalizeName(name)]
	return fs, ok
}

// Has reports whether the snapshot contains the given name.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.feedstocks[NormalizeName(name)]
	return ok
}

// Len returns the number of feedstocks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.feedstocks)
}

// Names returns all feedstock names in sorted order for deterministic iteration.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.feedstocks))
	for name := range s.feedstocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the dependency lists keyed by feedstock name.
// The returned map is a copy; mutating it does not affect the snapshot.
func (s *Snapshot) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(s.feedstocks))
	for name, fs := range s.feedstocks {
		deps[name] = append([]string(nil), fs.Dependencies...)
	}
	return deps
}

package feedstock

import (
	"reflect"
	"testing"
)

func TestNewSnapshotNormalizes(t *testing.T) {
	snap := NewSnapshot([]Feedstock{
		{Name: " Requests ", PinnedVersion: "2.0", Dependencies: []string{"Six", " urllib3 "}},
		{Name: "requests", PinnedVersion: "9.9"}, // duplicate, first wins
		{Name: ""},                               // dropped
	})

	if snap.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", snap.Len())
	}

	fs, ok := snap.Get("REQUESTS")
	if !ok {
		t.Fatalf("Get by differently-cased name failed")
	}
	if fs.PinnedVersion != "2.0" {
		t.Errorf("duplicate did not keep first occurrence, got %q", fs.PinnedVersion)
	}
	if want := []string{"six", "urllib3"}; !reflect.DeepEqual(fs.Dependencies, want) {
		t.Errorf("Dependencies = %v, want %v", fs.Dependencies, want)
	}
}

func TestSnapshotNamesSorted(t *testing.T) {
	snap := NewSnapshot([]Feedstock{
		{Name: "zlib"}, {Name: "abc"}, {Name: "numpy"},
	})
	if want := []string{"abc", "numpy", "zlib"}; !reflect.DeepEqual(snap.Names(), want) {
		t.Errorf("Names() = %v, want %v", snap.Names(), want)
	}
}

func TestSnapshotDependenciesIsCopy(t *testing.T) {
	snap := NewSnapshot([]Feedstock{
		{Name: "a", Dependencies: []string{"b"}},
	})

	deps := snap.Dependencies()
	deps["a"][0] = "mutated"

	fresh := snap.Dependencies()
	if fresh["a"][0] != "b" {
		t.Errorf("Dependencies() must return a copy, snapshot was mutated")
	}
}

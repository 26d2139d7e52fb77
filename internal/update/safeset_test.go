package update

import (
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func staleOf(names ...string) StaleSet {
	s := make(StaleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func TestSafeSubsetBasics(t *testing.T) {
	tests := []struct {
		name  string
		stale StaleSet
		deps  map[string][]string
		want  []string
	}{
		{
			name:  "empty stale set",
			stale: staleOf(),
			deps:  map[string][]string{"a": {"b"}},
			want:  []string{},
		},
		{
			name:  "no deps at all",
			stale: staleOf("a", "b"),
			deps:  nil,
			want:  []string{"a", "b"},
		},
		{
			name:  "stale dep blocks",
			stale: staleOf("a", "b"),
			deps:  map[string][]string{"a": {"b"}},
			want:  []string{"b"},
		},
		{
			name:  "fresh dep does not block",
			stale: staleOf("a"),
			deps:  map[string][]string{"a": {"b", "c"}},
			want:  []string{"a"},
		},
		{
			name:  "self-dependency excluded",
			stale: staleOf("a"),
			deps:  map[string][]string{"a": {"a"}},
			want:  []string{},
		},
		{
			name:  "mutual stale deps block both",
			stale: staleOf("a", "b"),
			deps:  map[string][]string{"a": {"b"}, "b": {"a"}},
			want:  []string{},
		},
		{
			name:  "one level only, no cascade",
			stale: staleOf("a", "b", "c"),
			deps:  map[string][]string{"a": {"b"}, "b": {"c"}},
			want:  []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeSubset(tt.stale, tt.deps).Names()
			if !reflect.DeepEqual(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("SafeSubset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeSubsetDoesNotMutateInputs(t *testing.T) {
	stale := staleOf("a", "b")
	deps := map[string][]string{"a": {"b"}, "b": {}}

	_ = SafeSubset(stale, deps)

	if got, want := stale.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("stale set was mutated: %v", got)
	}
	if got, want := deps["a"], []string{"b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("deps map was mutated: %v", got)
	}
}

// genFilterInput generates a stale set together with a dependency mapping over
// a small shared name universe, so dependencies hit stale, fresh, and unknown
// names with realistic frequency.
func genFilterInput() gopter.Gen {
	universe := []interface{}{"a", "b", "c", "d", "e", "f", "g", "h"}

	nameGen := gen.OneConstOf(universe...)
	namesGen := gen.SliceOf(nameGen).Map(func(names []string) []string {
		seen := make(map[string]struct{})
		var out []string
		for _, n := range names {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
		sort.Strings(out)
		return out
	})

	return gopter.CombineGens(namesGen, namesGen, namesGen, namesGen).Map(func(values []interface{}) filterInput {
		staleNames := values[0].([]string)
		deps := map[string][]string{}
		for i, owner := range []int{1, 2, 3} {
			if i >= len(staleNames) {
				break
			}
			deps[staleNames[i]] = values[owner].([]string)
		}
		return filterInput{stale: staleOf(staleNames...), deps: deps}
	})
}

type filterInput struct {
	stale StaleSet
	deps  map[string][]string
}

func TestSafeSubsetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("SafeSubset is a subset of the stale set", prop.ForAll(
		func(in filterInput) bool {
			safe := SafeSubset(in.stale, in.deps)
			for name := range safe {
				if !in.stale.Has(name) {
					return false
				}
			}
			return true
		},
		genFilterInput(),
	))

	properties.Property("members have no dependency in the stale set", prop.ForAll(
		func(in filterInput) bool {
			safe := SafeSubset(in.stale, in.deps)
			for name := range safe {
				for _, dep := range in.deps[name] {
					if in.stale.Has(dep) {
						return false
					}
				}
			}
			return true
		},
		genFilterInput(),
	))

	properties.Property("idempotent on unchanged inputs", prop.ForAll(
		func(in filterInput) bool {
			first := SafeSubset(in.stale, in.deps)
			second := SafeSubset(in.stale, in.deps)
			return reflect.DeepEqual(first, second)
		},
		genFilterInput(),
	))

	properties.Property("feedstock with empty deps is always safe when stale", prop.ForAll(
		func(in filterInput) bool {
			safe := SafeSubset(in.stale, in.deps)
			for name := range in.stale {
				if len(in.deps[name]) == 0 && !safe.Has(name) {
					return false
				}
			}
			return true
		},
		genFilterInput(),
	))

	properties.TestingRun(t)
}

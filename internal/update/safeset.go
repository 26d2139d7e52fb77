package update

// SafeSubset returns the stale feedstocks that can be patched now: those whose
// direct dependencies do not intersect the stale set. If f depends on g and g
// is itself stale, patching f would build against a soon-to-change g, so f is
// deferred to a later run.
//
// This is deliberately a one-level check, not a transitive fixpoint: with
// A -> B -> C all stale, only A's direct dependencies are tested against the
// full stale set. Removing B from consideration does not re-admit A in the
// same run. Upgrading this to a cascade would change which feedstocks get
// patched per run and must not be done casually.
//
// Dependencies that are not in the stale set never block, whether they are up
// to date, unmaintained by this user, or entirely unknown. Treating absent
// names as up to date is an explicit policy: the filter guards against known
// churn, not against the unknowable.
//
// A feedstock listing itself as a dependency is excluded: it cannot safely be
// patched against its own stale state.
//
// Inputs are never mutated and the result is a fresh set, so repeated calls on
// the same inputs yield identical output.
func SafeSubset(stale StaleSet, deps map[string][]string) StaleSet {
	safe := make(StaleSet)

	for name := range stale {
		blocked := false
		for _, dep := range deps[name] {
			if dep == name {
				// self-dependency
				blocked = true
				break
			}
			if stale.Has(dep) {
				blocked = true
				break
			}
		}
		if !blocked {
			safe[name] = struct{}{}
		}
	}

	return safe
}

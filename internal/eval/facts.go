package eval

import "github.com/fard-lang/fard/internal/value"

// Fact is one entry of a bundle's effect-fact manifest: the evaluator
// consults it instead of performing the effect itself, so that replaying
// a run is deterministic and requires no access to the outside world.
type Fact struct {
	Kind string
	Req  value.V
	Sat  value.V
}

// Facts is a bundle's full effect-fact manifest. Lookup is a linear scan:
// bundles carry at most a few dozen facts, so this stays simple instead
// of building an index keyed on Encode(req) that nothing else needs.
type Facts []Fact

// Lookup returns the fact satisfying an invocation of the named effect
// with the given request value, by Encode(req) equality.
func (f Facts) Lookup(kind string, req value.V) (value.V, bool) {
	for _, fact := range f {
		if fact.Kind == kind && value.Equal(fact.Req, req) {
			return fact.Sat, true
		}
	}
	return value.V{}, false
}

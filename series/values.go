package series

import "reflect"

// valuesEqual compares two values of an arbitrary, non-comparable-
// constrained V for Append's overlap verification (IgnoreEqualOverlap /
// RequireEqualOverlap).
//
// Standard library only: V carries no constraint here (unlike K, which
// is bounded by Comparer), so there is no generic equality operator to
// call, and google/go-cmp panics by design on unexported fields without
// an explicit option, which a library consumer's V must not be forced
// to supply. See DESIGN.md.
func valuesEqual[V any](a, b V) bool {
	return reflect.DeepEqual(a, b)
}

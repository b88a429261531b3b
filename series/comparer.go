package series

import (
	"time"

	"golang.org/x/exp/constraints"
)

// Comparer is a total order over K.
//
// compare(a, b) returns a negative number if a < b, zero if a == b, and a
// positive number if a > b. Implementations must be consistent: compare is
// a strict weak ordering over the lifetime of a series.
type Comparer[K any] interface {
	Compare(a, b K) int
}

// DiffableComparer is a Comparer that additionally supports subtracting
// two keys into a signed 64-bit offset and adding such an offset back to a
// key. A KeyStore only adopts the space-optimised "regular" encoding
// when its comparer implements this interface.
//
// Implementations must satisfy, for every representable delta and every
// a, b, c of K:
//
//	Diff(Add(a, delta), a) == delta
//	Compare(Add(a, delta), Add(b, delta)) == Compare(a, b)
//	Diff(a, c) == Diff(a, b) + Diff(b, c)
type DiffableComparer[K any] interface {
	Comparer[K]
	Diff(a, b K) int64
	Add(a K, delta int64) K
}

// diffable checks the capability once at series construction time; no
// later runtime type introspection is needed.
func diffable[K any](c Comparer[K]) (DiffableComparer[K], bool) {
	d, ok := c.(DiffableComparer[K])

	return d, ok
}

// IntegerComparer is a DiffableComparer for any signed or unsigned integer
// type.
type IntegerComparer[K constraints.Integer] struct{}

func (IntegerComparer[K]) Compare(a, b K) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (IntegerComparer[K]) Diff(a, b K) int64 {
	return int64(a) - int64(b)
}

func (IntegerComparer[K]) Add(a K, delta int64) K {
	return a + K(delta)
}

// Int64Comparer is the DiffableComparer for int64 keys.
type Int64Comparer = IntegerComparer[int64]

// IntComparer is the DiffableComparer for int keys.
type IntComparer = IntegerComparer[int]

// TimeComparer is a DiffableComparer over time.Time that treats the delta
// between two timestamps as a count of a fixed Unit (for example,
// time.Second). A time series sampled on a regular cadence (one entry per
// Unit) stays in the KeyStore's regular encoding.
type TimeComparer struct {
	Unit time.Duration
}

func (TimeComparer) Compare(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (c TimeComparer) Diff(a, b time.Time) int64 {
	return int64(a.Sub(b) / c.Unit)
}

func (c TimeComparer) Add(a time.Time, delta int64) time.Time {
	return a.Add(time.Duration(delta) * c.Unit)
}

// BytesComparer is a non-diffable Comparer over []byte, lexicographic by
// byte value.
type BytesComparer struct{}

func (BytesComparer) Compare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := range n {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}

			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// StringComparer is a non-diffable Comparer over string, lexicographic.
// Non-diffable comparers force the dense KeyStore shape.
type StringComparer struct{}

func (StringComparer) Compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package series

import "golang.org/x/exp/slices"

// keyStore stores the strictly increasing keys of a SortedSeries, either
// as a dense sorted array or as a two-element "regular" descriptor
// (first, step) when the comparer is diffable and the keys form an
// arithmetic progression.
//
// index -> key is the only logical contract; insertAt/append may demote
// a regular store to dense, but a dense store is never promoted back to
// regular at runtime.
type keyStore[K any] struct {
	comparer Comparer[K]
	diff     DiffableComparer[K] // nil if comparer is not diffable
	pool     BufferPool[K]

	regular bool // true iff currently stored as (first, step)
	count   int

	// regular-mode fields; step is diff(second, first), cached once
	// count >= 2. first alone is meaningful at count == 1.
	first K
	step  int64

	// dense-mode fields; len(dense) == count always, cap(dense) is the
	// allocated capacity.
	dense []K
}

func newKeyStore[K any](comparer Comparer[K], pool BufferPool[K]) *keyStore[K] {
	d, ok := diffable(comparer)

	ks := &keyStore[K]{
		comparer: comparer,
		pool:     pool,
		regular:  ok,
	}

	if ok {
		ks.diff = d
	} else {
		ks.dense = pool.Rent(0)
	}

	return ks
}

func (ks *keyStore[K]) size() int {
	return ks.count
}

// getAt returns the key at logical index i. Panics if i is out of range
// (a programmer error: callers must check size() first).
func (ks *keyStore[K]) getAt(i int) K {
	if i < 0 || i >= ks.count {
		panic("series: keyStore.getAt: index out of range")
	}

	if !ks.regular {
		return ks.dense[i]
	}

	if i == 0 {
		return ks.first
	}

	return ks.diff.Add(ks.first, ks.step*int64(i))
}

// indexOf returns i >= 0 when k is present at index i, or the two's-
// complement-style negative encoding of the insertion point otherwise:
// -(insertionPoint) - 1. Use notFoundInsertionPoint to decode it.
func (ks *keyStore[K]) indexOf(k K) int {
	if ks.regular {
		return ks.indexOfRegular(k)
	}

	i, found := slices.BinarySearchFunc(ks.dense, k, func(e, t K) int {
		return ks.comparer.Compare(e, t)
	})
	if found {
		return i
	}

	return notFoundEncode(i)
}

func (ks *keyStore[K]) indexOfRegular(k K) int {
	switch ks.count {
	case 0:
		return notFoundEncode(0)
	case 1:
		c := ks.comparer.Compare(k, ks.first)

		switch {
		case c == 0:
			return 0
		case c < 0:
			return notFoundEncode(0)
		default:
			return notFoundEncode(1)
		}
	}

	delta := ks.diff.Diff(k, ks.first)
	q, r := floorDivMod(delta, ks.step)

	switch {
	case q < 0:
		return notFoundEncode(0)
	case q >= int64(ks.count):
		return notFoundEncode(ks.count)
	case r == 0:
		return int(q)
	default:
		return notFoundEncode(int(q) + 1)
	}
}

// notFoundEncode/notFoundInsertionPoint mirror the classic
// binary-search-not-found convention: -(insertion point) - 1.
func notFoundEncode(insertionPoint int) int {
	return -insertionPoint - 1
}

func notFoundInsertionPoint(encoded int) int {
	return -encoded - 1
}

// floorDivMod returns (q, r) such that delta == q*step + r, 0 <= r <
// step, for step > 0. Plain integer division truncates toward zero,
// which is wrong for negative delta; this adjusts for that case.
func floorDivMod(delta, step int64) (int64, int64) {
	q := delta / step
	r := delta % step

	if r < 0 {
		q--
		r += step
	}

	return q, r
}

// insertAt inserts k at logical index i. Callers (SortedSeries) detect
// duplicate keys before calling; inserting a key equal to either
// neighbour of i is a programmer error and panics. It demotes a regular
// store to dense whenever the new key does not keep the arithmetic
// progression intact.
func (ks *keyStore[K]) insertAt(i int, k K) {
	if i < 0 || i > ks.count {
		panic("series: keyStore.insertAt: index out of range")
	}

	if (i < ks.count && ks.comparer.Compare(ks.getAt(i), k) == 0) ||
		(i > 0 && ks.comparer.Compare(ks.getAt(i-1), k) == 0) {
		panic("series: keyStore.insertAt: key already present")
	}

	if ks.regular {
		ks.insertAtRegular(i, k)

		return
	}

	ks.insertAtDense(i, k)
}

func (ks *keyStore[K]) insertAtRegular(i int, k K) {
	switch ks.count {
	case 0:
		ks.first = k
		ks.count = 1

		return
	case 1:
		if i == 0 {
			ks.step = ks.diff.Diff(ks.first, k)
			ks.first = k
		} else {
			ks.step = ks.diff.Diff(k, ks.first)
		}

		ks.count = 2

		return
	}

	last := ks.getAt(ks.count - 1)

	switch {
	case i == ks.count && ks.comparer.Compare(k, ks.diff.Add(last, ks.step)) == 0:
		// append, still regular
		ks.count++

		return
	case i == 0 && ks.comparer.Compare(k, ks.diff.Add(ks.first, -ks.step)) == 0:
		// prepend, still regular
		ks.first = ks.diff.Add(ks.first, -ks.step)
		ks.count++

		return
	}

	ks.materialize()
	ks.insertAtDense(i, k)
}

// materialize converts a regular store to dense, filling the backing
// array with the materialised keys. Never reversed at runtime.
func (ks *keyStore[K]) materialize() {
	if !ks.regular {
		return
	}

	buf := ks.pool.Rent(ks.count)
	buf = buf[:ks.count]

	for i := range ks.count {
		buf[i] = ks.getAt(i)
	}

	ks.dense = buf
	ks.regular = false
}

func (ks *keyStore[K]) insertAtDense(i int, k K) {
	if ks.count == cap(ks.dense) {
		bigger := ks.pool.Rent(ks.count + 1)
		bigger = bigger[:ks.count]
		copy(bigger, ks.dense)

		old := ks.dense
		ks.dense = bigger
		ks.pool.Return(old)
	}

	ks.dense = ks.dense[:ks.count+1]
	copy(ks.dense[i+1:], ks.dense[i:ks.count])
	ks.dense[i] = k
	ks.count++
}

// append inserts k as the new logical maximum.
func (ks *keyStore[K]) append(k K) {
	ks.insertAt(ks.count, k)
}

// removeAt removes the key at logical index i.
func (ks *keyStore[K]) removeAt(i int) {
	if i < 0 || i >= ks.count {
		panic("series: keyStore.removeAt: index out of range")
	}

	if !ks.regular {
		ks.removeAtDense(i)

		return
	}

	switch ks.count {
	case 1:
		ks.count = 0

		return
	case 2:
		if i == 0 {
			ks.first = ks.getAt(1)
		}

		ks.count = 1
		ks.step = 0

		return
	}

	switch i {
	case 0:
		ks.first = ks.diff.Add(ks.first, ks.step)
		ks.count--
	case ks.count - 1:
		ks.count--
	default:
		ks.materialize()
		ks.removeAtDense(i)
	}
}

func (ks *keyStore[K]) removeAtDense(i int) {
	copy(ks.dense[i:], ks.dense[i+1:ks.count])
	ks.count--
	ks.dense = ks.dense[:ks.count]
}

// rangeRemove removes the half-open logical index range [lo, hi).
func (ks *keyStore[K]) rangeRemove(lo, hi int) {
	if lo >= hi {
		return
	}

	if lo < 0 || hi > ks.count {
		panic("series: keyStore.rangeRemove: range out of bounds")
	}

	if lo == 0 && hi == ks.count {
		ks.clear()

		return
	}

	if ks.regular {
		switch {
		case lo == 0:
			ks.first = ks.diff.Add(ks.first, ks.step*int64(hi))
			ks.count -= hi

			return
		case hi == ks.count:
			ks.count = lo

			return
		}

		ks.materialize()
	}

	copy(ks.dense[lo:], ks.dense[hi:ks.count])
	ks.count -= hi - lo
	ks.dense = ks.dense[:ks.count]
}

// clear empties the store, returning any dense buffer to the pool. The
// store reverts to regular-eligible (empty stores are trivially regular
// when the comparer is diffable).
func (ks *keyStore[K]) clear() {
	if !ks.regular && ks.dense != nil {
		ks.pool.Return(ks.dense)
	}

	ks.count = 0
	ks.step = 0

	_, diffableOK := diffable(ks.comparer)
	ks.regular = diffableOK

	if !ks.regular {
		ks.dense = ks.pool.Rent(0)
	} else {
		ks.dense = nil
	}
}

// trimExcess shrinks the dense backing array to exactly size(). A no-op
// while regular (there is no excess capacity to trim).
func (ks *keyStore[K]) trimExcess() {
	if ks.regular || cap(ks.dense) == ks.count {
		return
	}

	// Allocated directly: a pooled buffer may be larger than requested.
	buf := make([]K, ks.count)
	copy(buf, ks.dense)

	old := ks.dense
	ks.dense = buf
	ks.pool.Return(old)
}

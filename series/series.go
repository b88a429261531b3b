package series

import (
	"fmt"
	"sync/atomic"
)

// Direction selects the relational operator TryFind/RemoveRange apply
// against a query key.
type Direction int

const (
	EQ Direction = iota
	LT
	LE
	GT
	GE
)

func (d Direction) String() string {
	switch d {
	case EQ:
		return "EQ"
	case LT:
		return "LT"
	case LE:
		return "LE"
	case GT:
		return "GT"
	case GE:
		return "GE"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Position is the three-valued code a failed TryFind reports, letting a
// cursor decide whether waiting for a future append could help.
type Position int

const (
	// BeforeStart means the query key is smaller than every key present;
	// no future append (tail-only) will ever satisfy it.
	BeforeStart Position = iota
	// AfterEnd means the query key is larger than every key present; a
	// future tail append may satisfy it.
	AfterEnd
	// InsideGap means the query key falls strictly between two existing
	// keys (only reachable for EQ).
	InsideGap
)

func (p Position) String() string {
	switch p {
	case BeforeStart:
		return "before-start"
	case AfterEnd:
		return "after-end"
	case InsideGap:
		return "inside-gap"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// AppendPolicy selects how Append reconciles keys the two series have
// in common.
type AppendPolicy int

const (
	// ThrowOnOverlap fails if other's first key is not strictly greater
	// than this series' last key.
	ThrowOnOverlap AppendPolicy = iota
	// DropOldOverlap removes every key >= other's first key from this
	// series before appending all of other.
	DropOldOverlap
	// IgnoreEqualOverlap requires the overlapping region (if any) to be
	// pointwise key/value-equal, then appends only other's strict tail.
	IgnoreEqualOverlap
	// RequireEqualOverlap behaves like IgnoreEqualOverlap but additionally
	// fails if there is no overlap at all, unless this series is empty.
	RequireEqualOverlap
)

// Entry is a single (key, value) pair, returned by value from read
// operations so callers never alias internal storage.
type Entry[K any, V any] struct {
	Key   K
	Value V
}

// SortedSeries is a mutable, strictly key-increasing map with concurrent
// cursor support.
//
// The zero value is not usable; construct with New. A SortedSeries must
// not be copied after first use (it embeds a versionedLock).
type SortedSeries[K any, V any] struct {
	lock versionedLock

	comparer Comparer[K]
	keys     *keyStore[K]

	values     []V
	valuesPool BufferPool[V]

	// orderVersion is bumped by every structural mutation except a pure
	// tail append. Cursors compare their captured orderVersion against
	// the current one to decide whether a non-append reorder invalidated
	// their position.
	orderVersion atomic.Uint64

	sealed       bool
	synchronized bool

	notifier *notifier
}

// Option configures a SortedSeries at construction time.
type Option[K any, V any] func(*SortedSeries[K, V])

// WithKeyPool overrides the default BufferPool used for the key array.
func WithKeyPool[K any, V any](pool BufferPool[K]) Option[K, V] {
	return func(s *SortedSeries[K, V]) {
		s.keys.pool = pool
	}
}

// WithValuePool overrides the default BufferPool used for the value
// array.
func WithValuePool[K any, V any](pool BufferPool[V]) Option[K, V] {
	return func(s *SortedSeries[K, V]) {
		s.valuesPool = pool
	}
}

// New constructs an empty SortedSeries ordered by comparer.
func New[K any, V any](comparer Comparer[K], opts ...Option[K, V]) *SortedSeries[K, V] {
	s := &SortedSeries[K, V]{
		comparer:     comparer,
		valuesPool:   NewBufferPool[V](),
		synchronized: true,
		notifier:     newNotifier(),
	}
	s.keys = newKeyStore[K](comparer, NewBufferPool[K]())
	s.values = s.valuesPool.Rent(0)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// orderVersionSnapshot returns the current orderVersion, used by Cursor
// to detect structural reorders independent of the versionedLock's
// read-retry protocol.
func (s *SortedSeries[K, V]) orderVersionSnapshot() uint64 {
	return s.orderVersion.Load()
}

// UnsafeDisableSynchronization opts the series into skipping the
// optimistic read-retry loop, trusting the caller that no concurrent
// reader/writer pair will ever race. Go has no cheap stable thread
// identity to auto-detect a violation the way some runtimes do;
// misusing this is a data race.
func (s *SortedSeries[K, V]) UnsafeDisableSynchronization() {
	s.synchronized = false
}

// Size returns the number of entries currently in the series. Like the
// other reads, it retries if a write was in flight while it read.
func (s *SortedSeries[K, V]) Size() int {
	for {
		v0 := s.lock.readBegin()
		n := s.keys.size()

		if !s.synchronized || s.lock.readEnd(v0) {
			return n
		}
	}
}

// IsSealed reports whether Complete has been called.
func (s *SortedSeries[K, V]) IsSealed() bool {
	for {
		v0 := s.lock.readBegin()
		sealed := s.sealed

		if !s.synchronized || s.lock.readEnd(v0) {
			return sealed
		}
	}
}

// Get returns the value for key k, or ErrNotFound.
func (s *SortedSeries[K, V]) Get(k K) (V, error) {
	for {
		v0 := s.lock.readBegin()

		idx := s.keys.indexOf(k)
		if idx < 0 {
			if !s.synchronized || s.lock.readEnd(v0) {
				var zero V

				return zero, ErrNotFound
			}

			continue
		}

		val := s.values[idx]

		if !s.synchronized || s.lock.readEnd(v0) {
			return val, nil
		}
	}
}

// First returns the smallest entry, or ErrEmpty.
func (s *SortedSeries[K, V]) First() (Entry[K, V], error) {
	return s.entryAt(0)
}

// Last returns the largest entry, or ErrEmpty.
func (s *SortedSeries[K, V]) Last() (Entry[K, V], error) {
	for {
		v0 := s.lock.readBegin()
		n := s.keys.size()

		if n == 0 {
			if !s.synchronized || s.lock.readEnd(v0) {
				return Entry[K, V]{}, ErrEmpty
			}

			continue
		}

		e := Entry[K, V]{Key: s.keys.getAt(n - 1), Value: s.values[n-1]}

		if !s.synchronized || s.lock.readEnd(v0) {
			return e, nil
		}
	}
}

func (s *SortedSeries[K, V]) entryAt(i int) (Entry[K, V], error) {
	for {
		v0 := s.lock.readBegin()
		n := s.keys.size()

		if i >= n {
			if !s.synchronized || s.lock.readEnd(v0) {
				return Entry[K, V]{}, ErrEmpty
			}

			continue
		}

		e := Entry[K, V]{Key: s.keys.getAt(i), Value: s.values[i]}

		if !s.synchronized || s.lock.readEnd(v0) {
			return e, nil
		}
	}
}

// TryFind locates the entry matching dir relative to k. found reports
// whether a matching entry exists; pos is only meaningful when found is
// false.
func (s *SortedSeries[K, V]) TryFind(k K, dir Direction) (e Entry[K, V], found bool, pos Position) {
	for {
		v0 := s.lock.readBegin()

		idx, ok, p := pivotIndex(s.keys, s.comparer, k, dir)

		if !ok {
			if !s.synchronized || s.lock.readEnd(v0) {
				return Entry[K, V]{}, false, p
			}

			continue
		}

		e = Entry[K, V]{Key: s.keys.getAt(idx), Value: s.values[idx]}

		if !s.synchronized || s.lock.readEnd(v0) {
			return e, true, 0
		}
	}
}

// pivotIndex resolves a (key, direction) query to a logical index into
// ks. ok is false when no entry satisfies dir; pos then classifies why.
func pivotIndex[K any](ks *keyStore[K], cmp Comparer[K], k K, dir Direction) (idx int, ok bool, pos Position) {
	found := ks.indexOf(k)

	switch dir {
	case EQ:
		if found >= 0 {
			return found, true, 0
		}

		return 0, false, classify(notFoundInsertionPoint(found), ks.size())
	case LT:
		var i int
		if found >= 0 {
			i = found - 1
		} else {
			i = notFoundInsertionPoint(found) - 1
		}

		if i < 0 {
			return 0, false, BeforeStart
		}

		return i, true, 0
	case LE:
		var i int
		if found >= 0 {
			i = found
		} else {
			i = notFoundInsertionPoint(found) - 1
		}

		if i < 0 {
			return 0, false, BeforeStart
		}

		return i, true, 0
	case GT:
		var i int
		if found >= 0 {
			i = found + 1
		} else {
			i = notFoundInsertionPoint(found)
		}

		if i >= ks.size() {
			return 0, false, AfterEnd
		}

		return i, true, 0
	case GE:
		var i int
		if found >= 0 {
			i = found
		} else {
			i = notFoundInsertionPoint(found)
		}

		if i >= ks.size() {
			return 0, false, AfterEnd
		}

		return i, true, 0
	default:
		panic("series: invalid Direction")
	}
}

func classify(insertionPoint, size int) Position {
	switch {
	case insertionPoint <= 0:
		return BeforeStart
	case insertionPoint >= size:
		return AfterEnd
	default:
		return InsideGap
	}
}

// AddLast inserts k with value v as the new logical maximum. It fails
// with ErrOutOfOrder if k is not strictly greater than the current last
// key, and with ErrSealed on a sealed series.
func (s *SortedSeries[K, V]) AddLast(k K, v V) error {
	s.lock.beginWrite()

	n := s.keys.size()

	if s.sealed {
		s.lock.abortWrite()

		return ErrSealed
	}

	if n > 0 && s.comparer.Compare(k, s.keys.getAt(n-1)) <= 0 {
		s.lock.abortWrite()

		return ErrOutOfOrder
	}

	s.appendLocked(k, v)
	s.lock.endWrite()
	s.notifier.notify()

	return nil
}

// AddFirst inserts k with value v as the new logical minimum. It fails
// with ErrOutOfOrder if k is not strictly less than the current first
// key.
func (s *SortedSeries[K, V]) AddFirst(k K, v V) error {
	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return ErrSealed
	}

	if s.keys.size() > 0 && s.comparer.Compare(k, s.keys.getAt(0)) >= 0 {
		s.lock.abortWrite()

		return ErrOutOfOrder
	}

	s.insertLocked(0, k, v)
	s.lock.endWrite()
	s.notifier.notify()

	return nil
}

// Add inserts k with value v at its sorted position. It fails with
// ErrDuplicateKey if k is already present.
func (s *SortedSeries[K, V]) Add(k K, v V) error {
	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return ErrSealed
	}

	idx := s.keys.indexOf(k)
	if idx >= 0 {
		s.lock.abortWrite()

		return ErrDuplicateKey
	}

	ip := notFoundInsertionPoint(idx)
	s.insertLocked(ip, k, v)
	s.lock.endWrite()
	s.notifier.notify()

	return nil
}

// Set assigns v to k's existing entry, or inserts it if absent (upsert).
// It reports whether the key was newly inserted. Updating an existing
// key's value changes no ordering, so it does not bump orderVersion: a
// cursor positioned on k observes the new value on its next read
// without invalidation.
func (s *SortedSeries[K, V]) Set(k K, v V) (inserted bool, err error) {
	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return false, ErrSealed
	}

	idx := s.keys.indexOf(k)
	if idx >= 0 {
		s.values[idx] = v
		s.lock.endWrite()
		s.notifier.notify()

		return false, nil
	}

	ip := notFoundInsertionPoint(idx)
	s.insertLocked(ip, k, v)
	s.lock.endWrite()
	s.notifier.notify()

	return true, nil
}

// appendLocked inserts k at the tail. Tail appends are exempt from the
// orderVersion bump: a cursor positioned anywhere before the old tail
// observes no reorder.
func (s *SortedSeries[K, V]) appendLocked(k K, v V) {
	s.keys.append(k)
	s.appendValueLocked(v)
}

func (s *SortedSeries[K, V]) appendValueLocked(v V) {
	n := s.keys.size() - 1
	if n >= cap(s.values) {
		bigger := s.valuesPool.Rent(n + 1)
		bigger = bigger[:n]
		copy(bigger, s.values)

		old := s.values
		s.values = bigger
		s.valuesPool.Return(old)
	}

	s.values = append(s.values[:n], v)
}

// insertLocked inserts k/v at logical index i, i <= size before the
// insert. Any index other than size (i.e. anything but a tail append)
// bumps orderVersion.
func (s *SortedSeries[K, V]) insertLocked(i int, k K, v V) {
	tailAppend := i == s.keys.size()

	s.keys.insertAt(i, k)
	s.insertValueLocked(i, v)

	if !tailAppend {
		s.orderVersion.Add(1)
	}
}

func (s *SortedSeries[K, V]) insertValueLocked(i int, v V) {
	n := len(s.values)
	if n == cap(s.values) {
		bigger := s.valuesPool.Rent(n + 1)
		bigger = bigger[:n]
		copy(bigger, s.values)

		old := s.values
		s.values = bigger
		s.valuesPool.Return(old)
	}

	s.values = s.values[:n+1]
	copy(s.values[i+1:], s.values[i:n])
	s.values[i] = v
}

func (s *SortedSeries[K, V]) removeValueLocked(i int) {
	copy(s.values[i:], s.values[i+1:])

	var zero V

	s.values[len(s.values)-1] = zero
	s.values = s.values[:len(s.values)-1]
}

func (s *SortedSeries[K, V]) removeValueRangeLocked(lo, hi int) {
	copy(s.values[lo:], s.values[hi:])

	var zero V

	for i := len(s.values) - (hi - lo); i < len(s.values); i++ {
		s.values[i] = zero
	}

	s.values = s.values[:len(s.values)-(hi-lo)]
}

// Remove deletes the entry for k. It reports whether k was present.
func (s *SortedSeries[K, V]) Remove(k K) (bool, error) {
	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return false, ErrSealed
	}

	idx := s.keys.indexOf(k)
	if idx < 0 {
		s.lock.abortWrite()

		return false, nil
	}

	s.keys.removeAt(idx)
	s.removeValueLocked(idx)
	s.orderVersion.Add(1)

	s.lock.endWrite()
	s.notifier.notify()

	return true, nil
}

// RemoveFirst removes and returns the smallest entry, or ErrEmpty.
func (s *SortedSeries[K, V]) RemoveFirst() (Entry[K, V], error) {
	s.lock.beginWrite()

	if s.keys.size() == 0 {
		s.lock.abortWrite()

		return Entry[K, V]{}, ErrEmpty
	}

	if s.sealed {
		s.lock.abortWrite()

		return Entry[K, V]{}, ErrSealed
	}

	e := Entry[K, V]{Key: s.keys.getAt(0), Value: s.values[0]}

	s.keys.removeAt(0)
	s.removeValueLocked(0)
	s.orderVersion.Add(1)

	s.lock.endWrite()
	s.notifier.notify()

	return e, nil
}

// RemoveLast removes and returns the largest entry, or ErrEmpty.
func (s *SortedSeries[K, V]) RemoveLast() (Entry[K, V], error) {
	s.lock.beginWrite()

	n := s.keys.size()
	if n == 0 {
		s.lock.abortWrite()

		return Entry[K, V]{}, ErrEmpty
	}

	if s.sealed {
		s.lock.abortWrite()

		return Entry[K, V]{}, ErrSealed
	}

	e := Entry[K, V]{Key: s.keys.getAt(n - 1), Value: s.values[n-1]}

	s.keys.removeAt(n - 1)
	s.removeValueLocked(n - 1)
	s.orderVersion.Add(1)

	s.lock.endWrite()
	s.notifier.notify()

	return e, nil
}

// RemoveRange removes every key on the named side of k (inclusive of a
// matching pivot):
//
//	EQ: removes k itself, if present.
//	LT/LE: removes every key less than (LT) or less-than-or-equal (LE) k.
//	GT/GE: removes every key greater than (GT) or greater-or-equal (GE) k.
//
// It reports whether anything was removed.
func (s *SortedSeries[K, V]) RemoveRange(k K, dir Direction) (bool, error) {
	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return false, ErrSealed
	}

	removed := s.removeRangeLocked(k, dir)
	if !removed {
		s.lock.abortWrite()

		return false, nil
	}

	s.lock.endWrite()
	s.notifier.notify()

	return true, nil
}

// removeRangeLocked assumes beginWrite is already held and leaves the
// caller to endWrite/abortWrite and notify.
func (s *SortedSeries[K, V]) removeRangeLocked(k K, dir Direction) bool {
	switch dir {
	case EQ:
		idx := s.keys.indexOf(k)
		if idx < 0 {
			return false
		}

		s.keys.removeAt(idx)
		s.removeValueLocked(idx)
		s.orderVersion.Add(1)

		return true
	case LT, LE:
		idx, ok, _ := pivotIndex(s.keys, s.comparer, k, dir)
		if !ok {
			return false
		}

		s.keys.rangeRemove(0, idx+1)
		s.removeValueRangeLocked(0, idx+1)
		s.orderVersion.Add(1)

		return true
	case GT, GE:
		idx, ok, _ := pivotIndex(s.keys, s.comparer, k, dir)
		if !ok {
			return false
		}

		n := s.keys.size()
		s.keys.rangeRemove(idx, n)
		s.removeValueRangeLocked(idx, n)
		s.orderVersion.Add(1)

		return true
	default:
		panic("series: invalid Direction")
	}
}

// Complete seals the series: no further mutation is ever accepted, and
// every in-flight or future cursor Wait returns immediately reporting
// sealed. Complete is idempotent.
func (s *SortedSeries[K, V]) Complete() {
	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return
	}

	s.sealed = true
	// Once sealed, no writer can ever run again: any reader mid-retry is
	// racing only against the read it already started, so skipping the
	// retry protocol is safe regardless of which goroutine reads next.
	s.synchronized = false

	s.lock.endWrite()
	s.notifier.notifySealed()
}

// Append reconciles other's entries onto the tail of s according to
// policy. It returns the number of entries newly appended. other is
// read under its own versioned lock and is left untouched.
func (s *SortedSeries[K, V]) Append(other *SortedSeries[K, V], policy AppendPolicy) (int, error) {
	otherKeys, otherVals := other.snapshot()

	s.lock.beginWrite()

	if s.sealed {
		s.lock.abortWrite()

		return 0, ErrSealed
	}

	n, err := s.appendReconcileLocked(otherKeys, otherVals, policy)
	if err != nil {
		s.lock.abortWrite()

		return 0, err
	}

	s.lock.endWrite()

	if n > 0 {
		s.notifier.notify()
	}

	return n, nil
}

// snapshot takes a stable, consistent copy of every (key, value) pair
// currently in s.
func (s *SortedSeries[K, V]) snapshot() ([]K, []V) {
	for {
		v0 := s.lock.readBegin()

		n := s.keys.size()
		keys := make([]K, n)
		vals := make([]V, n)

		for i := range n {
			keys[i] = s.keys.getAt(i)
		}

		copy(vals, s.values[:n])

		if !s.synchronized || s.lock.readEnd(v0) {
			return keys, vals
		}
	}
}

// appendReconcileLocked assumes beginWrite is already held.
func (s *SortedSeries[K, V]) appendReconcileLocked(otherKeys []K, otherVals []V, policy AppendPolicy) (int, error) {
	if len(otherKeys) == 0 {
		return 0, nil
	}

	n := s.keys.size()

	switch policy {
	case ThrowOnOverlap:
		if n > 0 && s.comparer.Compare(otherKeys[0], s.keys.getAt(n-1)) <= 0 {
			return 0, ErrOverlapMismatch
		}

		return s.appendAllLocked(otherKeys, otherVals), nil

	case DropOldOverlap:
		s.removeRangeLocked(otherKeys[0], GE)

		return s.appendAllLocked(otherKeys, otherVals), nil

	case IgnoreEqualOverlap, RequireEqualOverlap:
		overlapLen, err := s.verifyOverlapLocked(otherKeys, otherVals)
		if err != nil {
			return 0, err
		}

		if policy == RequireEqualOverlap && overlapLen == 0 && n > 0 {
			return 0, ErrOverlapMismatch
		}

		return s.appendAllLocked(otherKeys[overlapLen:], otherVals[overlapLen:]), nil

	default:
		panic("series: invalid AppendPolicy")
	}
}

// verifyOverlapLocked checks that the prefix of other whose keys fall
// within this series' existing key range is pointwise key/value-equal
// to this series' matching suffix, returning the length of that
// verified overlap (0 if there is none).
func (s *SortedSeries[K, V]) verifyOverlapLocked(otherKeys []K, otherVals []V) (int, error) {
	n := s.keys.size()
	if n == 0 {
		return 0, nil
	}

	p := s.keys.indexOf(otherKeys[0])
	if p < 0 {
		p = notFoundInsertionPoint(p)
	}

	overlapLen := n - p
	if overlapLen <= 0 {
		return 0, nil
	}

	if overlapLen > len(otherKeys) {
		return 0, ErrOverlapMismatch
	}

	for i := range overlapLen {
		thisIdx := p + i
		if s.comparer.Compare(s.keys.getAt(thisIdx), otherKeys[i]) != 0 {
			return 0, ErrOverlapMismatch
		}

		if !valuesEqual(s.values[thisIdx], otherVals[i]) {
			return 0, ErrOverlapMismatch
		}
	}

	return overlapLen, nil
}

// appendAllLocked appends every (key, value) pair in keys/vals to the
// tail of s, trusting the caller that the combined sequence stays
// strictly increasing. It never bumps orderVersion (pure tail append).
func (s *SortedSeries[K, V]) appendAllLocked(keys []K, vals []V) int {
	for i := range keys {
		s.appendLocked(keys[i], vals[i])
	}

	return len(keys)
}

// Package series provides a mutable sorted keyed series with concurrent
// cursors.
//
// series is an ordered mapping from strictly increasing keys K to values V.
// Mutations go through a single writer at a time; readers (Get, TryFind,
// cursor moves) never block on a writer and instead use an optimistic
// seqlock protocol that retries when it observes a write in flight.
//
// # Basic Usage
//
//	s := series.New[int64, string](series.Int64Comparer{})
//	s.AddLast(1, "a")
//	s.AddLast(2, "b")
//
//	v, err := s.Get(2)
//
//	cur := s.NewCursor()
//	for {
//	    ok, err := cur.MoveNext()
//	    if err != nil || !ok {
//	        break
//	    }
//	    e, _ := cur.Current()
//	    _ = e.Key
//	    _ = e.Value
//	}
//
// # Concurrency
//
// series uses a multi-reader, single-writer model:
//   - Read operations (Get, TryFind, First, Last, moves of distinct
//     cursors) are safe for concurrent use by multiple goroutines; a
//     single Cursor is not.
//   - Only one mutation may be in flight at a time; mutating methods take
//     an internal spin-mutex for their duration.
//   - Cursors survive concurrent tail appends, including a tail append
//     that demotes the key store from regular to dense; any other
//     structural change (insert, remove, clear) invalidates every cursor
//     positioned at the time of the change.
//
// # Error Handling
//
// Errors are sentinel values classified with errors.Is: ErrNotFound,
// ErrEmpty, ErrOutOfOrder, ErrDuplicateKey, ErrSealed, ErrOverlapMismatch.
// A torn version counter or a programmer-asserted invariant violation
// (for example, re-inserting a key already present in the key store) is
// fatal and panics rather than returning an error: the process cannot
// continue when the series invariants no longer hold.
package series

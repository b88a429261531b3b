package series

import "errors"

// Error classification. Implementations may wrap these with additional
// context via fmt.Errorf("%w: ..."); callers classify with errors.Is.
var (
	// ErrNotFound indicates no entry exists for the requested key/position.
	ErrNotFound = errors.New("series: not found")

	// ErrEmpty indicates First/Last/RemoveFirst/RemoveLast was called on an
	// empty series.
	ErrEmpty = errors.New("series: empty")

	// ErrOutOfOrder indicates AddFirst/AddLast violated the strict
	// monotonic end, or is the signal delivered to an invalidated cursor.
	ErrOutOfOrder = errors.New("series: out of order")

	// ErrDuplicateKey indicates Add was called with an already-present key.
	ErrDuplicateKey = errors.New("series: duplicate key")

	// ErrSealed indicates a mutation was attempted on a sealed series.
	ErrSealed = errors.New("series: sealed")

	// ErrOverlapMismatch indicates an Append policy requiring equal overlap
	// found a differing pair.
	ErrOverlapMismatch = errors.New("series: overlap mismatch")

	// ErrClosed indicates the notifier's series has already been torn down.
	ErrClosed = errors.New("series: closed")

	// ErrInvalid indicates malformed input to a public API (for example, a
	// serialized payload with a bad header).
	ErrInvalid = errors.New("series: invalid")
)

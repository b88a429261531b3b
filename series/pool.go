package series

import "sync"

// BufferPool rents and returns backing arrays for growth/materialisation.
// A pooled buffer may be returned larger than requested. KeyStore and
// SortedSeries rent from a BufferPool whenever they grow or materialise
// a backing array, and return the old array to the pool only after the
// new one has been installed.
//
// No pack dependency exposes a generic rent/return object pool as an
// importable library (see DESIGN.md); this wraps the stdlib sync.Pool,
// which is the idiomatic primitive for exactly this contract.
type BufferPool[T any] interface {
	Rent(minCapacity int) []T
	Return(buf []T)
}

// syncBufferPool is the default BufferPool, backed by sync.Pool.
type syncBufferPool[T any] struct {
	sp sync.Pool
}

// NewBufferPool returns a BufferPool backed by sync.Pool.
func NewBufferPool[T any]() BufferPool[T] {
	return &syncBufferPool[T]{}
}

const (
	poolMinCapacity = 8
	// maxCapacity is a hard cap of 2^31-1 elements.
	maxCapacity = (1 << 31) - 1
)

func (p *syncBufferPool[T]) Rent(minCapacity int) []T {
	if minCapacity < 0 {
		panic("series: BufferPool.Rent: negative capacity")
	}

	if v, ok := p.sp.Get().([]T); ok && cap(v) >= minCapacity {
		return v[:0]
	}

	return make([]T, 0, growCapacity(minCapacity))
}

func (p *syncBufferPool[T]) Return(buf []T) {
	if buf == nil {
		return
	}

	var zero T

	full := buf[:cap(buf)]
	for i := range full {
		full[i] = zero
	}

	p.sp.Put(full[:0])
}

// growCapacity computes the next capacity for a growth request: doubling
// from a small base, capped at maxCapacity.
func growCapacity(min int) int {
	if min < poolMinCapacity {
		min = poolMinCapacity
	}

	c := poolMinCapacity
	for c < min {
		if c >= maxCapacity/2 {
			return maxCapacity
		}

		c *= 2
	}

	return c
}

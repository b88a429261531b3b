package series

import (
	"runtime"
	"sync/atomic"
)

// versionedLock is a single-writer, many-reader optimistic sequence lock,
// built on a generation-counter protocol (readGeneration / retry-on-
// mismatch) over an in-memory atomic pair instead of an mmap'd header
// field.
//
// Writer protocol: beginWrite bumps nextVersion, the caller mutates
// state, endWrite publishes version = nextVersion. While a write is in
// flight, version != nextVersion; readers detect this and retry.
//
// Write exclusion is a short spin-mutex embedded in the lock: at most
// one writer may be between beginWrite and endWrite at a time.
type versionedLock struct {
	version     atomic.Uint64
	nextVersion atomic.Uint64
	writing     atomic.Bool
}

// beginWrite acquires exclusive write access and bumps nextVersion,
// signalling to readers that a mutation is in flight (version will now
// read behind nextVersion until endWrite/abortWrite catches it up).
func (l *versionedLock) beginWrite() {
	for !l.writing.CompareAndSwap(false, true) {
		runtime.Gosched()
	}

	l.nextVersion.Add(1)
}

// endWrite publishes the completed mutation and releases write
// exclusion.
//
// If version != nextVersion after this call, a mutation was torn (a
// writer terminated without properly closing out its epoch); this is
// unrecoverable and the process fails fast.
func (l *versionedLock) endWrite() {
	l.version.Store(l.nextVersion.Load())

	if !l.writing.CompareAndSwap(true, false) {
		panic("series: versionedLock: endWrite without matching beginWrite")
	}

	if l.version.Load() != l.nextVersion.Load() {
		panic("series: versionedLock: torn version, version != nextVersion on writer exit")
	}
}

// abortWrite releases write exclusion without having mutated any
// observable state, used when a mutating operation validates its input
// and returns an error before touching the series (for example, Add on
// a sealed series). It still must catch version back up to nextVersion,
// since beginWrite already advanced nextVersion.
func (l *versionedLock) abortWrite() {
	l.version.Store(l.nextVersion.Load())

	if !l.writing.CompareAndSwap(true, false) {
		panic("series: versionedLock: abortWrite without matching beginWrite")
	}
}

// readBegin returns a snapshot of version to pair with a later readEnd
// call.
func (l *versionedLock) readBegin() uint64 {
	return l.version.Load()
}

// readEnd reports whether the read started at readBegin's snapshot is
// still consistent: no writer has started (or completed) a mutation in
// between. Callers retry their read when this returns false.
func (l *versionedLock) readEnd(v0 uint64) bool {
	return v0 == l.nextVersion.Load()
}

// versionSnapshot returns the current published version, used by
// Serialize (serialize.go) to record the series version inside its own
// read-retry loop.
func (l *versionedLock) versionSnapshot() uint64 {
	return l.version.Load()
}

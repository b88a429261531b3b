// Package snapshot provides an atomic single-file on-disk round trip of
// a series.SortedSeries, built on series.Serialize's wire format.
//
// Persistence beyond this single-file save/load is out of scope; there
// is no WAL, no multi-file layout, and no background compaction. This
// exists so a caller can park a sealed series between process restarts.
package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/natefinch/atomic"

	"github.com/go-tseries/tseries/series"
)

const (
	lockTimeout = 2 * time.Second
	lockPerms   = 0o644
	dirPerms    = 0o755
)

// Save atomically writes s's serialized wire-format payload to path: it
// never leaves a torn or partial file on disk, even on crash, since the
// final step is a single os.Rename from a temp file in the same
// directory (natefinch/atomic.WriteFile).
func Save[K any, V any](path string, s *series.SortedSeries[K, V], keyCodec series.Codec[K], valueCodec series.Codec[V], scratch series.BufferPool[byte]) error {
	payload, err := series.Serialize(s, keyCodec, valueCodec, scratch)
	if err != nil {
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(payload))
}

// Load reads and reconstructs a series previously written by Save.
func Load[K any, V any](path string, comparer series.Comparer[K], keyCodec series.Codec[K], valueCodec series.Codec[V]) (*series.SortedSeries[K, V], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return series.Deserialize(data, comparer, keyCodec, valueCodec)
}

// Lock is an exclusive advisory file lock held across a Save/Load pair
// by a caller that needs to coordinate multiple processes. It has no
// relation to SortedSeries' in-process versionedLock; it only prevents
// two processes from racing on the same snapshot path.
//
// The lock file lives in a ".locks" sibling directory (so locking never
// touches the target file's own mtime), uses syscall.Flock for the
// advisory lock, and verifies by inode after acquiring that the lock
// file wasn't replaced out from under it.
type Lock struct {
	path string
	file *os.File
}

// lockPollInterval is how often AcquireLock retries a contended lock.
// Save/Load calls are brief, so a short poll bounds the wasted wait
// without the complexity of a cancellable blocking Flock.
const lockPollInterval = 10 * time.Millisecond

// AcquireLock polls (up to an internal deadline) until it holds an
// exclusive lock associated with path, or returns os.ErrDeadlineExceeded.
//
// It uses LOCK_NB rather than a blocking Flock: a snapshot Save/Load is
// a single short-lived call, not a long-held mmap session, so there is
// no writer to wait indefinitely on and a bounded poll is simpler than
// spawning a goroutine to make a blocking syscall cancellable.
func AcquireLock(path string) (*Lock, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	locksDir := filepath.Join(dir, ".locks")
	lockPath := filepath.Join(locksDir, base+".lock")

	deadline := time.Now().Add(lockTimeout)

	if err := os.MkdirAll(locksDir, dirPerms); err != nil {
		return nil, err
	}

	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockPerms)
		if err != nil {
			return nil, err
		}

		var openStat syscall.Stat_t
		if err := syscall.Fstat(int(file.Fd()), &openStat); err != nil {
			file.Close()

			return nil, err
		}

		fd := int(file.Fd())

		switch err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); {
		case err == nil:
			var pathStat syscall.Stat_t
			if err := syscall.Stat(lockPath, &pathStat); err != nil || pathStat.Ino != openStat.Ino {
				syscall.Flock(fd, syscall.LOCK_UN)
				file.Close()

				continue
			}

			return &Lock{path: lockPath, file: file}, nil

		case err == syscall.EWOULDBLOCK:
			file.Close()

			if time.Now().After(deadline) {
				return nil, os.ErrDeadlineExceeded
			}

			time.Sleep(lockPollInterval)

			continue

		default:
			file.Close()

			return nil, err
		}
	}
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	_ = os.Remove(l.path)
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil

	return err
}

package series

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_VersionedLock_Read_Retries_Across_Concurrent_Write(t *testing.T) {
	t.Parallel()

	var l versionedLock

	l.beginWrite()
	v0 := l.readBegin()
	assert.False(t, l.readEnd(v0), "read started while a write is in flight must report inconsistent")
	l.endWrite()

	v1 := l.readBegin()
	assert.True(t, l.readEnd(v1), "read with no intervening write must report consistent")
}

func Test_VersionedLock_AbortWrite_Catches_Version_Up_To_NextVersion(t *testing.T) {
	t.Parallel()

	var l versionedLock

	before := l.versionSnapshot()

	l.beginWrite()
	l.abortWrite()

	assert.Equal(t, before+1, l.versionSnapshot(), "abortWrite still catches version up to nextVersion")
}

func Test_VersionedLock_Excludes_Concurrent_Writers(t *testing.T) {
	t.Parallel()

	var l versionedLock

	var counter int

	var wg sync.WaitGroup

	const writers = 8

	const incrementsPerWriter = 200

	for range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range incrementsPerWriter {
				l.beginWrite()
				counter++
				l.endWrite()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, writers*incrementsPerWriter, counter)
}

func Test_VersionedLock_EndWrite_Without_BeginWrite_Panics(t *testing.T) {
	t.Parallel()

	var l versionedLock

	assert.Panics(t, func() {
		l.endWrite()
	})
}

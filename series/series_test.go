package series_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tseries/tseries/series"
)

func newIntSeries() *series.SortedSeries[int64, string] {
	return series.New[int64, string](series.Int64Comparer{})
}

func scanEntries(t *testing.T, s *series.SortedSeries[int64, string]) []series.Entry[int64, string] {
	t.Helper()

	var got []series.Entry[int64, string]

	c := s.NewCursor()

	for {
		ok, err := c.MoveNext()
		require.NoError(t, err)

		if !ok {
			break
		}

		e, _ := c.Current()
		got = append(got, e)
	}

	return got
}

func Test_AddLast_Rejects_NonIncreasing_Key(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.AddLast(10, "a"))

	assert.ErrorIs(t, s.AddLast(10, "b"), series.ErrOutOfOrder)
	assert.ErrorIs(t, s.AddLast(5, "c"), series.ErrOutOfOrder)
}

func Test_AddFirst_Rejects_NonDecreasing_Key(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.AddFirst(10, "a"))

	assert.ErrorIs(t, s.AddFirst(10, "b"), series.ErrOutOfOrder)
	assert.ErrorIs(t, s.AddFirst(20, "c"), series.ErrOutOfOrder)
}

func Test_Add_Rejects_Duplicate_Key(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.Add(10, "a"))

	assert.ErrorIs(t, s.Add(10, "b"), series.ErrDuplicateKey)
}

func Test_Add_Inserts_At_Sorted_Position(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.Add(30, "c"))
	require.NoError(t, s.Add(10, "a"))
	require.NoError(t, s.Add(20, "b"))

	first, err := s.First()
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.Key)

	last, err := s.Last()
	require.NoError(t, err)
	assert.Equal(t, int64(30), last.Key)

	v, err := s.Get(20)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	want := []series.Entry[int64, string]{{Key: 10, Value: "a"}, {Key: 20, Value: "b"}, {Key: 30, Value: "c"}}
	if diff := cmp.Diff(want, scanEntries(t, s)); diff != "" {
		t.Errorf("Add out of order then scanning in full (-want +got):\n%s", diff)
	}
}

func Test_Set_Upserts(t *testing.T) {
	t.Parallel()

	s := newIntSeries()

	inserted, err := s.Set(10, "a")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Set(10, "a2")
	require.NoError(t, err)
	assert.False(t, inserted)

	v, err := s.Get(10)
	require.NoError(t, err)
	assert.Equal(t, "a2", v)
}

func Test_Set_ValueOnlyUpdateDoesNotInvalidateCursors(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.AddLast(10, "a"))
	require.NoError(t, s.AddLast(20, "b"))

	c := s.NewCursor()

	ok, err := c.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)

	// An in-place value update on an already-present key reorders
	// nothing: it must not bump orderVersion or invalidate c.
	inserted, err := s.Set(20, "b2")
	require.NoError(t, err)
	assert.False(t, inserted)

	ok, err = c.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)

	e, _ := c.Current()
	assert.Equal(t, int64(20), e.Key)
	assert.Equal(t, "b2", e.Value)
}

func Test_Mutations_Fail_After_Complete(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.AddLast(1, "a"))
	s.Complete()

	assert.ErrorIs(t, s.AddLast(2, "b"), series.ErrSealed)
	assert.ErrorIs(t, s.AddFirst(0, "b"), series.ErrSealed)

	_, err := s.Set(3, "b")
	assert.ErrorIs(t, err, series.ErrSealed)

	_, err = s.Remove(1)
	assert.ErrorIs(t, err, series.ErrSealed)

	_, err = s.RemoveFirst()
	assert.ErrorIs(t, err, series.ErrSealed)
}

func Test_Complete_Is_Idempotent(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	s.Complete()
	assert.NotPanics(t, func() { s.Complete() })
	assert.True(t, s.IsSealed())
}

func Test_First_Last_On_Empty_Series(t *testing.T) {
	t.Parallel()

	s := newIntSeries()

	_, err := s.First()
	assert.ErrorIs(t, err, series.ErrEmpty)

	_, err = s.Last()
	assert.ErrorIs(t, err, series.ErrEmpty)

	_, err = s.RemoveFirst()
	assert.ErrorIs(t, err, series.ErrEmpty)

	_, err = s.RemoveLast()
	assert.ErrorIs(t, err, series.ErrEmpty)
}

// TryFind's directional semantics around gaps
// and boundaries.
func Test_TryFind_Directional_Semantics(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	for _, k := range []int64{10, 20, 30} {
		require.NoError(t, s.AddLast(k, "v"))
	}

	e, found, _ := s.TryFind(20, series.EQ)
	require.True(t, found)
	assert.Equal(t, int64(20), e.Key)

	_, found, pos := s.TryFind(25, series.EQ)
	assert.False(t, found)
	assert.Equal(t, series.InsideGap, pos)

	e, found, _ = s.TryFind(25, series.LT)
	require.True(t, found)
	assert.Equal(t, int64(20), e.Key)

	e, found, _ = s.TryFind(20, series.LE)
	require.True(t, found)
	assert.Equal(t, int64(20), e.Key)

	e, found, _ = s.TryFind(25, series.GT)
	require.True(t, found)
	assert.Equal(t, int64(30), e.Key)

	e, found, _ = s.TryFind(20, series.GE)
	require.True(t, found)
	assert.Equal(t, int64(20), e.Key)

	_, found, pos = s.TryFind(5, series.LT)
	assert.False(t, found)
	assert.Equal(t, series.BeforeStart, pos)

	_, found, pos = s.TryFind(100, series.GT)
	assert.False(t, found)
	assert.Equal(t, series.AfterEnd, pos)
}

// RemoveRange removes the named side.
func Test_RemoveRange_Directional_Semantics(t *testing.T) {
	t.Parallel()

	fresh := func() *series.SortedSeries[int64, string] {
		s := newIntSeries()
		for _, k := range []int64{10, 20, 30, 40, 50} {
			require.NoError(t, s.AddLast(k, "v"))
		}

		return s
	}

	s := fresh()
	ok, err := s.RemoveRange(30, series.LT)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, s.Size())

	firstKey, _ := s.First()
	assert.Equal(t, int64(30), firstKey.Key)

	s = fresh()
	ok, err = s.RemoveRange(30, series.LE)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Size())

	s = fresh()
	ok, err = s.RemoveRange(30, series.GT)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, s.Size())

	lastKey, _ := s.Last()
	assert.Equal(t, int64(30), lastKey.Key)

	s = fresh()
	ok, err = s.RemoveRange(30, series.GE)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Size())

	s = fresh()
	ok, err = s.RemoveRange(30, series.EQ)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, s.Size())

	_, err = s.Get(30)
	assert.ErrorIs(t, err, series.ErrNotFound)
}

func Test_RemoveRange_Reports_False_When_Nothing_Removed(t *testing.T) {
	t.Parallel()

	s := newIntSeries()
	require.NoError(t, s.AddLast(10, "a"))

	ok, err := s.RemoveRange(999, series.EQ)
	require.NoError(t, err)
	assert.False(t, ok)
}

// DropOldOverlap reconciles overlapping tails.
func Test_Append_DropOldOverlap(t *testing.T) {
	t.Parallel()

	a := newIntSeries()
	for _, k := range []int64{10, 20, 30} {
		require.NoError(t, a.AddLast(k, "a"))
	}

	b := newIntSeries()
	for _, k := range []int64{25, 35, 45} {
		require.NoError(t, b.AddLast(k, "b"))
	}

	n, err := a.Append(b, series.DropOldOverlap)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 5, a.Size())

	var got []int64

	c := a.NewCursor()
	for {
		ok, err := c.MoveNext()
		require.NoError(t, err)

		if !ok {
			break
		}

		e, _ := c.Current()
		got = append(got, e.Key)
	}

	assert.Equal(t, []int64{10, 20, 25, 35, 45}, got)
}

// RequireEqualOverlap fails on a value mismatch.
func Test_Append_RequireEqualOverlap_Fails_On_Value_Mismatch(t *testing.T) {
	t.Parallel()

	a := newIntSeries()
	for _, k := range []int64{10, 20, 30} {
		require.NoError(t, a.AddLast(k, "same"))
	}

	b := newIntSeries()
	require.NoError(t, b.AddLast(30, "different"))
	require.NoError(t, b.AddLast(40, "b"))

	_, err := a.Append(b, series.RequireEqualOverlap)
	assert.ErrorIs(t, err, series.ErrOverlapMismatch)
	assert.Equal(t, 3, a.Size(), "a failed append must leave a untouched")
}

func Test_Append_IgnoreEqualOverlap_Appends_Only_Strict_Tail(t *testing.T) {
	t.Parallel()

	a := newIntSeries()
	for _, k := range []int64{10, 20, 30} {
		require.NoError(t, a.AddLast(k, "v"))
	}

	b := newIntSeries()
	require.NoError(t, b.AddLast(20, "v"))
	require.NoError(t, b.AddLast(30, "v"))
	require.NoError(t, b.AddLast(40, "v"))

	n, err := a.Append(b, series.IgnoreEqualOverlap)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, a.Size())
}

func Test_Append_ThrowOnOverlap_Rejects_Overlapping_Keys(t *testing.T) {
	t.Parallel()

	a := newIntSeries()
	require.NoError(t, a.AddLast(10, "v"))
	require.NoError(t, a.AddLast(20, "v"))

	b := newIntSeries()
	require.NoError(t, b.AddLast(20, "v"))

	_, err := a.Append(b, series.ThrowOnOverlap)
	assert.ErrorIs(t, err, series.ErrOverlapMismatch)
}

func Test_Append_ThrowOnOverlap_Accepts_Strictly_Greater_Tail(t *testing.T) {
	t.Parallel()

	a := newIntSeries()
	require.NoError(t, a.AddLast(10, "v"))

	b := newIntSeries()
	require.NoError(t, b.AddLast(20, "v"))
	require.NoError(t, b.AddLast(30, "v"))

	n, err := a.Append(b, series.ThrowOnOverlap)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func Test_Direction_And_Position_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "EQ", series.EQ.String())
	assert.Equal(t, "GE", series.GE.String())
	assert.Equal(t, "before-start", series.BeforeStart.String())
	assert.Equal(t, "after-end", series.AfterEnd.String())
	assert.Equal(t, "inside-gap", series.InsideGap.String())
}

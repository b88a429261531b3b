package series_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tseries/tseries/series"
)

func Test_IntegerComparer_Compare(t *testing.T) {
	t.Parallel()

	var c series.Int64Comparer

	assert.Negative(t, c.Compare(1, 2))
	assert.Positive(t, c.Compare(2, 1))
	assert.Zero(t, c.Compare(5, 5))
}

func Test_IntegerComparer_Diff_And_Add_Round_Trip(t *testing.T) {
	t.Parallel()

	var c series.Int64Comparer

	for _, delta := range []int64{-100, -1, 0, 1, 100} {
		got := c.Diff(c.Add(10, delta), 10)
		require.Equal(t, delta, got)
	}
}

func Test_TimeComparer_Diff_In_Units(t *testing.T) {
	t.Parallel()

	c := series.TimeComparer{Unit: time.Second}

	base := time.Unix(1000, 0)
	later := base.Add(30 * time.Second)

	assert.Equal(t, int64(30), c.Diff(later, base))
	assert.True(t, c.Add(base, 30).Equal(later))
	assert.Negative(t, c.Compare(base, later))
}

func Test_BytesComparer_Lexicographic(t *testing.T) {
	t.Parallel()

	var c series.BytesComparer

	assert.Negative(t, c.Compare([]byte("a"), []byte("b")))
	assert.Negative(t, c.Compare([]byte("a"), []byte("aa")))
	assert.Zero(t, c.Compare([]byte("abc"), []byte("abc")))
	assert.Positive(t, c.Compare([]byte("b"), []byte("a")))
}

func Test_StringComparer_Lexicographic(t *testing.T) {
	t.Parallel()

	var c series.StringComparer

	assert.Negative(t, c.Compare("a", "b"))
	assert.Zero(t, c.Compare("x", "x"))
}

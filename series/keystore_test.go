package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntKeyStore(t *testing.T) *keyStore[int64] {
	t.Helper()

	return newKeyStore[int64](Int64Comparer{}, NewBufferPool[int64]())
}

func Test_KeyStore_Stays_Regular_For_Arithmetic_Progression(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)

	for _, k := range []int64{10, 20, 30, 40} {
		ks.append(k)
	}

	assert.True(t, ks.regular)
	require.Equal(t, 4, ks.size())

	for i, want := range []int64{10, 20, 30, 40} {
		assert.Equal(t, want, ks.getAt(i))
	}
}

func Test_KeyStore_Demotes_To_Dense_On_Irregular_Insert(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)

	for _, k := range []int64{10, 20, 30} {
		ks.append(k)
	}

	require.True(t, ks.regular)

	// 25 breaks the step-10 progression: forces materialisation.
	idx := notFoundInsertionPoint(ks.indexOf(25))
	ks.insertAt(idx, 25)

	assert.False(t, ks.regular)
	require.Equal(t, 4, ks.size())
	assert.Equal(t, []int64{10, 20, 25, 30}, append([]int64(nil), ks.dense...))
}

func Test_KeyStore_Never_Promotes_Back_To_Regular(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)

	for _, k := range []int64{10, 20, 30} {
		ks.append(k)
	}

	idx := notFoundInsertionPoint(ks.indexOf(25))
	ks.insertAt(idx, 25)
	require.False(t, ks.regular)

	ks.removeAt(ks.indexOf(25))
	assert.False(t, ks.regular, "a dense store must stay dense even once the progression is restored")
}

func Test_KeyStore_IndexOf_Regular_Hit_And_Miss(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)

	for _, k := range []int64{0, 10, 20, 30} {
		ks.append(k)
	}

	require.True(t, ks.regular)

	assert.Equal(t, 2, ks.indexOf(20))
	assert.Equal(t, notFoundEncode(0), ks.indexOf(-5))
	assert.Equal(t, notFoundEncode(4), ks.indexOf(999))
	assert.Equal(t, notFoundEncode(1), ks.indexOf(5))
}

func Test_KeyStore_IndexOf_Dense_Hit_And_Miss(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)

	for _, k := range []int64{1, 2, 3, 100} {
		ks.append(k)
	}

	idx := notFoundInsertionPoint(ks.indexOf(50))
	ks.insertAt(idx, 50)
	require.False(t, ks.regular)

	assert.Equal(t, 3, ks.indexOf(50))
	assert.Equal(t, notFoundEncode(0), ks.indexOf(0))
	assert.Equal(t, notFoundEncode(5), ks.indexOf(1000))
}

func Test_KeyStore_RangeRemove_Regular_Prefix_And_Suffix(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)
	for i := int64(0); i < 10; i++ {
		ks.append(i * 10)
	}

	ks.rangeRemove(0, 3)
	require.True(t, ks.regular)
	require.Equal(t, 7, ks.size())
	assert.Equal(t, int64(30), ks.getAt(0))

	ks.rangeRemove(4, 7)
	require.Equal(t, 4, ks.size())
	assert.Equal(t, int64(60), ks.getAt(3))
}

func Test_KeyStore_RangeRemove_Middle_Materializes(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)
	for i := int64(0); i < 10; i++ {
		ks.append(i * 10)
	}

	ks.rangeRemove(3, 6)
	assert.False(t, ks.regular)
	require.Equal(t, 7, ks.size())
	assert.Equal(t, []int64{0, 10, 20, 60, 70, 80, 90}, append([]int64(nil), ks.dense...))
}

func Test_KeyStore_Clear_Resets_To_Empty(t *testing.T) {
	t.Parallel()

	ks := newIntKeyStore(t)
	for _, k := range []int64{1, 2, 3} {
		ks.append(k)
	}

	ks.clear()
	assert.Equal(t, 0, ks.size())
	assert.True(t, ks.regular, "an empty store with a diffable comparer is regular-eligible again")
}

func Test_KeyStore_Non_Diffable_Comparer_Stays_Dense(t *testing.T) {
	t.Parallel()

	ks := newKeyStore[string](StringComparer{}, NewBufferPool[string]())

	for _, k := range []string{"a", "b", "c"} {
		ks.append(k)
	}

	assert.False(t, ks.regular)
	assert.Equal(t, 1, ks.indexOf("b"))
}

func Test_KeyStore_TrimExcess_Shrinks_Dense_Capacity(t *testing.T) {
	t.Parallel()

	ks := newKeyStore[string](StringComparer{}, NewBufferPool[string]())

	for i := range 20 {
		ks.append(string(rune('a' + i%26)))
	}

	for i := 19; i >= 10; i-- {
		ks.removeAt(i)
	}

	ks.trimExcess()
	assert.Equal(t, ks.size(), cap(ks.dense))
}

func Test_FloorDivMod(t *testing.T) {
	t.Parallel()

	cases := []struct {
		delta, step, q, r int64
	}{
		{10, 3, 3, 1},
		{-10, 3, -4, 2},
		{0, 5, 0, 0},
		{9, 3, 3, 0},
	}

	for _, c := range cases {
		q, r := floorDivMod(c.delta, c.step)
		assert.Equal(t, c.q, q)
		assert.Equal(t, c.r, r)
	}
}

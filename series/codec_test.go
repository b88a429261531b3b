package series_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tseries/tseries/series"
)

func Test_RawInt64Codec_Round_Trip(t *testing.T) {
	t.Parallel()

	var codec series.RawInt64Codec

	src := []int64{-5, 0, 1, 1 << 40, -(1 << 40)}

	buf := make([]byte, codec.EncodedSizeUpperBound(len(src)))

	n, err := codec.Encode(buf, src)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	dst := make([]int64, len(src))
	require.NoError(t, codec.Decode(dst, buf[:n], len(src)))
	assert.Equal(t, src, dst)
}

func Test_RawInt64Codec_Encode_Rejects_Undersized_Buffer(t *testing.T) {
	t.Parallel()

	var codec series.RawInt64Codec

	_, err := codec.Encode(make([]byte, 4), []int64{1, 2})
	assert.Error(t, err)
}

func Test_RawBytesCodec_Round_Trip(t *testing.T) {
	t.Parallel()

	var codec series.RawBytesCodec

	src := [][]byte{[]byte("hello"), {}, []byte("world!")}

	buf := make([]byte, codec.EncodedSizeUpperBound(len(src))+64)

	n, err := codec.Encode(buf, src)
	require.NoError(t, err)

	dst := make([][]byte, len(src))
	require.NoError(t, codec.Decode(dst, buf[:n], len(src)))
	assert.Equal(t, src, dst)
}

func Test_RawBytesCodec_Decode_Rejects_Truncated_Input(t *testing.T) {
	t.Parallel()

	var codec series.RawBytesCodec

	err := codec.Decode(make([][]byte, 1), []byte{0xFF, 0xFF, 0xFF, 0xFF}, 1)
	assert.Error(t, err)
}

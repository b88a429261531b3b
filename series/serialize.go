package series

import "encoding/binary"

// Wire format header offsets, bit-exact, little-endian.
const (
	offTotalSize      = 0  // i32
	offFormatVersion  = 4  // u8
	offFlags          = 5  // u8, reserved
	offReserved       = 6  // i16, reserved
	offSize           = 8  // i32
	offVersion        = 12 // i64
	offIsRegular      = 20 // u8
	offIsSealed       = 21 // u8
	headerSize        = 22
	wireFormatVersion = 1
)

// Serialize writes s to a binary wire format: a fixed header followed
// by a length-prefixed compressed keys block and a length-prefixed
// compressed values block. When s is in regular (dense-free) mode, only
// the first two keys are written; a reader reconstructs the rest via
// the arithmetic progression.
//
// scratch rents the two encode scratch buffers and returns them before
// Serialize returns.
func Serialize[K any, V any](s *SortedSeries[K, V], keyCodec Codec[K], valueCodec Codec[V], scratch BufferPool[byte]) ([]byte, error) {
	keys, values, version, sealed, regular := s.snapshotForSerialize()

	wireKeys := keys
	if regular && len(keys) > 2 {
		wireKeys = keys[:2]
	}

	keyBufSize := keyCodec.EncodedSizeUpperBound(len(wireKeys))
	keyBuf := scratch.Rent(keyBufSize)[:keyBufSize]
	defer scratch.Return(keyBuf)

	nKeyBytes, err := keyCodec.Encode(keyBuf, wireKeys)
	if err != nil {
		return nil, err
	}

	valBufSize := valueCodec.EncodedSizeUpperBound(len(values))
	valBuf := scratch.Rent(valBufSize)[:valBufSize]
	defer scratch.Return(valBuf)

	nValBytes, err := valueCodec.Encode(valBuf, values)
	if err != nil {
		return nil, err
	}

	total := headerSize + 4 + nKeyBytes + 4 + nValBytes
	out := make([]byte, total)

	binary.LittleEndian.PutUint32(out[offTotalSize:], uint32(total))
	out[offFormatVersion] = wireFormatVersion
	out[offFlags] = 0
	binary.LittleEndian.PutUint16(out[offReserved:], 0)
	binary.LittleEndian.PutUint32(out[offSize:], uint32(len(keys)))
	binary.LittleEndian.PutUint64(out[offVersion:], version)

	if regular {
		out[offIsRegular] = 1
	}

	if sealed {
		out[offIsSealed] = 1
	}

	off := headerSize
	binary.LittleEndian.PutUint32(out[off:], uint32(nKeyBytes))
	off += 4
	copy(out[off:], keyBuf[:nKeyBytes])
	off += nKeyBytes

	binary.LittleEndian.PutUint32(out[off:], uint32(nValBytes))
	off += 4
	copy(out[off:], valBuf[:nValBytes])

	return out, nil
}

// Deserialize reconstructs a SortedSeries from Serialize's wire format.
// The returned series is unsealed unless the payload's is_sealed flag
// was set; its versionedLock's version is initialised from the
// payload, and its orderVersion starts fresh at zero (cursors are never
// part of the serialized state).
func Deserialize[K any, V any](data []byte, comparer Comparer[K], keyCodec Codec[K], valueCodec Codec[V]) (*SortedSeries[K, V], error) {
	if len(data) < headerSize {
		return nil, ErrInvalid
	}

	totalSize := binary.LittleEndian.Uint32(data[offTotalSize:])
	if int(totalSize) != len(data) {
		return nil, ErrInvalid
	}

	if data[offFormatVersion] != wireFormatVersion {
		return nil, ErrInvalid
	}

	size := int(binary.LittleEndian.Uint32(data[offSize:]))
	if size < 0 {
		return nil, ErrInvalid
	}

	version := binary.LittleEndian.Uint64(data[offVersion:])
	isRegular := data[offIsRegular] != 0
	isSealed := data[offIsSealed] != 0

	off := headerSize

	keyBlock, off, err := readLengthPrefixed(data, off)
	if err != nil {
		return nil, err
	}

	valBlock, off, err := readLengthPrefixed(data, off)
	if err != nil {
		return nil, err
	}

	_ = off

	nWireKeys := size
	if isRegular && size > 2 {
		nWireKeys = 2
	}

	wireKeys := make([]K, nWireKeys)
	if err := keyCodec.Decode(wireKeys, keyBlock, nWireKeys); err != nil {
		return nil, err
	}

	values := make([]V, size)
	if err := valueCodec.Decode(values, valBlock, size); err != nil {
		return nil, err
	}

	keys, err := expandWireKeys(comparer, wireKeys, isRegular, size)
	if err != nil {
		return nil, err
	}

	return newFromSnapshot(comparer, keys, values, version, isSealed, isRegular), nil
}

func readLengthPrefixed(data []byte, off int) ([]byte, int, error) {
	if len(data) < off+4 {
		return nil, 0, ErrInvalid
	}

	n := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4

	if n < 0 || len(data) < off+n {
		return nil, 0, ErrInvalid
	}

	return data[off : off+n], off + n, nil
}

// expandWireKeys reconstructs the full key array from the (at most two)
// keys written for a regular store, deriving the rest via add(first,
// i*step).
func expandWireKeys[K any](comparer Comparer[K], wireKeys []K, isRegular bool, size int) ([]K, error) {
	if !isRegular {
		return wireKeys, nil
	}

	keys := make([]K, size)
	if size == 0 {
		return keys, nil
	}

	keys[0] = wireKeys[0]

	if size == 1 {
		return keys, nil
	}

	d, ok := diffable(comparer)
	if !ok {
		return nil, ErrInvalid
	}

	step := d.Diff(wireKeys[1], wireKeys[0])
	keys[1] = wireKeys[1]

	for i := 2; i < size; i++ {
		keys[i] = d.Add(wireKeys[0], step*int64(i))
	}

	return keys, nil
}

// snapshotForSerialize captures a version-consistent copy of every
// field the wire format needs, in one retry loop.
func (s *SortedSeries[K, V]) snapshotForSerialize() (keys []K, values []V, version uint64, sealed bool, regular bool) {
	for {
		v0 := s.lock.readBegin()

		n := s.keys.size()
		keys = make([]K, n)

		for i := range n {
			keys[i] = s.keys.getAt(i)
		}

		values = make([]V, n)
		copy(values, s.values[:n])

		regular = s.keys.regular
		sealed = s.sealed
		version = s.lock.versionSnapshot()

		if !s.synchronized || s.lock.readEnd(v0) {
			return keys, values, version, sealed, regular
		}
	}
}

// newFromSnapshot builds a series directly from already-sorted key/value
// slices, trusting the caller (Deserialize) that they are strictly
// increasing. It bypasses the public mutators' validation entirely,
// since the series has not yet been shared with any other goroutine.
func newFromSnapshot[K any, V any](comparer Comparer[K], keys []K, values []V, version uint64, sealed bool, regular bool) *SortedSeries[K, V] {
	s := New[K, V](comparer)

	for i := range keys {
		s.appendLocked(keys[i], values[i])
	}

	s.lock.version.Store(version)
	s.lock.nextVersion.Store(version)
	s.sealed = sealed

	if sealed {
		s.synchronized = false
		s.notifier.notifySealed()
	}

	_ = regular // keyStore derives its own regular/dense shape from append

	return s
}

package persistence

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Mode:   3,
		NumA:   5,
		NumB:   5,
		Values: []float64{0.5, 1.25, 2.0, 3.5, 4.75, 5.0, 6.5, 7.0, 8.25, 9.5},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.name(), func(t *testing.T) {
			snap := sampleSnapshot()

			data, err := snap.Encode(c)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)

			assert.Equal(t, snap.Mode, got.Mode)
			assert.Equal(t, snap.NumA, got.NumA)
			assert.Equal(t, snap.NumB, got.NumB)
			assert.Equal(t, snap.Values, got.Values)
		})
	}
}

func (c Compression) name() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

func TestSnapshotCompressibleRoundTrip(t *testing.T) {
	// Repetitive values compress, exercising the compressed path.
	values := make([]float64, 4096)
	for i := range values {
		values[i] = float64(i % 7)
	}
	snap := &Snapshot{Mode: 1, NumA: 64, NumB: 64, Values: values}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		data, err := snap.Encode(c)
		require.NoError(t, err)
		assert.Less(t, len(data), headerSize+8*len(values), "compression %s", c.name())

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, values, got.Values)
	}
}

func TestDecodeInvalidMagic(t *testing.T) {
	data, err := sampleSnapshot().Encode(CompressionNone)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(data[0:], 0xDEADBEEF)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeInvalidVersion(t *testing.T) {
	data, err := sampleSnapshot().Encode(CompressionNone)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(data[4:], 0x00990000)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := sampleSnapshot().Encode(CompressionNone)
	require.NoError(t, err)

	_, err = Decode(data[:headerSize-1])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decode(data[:headerSize+4])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeCorruptPayload(t *testing.T) {
	data, err := sampleSnapshot().Encode(CompressionNone)
	require.NoError(t, err)

	data[headerSize+3] ^= 0xFF
	_, err = Decode(data)
	assert.True(t, IsChecksumMismatch(err), "got %v", err)
}

func TestEncodeEmptySnapshot(t *testing.T) {
	snap := &Snapshot{Mode: 0, NumA: 0, NumB: 0}

	data, err := snap.Encode(CompressionZSTD)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, got.Values)
}

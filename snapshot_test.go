package emdgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/emdgo/persistence"
	"github.com/hupe1980/emdgo/testutil"
)

func TestSnapshotRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(21)
	events := testEvents(t, rng, 5, 3, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint8(StorageFlattenedSymmetric), snap.Mode)
	assert.Equal(t, uint32(5), snap.NumA)
	assert.Len(t, snap.Values, 10)

	restored := quietPairwise()
	require.NoError(t, restored.RestoreSnapshot(snap))

	assert.Equal(t, p.NevA(), restored.NevA())
	assert.Equal(t, p.Storage(), restored.Storage())
	assert.Equal(t, p.NumPairs(), restored.NumPairs())

	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			want, err := p.EMD(i, j, 0)
			require.NoError(t, err)
			got, err := restored.EMD(i, j, 0)
			require.NoError(t, err)
			assert.Equal(t, want, got, "(%d,%d)", i, j)
		}
	}
}

func TestSnapshotCross(t *testing.T) {
	rng := testutil.NewRNG(22)
	eventsA := testEvents(t, rng, 3, 3, 2)
	eventsB := testEvents(t, rng, 4, 3, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeCross(context.Background(), eventsA, eventsB))

	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint8(StorageFull), snap.Mode)
	assert.Equal(t, uint32(3), snap.NumA)
	assert.Equal(t, uint32(4), snap.NumB)

	restored := quietPairwise()
	require.NoError(t, restored.RestoreSnapshot(snap))

	got, err := restored.EMD(2, 3, 0)
	require.NoError(t, err)
	want, err := p.EMD(2, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSnapshotExternalStorage(t *testing.T) {
	p := quietPairwise(WithHandler(NewWeightedMeanHandler()))

	rng := testutil.NewRNG(23)
	events := testEvents(t, rng, 4, 3, 2)
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	_, err := p.Snapshot()
	assert.ErrorIs(t, err, ErrNoEMDsStored)
}

func TestRestoreSnapshotValidation(t *testing.T) {
	p := quietPairwise()

	err := p.RestoreSnapshot(&persistence.Snapshot{
		Mode:   uint8(StorageFlattenedSymmetric),
		NumA:   5,
		NumB:   5,
		Values: make([]float64, 3), // needs 10
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot has 3 values")

	err = p.RestoreSnapshot(&persistence.Snapshot{
		Mode: uint8(StorageExternal),
	})
	require.Error(t, err)
}

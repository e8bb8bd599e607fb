package emdgo

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/emdgo/testutil"
)

func testEvents(t *testing.T, rng *testutil.RNG, num, particles, dim int) []*Event {
	t.Helper()
	events := make([]*Event, num)
	for i := range events {
		ev, err := NewEvent(rng.UniformParticles(particles, dim), rng.PositiveWeights(particles))
		require.NoError(t, err)
		events[i] = ev
	}
	return events
}

func quietPairwise(opts ...PairwiseOption) *PairwiseEMD {
	return NewPairwiseEMD(append([]PairwiseOption{WithVerbose(false), WithNumThreads(2)}, opts...)...)
}

func TestComputeSelfFlattened(t *testing.T) {
	rng := testutil.NewRNG(1)
	events := testEvents(t, rng, 5, 4, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	assert.Equal(t, 5, p.NevA())
	assert.Equal(t, 5, p.NevB())
	assert.Equal(t, int64(10), p.NumPairs())
	assert.Equal(t, StorageFlattenedSymmetric, p.Storage())
	assert.False(t, p.Errored())

	condensed, err := p.EMDs(true)
	require.NoError(t, err)
	assert.Len(t, condensed, 10)

	dense, err := p.EMDs(false)
	require.NoError(t, err)
	require.Len(t, dense, 25)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.0, dense[i*5+i], "diagonal %d", i)
		for j := i + 1; j < 5; j++ {
			assert.Equal(t, dense[i*5+j], dense[j*5+i], "(%d,%d)", i, j)
			assert.Equal(t, condensed[indexSymmetric(int64(i), int64(j), 5)], dense[i*5+j])
		}
	}
}

func TestComputeSelfMatchesSingleSolver(t *testing.T) {
	rng := testutil.NewRNG(2)
	events := testEvents(t, rng, 4, 3, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			got, err := p.EMD(i, j, 0)
			require.NoError(t, err)

			want, err := NewEMD().Distance(events[i], events[j])
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9, "(%d,%d)", i, j)
		}
	}
}

func TestComputeSelfDense(t *testing.T) {
	rng := testutil.NewRNG(3)
	events := testEvents(t, rng, 4, 3, 2)

	p := quietPairwise(WithStoreSymFlattened(false))
	require.NoError(t, p.ComputeSelf(context.Background(), events))
	assert.Equal(t, StorageFullSymmetric, p.Storage())

	dense, err := p.EMDs(false)
	require.NoError(t, err)
	require.Len(t, dense, 16)

	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, dense[i*4+i])
		for j := 0; j < 4; j++ {
			got, err := p.EMD(i, j, 0)
			require.NoError(t, err)
			assert.Equal(t, dense[i*4+j], got)
		}
	}
}

func TestComputeCross(t *testing.T) {
	rng := testutil.NewRNG(4)
	eventsA := testEvents(t, rng, 3, 3, 2)
	eventsB := testEvents(t, rng, 4, 5, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeCross(context.Background(), eventsA, eventsB))

	assert.Equal(t, 3, p.NevA())
	assert.Equal(t, 4, p.NevB())
	assert.Equal(t, int64(12), p.NumPairs())
	assert.Equal(t, StorageFull, p.Storage())

	all, err := p.EMDs(true)
	require.NoError(t, err)
	require.Len(t, all, 12)

	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			got, err := p.EMD(i, j, 0)
			require.NoError(t, err)
			assert.Equal(t, all[i*4+j], got)

			want, err := NewEMD().Distance(eventsA[i], eventsB[j])
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9, "(%d,%d)", i, j)
		}
	}
}

func TestEMDNegativeIndexWraparound(t *testing.T) {
	rng := testutil.NewRNG(5)
	events := testEvents(t, rng, 4, 3, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	direct, err := p.EMD(3, 1, 0)
	require.NoError(t, err)
	wrapped, err := p.EMD(-1, -3, 0)
	require.NoError(t, err)
	assert.Equal(t, direct, wrapped)

	_, err = p.EMD(4, 0, 0)
	var idxErr *IndexError
	require.ErrorAs(t, err, &idxErr)
}

func TestRequestMode(t *testing.T) {
	rng := testutil.NewRNG(6)
	events := testEvents(t, rng, 4, 3, 2)

	p := quietPairwise()
	p.SetRequestMode(true)
	assert.True(t, p.RequestMode())

	err := p.ComputeSelf(context.Background(), events)
	assert.ErrorIs(t, err, ErrRequestMode)

	require.NoError(t, p.LoadEvents(events))

	got, err := p.EMD(0, 2, 1)
	require.NoError(t, err)

	want, err := NewEMD().Distance(events[0], events[2])
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)

	_, err = p.EMD(0, 1, 99)
	var threadErr *ThreadIndexError
	require.ErrorAs(t, err, &threadErr)
	assert.Equal(t, 99, threadErr.Thread)
}

func TestRequestModeCross(t *testing.T) {
	rng := testutil.NewRNG(7)
	eventsA := testEvents(t, rng, 2, 3, 2)
	eventsB := testEvents(t, rng, 3, 3, 2)

	p := quietPairwise()
	p.SetRequestMode(true)
	require.NoError(t, p.LoadEventsCross(eventsA, eventsB))

	got, err := p.EMD(1, 2, 0)
	require.NoError(t, err)

	want, err := NewEMD().Distance(eventsA[1], eventsB[2])
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

func TestExternalHandler(t *testing.T) {
	rng := testutil.NewRNG(8)
	events := testEvents(t, rng, 5, 3, 2)

	handler := NewWeightedMeanHandler()
	p := quietPairwise(WithHandler(handler))
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	assert.Equal(t, StorageExternal, p.Storage())

	// Nothing is stored internally with an external handler.
	_, err := p.EMDs(true)
	assert.ErrorIs(t, err, ErrNoEMDsStored)
	_, err = p.EMD(0, 1, 0)
	assert.ErrorIs(t, err, ErrNoEMDsStored)

	assert.Equal(t, int64(10), handler.Count())

	// The handler's weighted sum must match a serial recomputation.
	var wantSum float64
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			d, err := NewEMD().Distance(events[i], events[j])
			require.NoError(t, err)
			wantSum += d * events[i].EventWeight * events[j].EventWeight
		}
	}
	assert.InDelta(t, wantSum, handler.Sum(), 1e-9)
}

func TestFailFast(t *testing.T) {
	rng := testutil.NewRNG(9)
	events := testEvents(t, rng, 6, 3, 2)

	// An iteration budget of one makes every multi-particle pair fail.
	p := NewPairwiseEMD(
		WithVerbose(false),
		WithNumThreads(1),
		WithFailFast(true),
		WithEMDOptions(WithSolverParams(1, 0, 0)),
	)

	err := p.ComputeSelf(context.Background(), events)
	require.Error(t, err)

	var pairErr *PairError
	require.ErrorAs(t, err, &pairErr)
	assert.Contains(t, err.Error(), "issue with EMD between events")
	assert.True(t, p.Errored())
	assert.NotEmpty(t, p.ErrorMessages())
	assert.Contains(t, p.ErrorMessages()[0], "error code")
}

func TestFailureLogAndBitmap(t *testing.T) {
	rng := testutil.NewRNG(10)
	events := testEvents(t, rng, 4, 3, 2)

	p := NewPairwiseEMD(
		WithVerbose(false),
		WithNumThreads(1),
		WithEMDOptions(WithSolverParams(1, 0, 0)),
	)

	// Without fail-fast the batch runs to completion and only records.
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	errs := p.Errors()
	require.NotEmpty(t, errs)
	assert.Equal(t, uint64(len(errs)), p.FailedPairs().GetCardinality())

	for _, e := range errs {
		assert.NotEqual(t, e.I, e.J)
		assert.Less(t, e.I, 4)
		assert.Less(t, e.J, 4)
	}
}

func TestProgressOutput(t *testing.T) {
	rng := testutil.NewRNG(11)
	events := testEvents(t, rng, 5, 3, 2)

	var buf bytes.Buffer
	p := NewPairwiseEMD(
		WithNumThreads(1),
		WithOutput(&buf),
		WithPrintEvery(-2),
	)
	require.NoError(t, p.ComputeSelf(context.Background(), events))

	out := buf.String()
	assert.Contains(t, out, "Finished preprocessing 5 events")
	assert.Contains(t, out, "EMDs computed")
	assert.Contains(t, out, "% completed")
	assert.Contains(t, out, "10 / 10")
}

func TestComputeSelfCancellation(t *testing.T) {
	rng := testutil.NewRNG(12)
	events := testEvents(t, rng, 6, 3, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := quietPairwise()
	err := p.ComputeSelf(ctx, events)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPairwiseEMDFromRejectsExternalDists(t *testing.T) {
	emd := NewEMD(WithExternalDists(true))
	_, err := NewPairwiseEMDFrom(emd)
	assert.ErrorIs(t, err, ErrExternalDists)
}

func TestNewPairwiseEMDFrom(t *testing.T) {
	rng := testutil.NewRNG(13)
	events := testEvents(t, rng, 4, 3, 2)

	base := NewEMD(WithR(2))
	p, err := NewPairwiseEMDFrom(base, WithVerbose(false), WithNumThreads(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.R())

	require.NoError(t, p.ComputeSelf(context.Background(), events))

	got, err := p.EMD(0, 1, 0)
	require.NoError(t, err)

	want, err := NewEMD(WithR(2)).Distance(events[0], events[1])
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

func TestPairwiseSetters(t *testing.T) {
	p := quietPairwise()

	p.SetR(3)
	assert.Equal(t, 3.0, p.R())

	p.SetBeta(2)
	assert.Equal(t, 2.0, p.Beta())

	p.SetNorm(true)
	assert.True(t, p.Norm())

	handler := NewWeightedMeanHandler()
	p.SetHandler(handler)
	assert.True(t, p.HasHandler())
	h, err := p.Handler()
	require.NoError(t, err)
	assert.Same(t, Handler(handler), h)
}

func TestHandlerUnset(t *testing.T) {
	p := quietPairwise()
	assert.False(t, p.HasHandler())
	_, err := p.Handler()
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestClear(t *testing.T) {
	rng := testutil.NewRNG(14)
	events := testEvents(t, rng, 4, 3, 2)

	p := quietPairwise()
	require.NoError(t, p.ComputeSelf(context.Background(), events))
	require.Equal(t, int64(6), p.NumPairs())

	p.Clear(true)
	assert.Equal(t, int64(0), p.NumPairs())
	assert.Equal(t, StorageExternal, p.Storage())
	assert.Empty(t, p.Events())
}

func TestPairwiseDescription(t *testing.T) {
	p := quietPairwise()
	desc := p.Description()
	assert.Contains(t, desc, "PairwiseEMD")
	assert.Contains(t, desc, "num_threads - 2")
	assert.Contains(t, desc, "distance matrix stored internally")
}

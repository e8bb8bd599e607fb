package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/emdgo/testutil"
)

func newSolver() *NetworkFlow {
	return NewNetworkFlow(0, 0, 0)
}

func TestComputeSinglePair(t *testing.T) {
	nf := newSolver()

	w := nf.Weights(3)
	w[0], w[1] = 1.0, 1.0
	nf.Dists(1)[0] = 5.0

	status := nf.Compute(1, 1)
	require.Equal(t, StatusSuccess, status)
	assert.InDelta(t, 5.0, nf.TotalCost(), 1e-12)
	assert.InDelta(t, 1.0, nf.Flows()[0], 1e-12)
}

func TestComputeEmpty(t *testing.T) {
	nf := newSolver()
	assert.Equal(t, StatusEmpty, nf.Compute(0, 1))
	assert.Equal(t, StatusEmpty, nf.Compute(1, 0))
}

func TestComputeSupplyMismatch(t *testing.T) {
	nf := newSolver()

	w := nf.Weights(3)
	w[0], w[1] = 1.0, 2.0
	nf.Dists(1)[0] = 1.0

	assert.Equal(t, StatusSupplyMismatch, nf.Compute(1, 1))
}

func TestComputeNegativeDistance(t *testing.T) {
	nf := newSolver()

	w := nf.Weights(3)
	w[0], w[1] = 1.0, 1.0
	nf.Dists(1)[0] = -0.5

	assert.Equal(t, StatusUnbounded, nf.Compute(1, 1))
}

func TestComputeMaxIterReached(t *testing.T) {
	nf := NewNetworkFlow(1, 0, 0)

	w := nf.Weights(5)
	w[0], w[1] = 1.0, 1.0 // two supplies
	w[2], w[3] = 1.0, 1.0 // two demands
	d := nf.Dists(4)
	d[0], d[1], d[2], d[3] = 0, 1, 1, 0

	assert.Equal(t, StatusMaxIterReached, nf.Compute(2, 2))
}

func TestComputeDiagonalOptimum(t *testing.T) {
	nf := newSolver()

	w := nf.Weights(5)
	w[0], w[1] = 1.0, 1.0
	w[2], w[3] = 1.0, 1.0
	d := nf.Dists(4)
	d[0], d[1] = 0, 1
	d[2], d[3] = 1, 0

	require.Equal(t, StatusSuccess, nf.Compute(2, 2))
	assert.InDelta(t, 0.0, nf.TotalCost(), 1e-12)

	flows := nf.Flows()
	assert.InDelta(t, 1.0, flows[0], 1e-12)
	assert.InDelta(t, 0.0, flows[1], 1e-12)
	assert.InDelta(t, 0.0, flows[2], 1e-12)
	assert.InDelta(t, 1.0, flows[3], 1e-12)
}

func TestComputeAntiDiagonalOptimum(t *testing.T) {
	nf := newSolver()

	w := nf.Weights(5)
	w[0], w[1] = 1.0, 1.0
	w[2], w[3] = 1.0, 1.0
	d := nf.Dists(4)
	d[0], d[1] = 1, 0
	d[2], d[3] = 0, 1

	require.Equal(t, StatusSuccess, nf.Compute(2, 2))
	assert.InDelta(t, 0.0, nf.TotalCost(), 1e-12)
}

func TestComputeSplitMass(t *testing.T) {
	// One supply of 1 must split across two demands of 0.5 at costs 1 and 3.
	nf := newSolver()

	w := nf.Weights(4)
	w[0] = 1.0
	w[1], w[2] = 0.5, 0.5
	d := nf.Dists(2)
	d[0], d[1] = 1.0, 3.0

	require.Equal(t, StatusSuccess, nf.Compute(1, 2))
	assert.InDelta(t, 2.0, nf.TotalCost(), 1e-12)
}

func TestComputeMatchesOneDimensionalReference(t *testing.T) {
	rng := testutil.NewRNG(1337)

	for trial := 0; trial < 10; trial++ {
		n0, n1 := 3+rng.Intn(4), 3+rng.Intn(4)

		posA := make([]float64, n0)
		posB := make([]float64, n1)
		for i := range posA {
			posA[i] = rng.Float64() * 10
		}
		for j := range posB {
			posB[j] = rng.Float64() * 10
		}

		wA := rng.PositiveWeights(n0)
		wB := rng.PositiveWeights(n1)
		var totA, totB float64
		for _, w := range wA {
			totA += w
		}
		for _, w := range wB {
			totB += w
		}
		for i := range wA {
			wA[i] /= totA
		}
		for j := range wB {
			wB[j] /= totB
		}

		nf := newSolver()
		w := nf.Weights(n0 + n1 + 1)
		copy(w, wA)
		copy(w[n0:], wB)
		d := nf.Dists(n0 * n1)
		for i := 0; i < n0; i++ {
			for j := 0; j < n1; j++ {
				diff := posA[i] - posB[j]
				if diff < 0 {
					diff = -diff
				}
				d[i*n1+j] = diff
			}
		}

		require.Equal(t, StatusSuccess, nf.Compute(n0, n1))

		want := testutil.EMD1D(posA, wA, posB, wB)
		assert.InDelta(t, want, nf.TotalCost(), 1e-9)
	}
}

func TestComputeFlowConservation(t *testing.T) {
	rng := testutil.NewRNG(7)
	n0, n1 := 4, 5

	wA := rng.PositiveWeights(n0)
	wB := rng.PositiveWeights(n1)
	var totA, totB float64
	for _, w := range wA {
		totA += w
	}
	for _, w := range wB {
		totB += w
	}
	for j := range wB {
		wB[j] *= totA / totB
	}

	nf := newSolver()
	w := nf.Weights(n0 + n1 + 1)
	copy(w, wA)
	copy(w[n0:], wB)
	d := nf.Dists(n0 * n1)
	for k := range d {
		d[k] = rng.Float64()
	}

	require.Equal(t, StatusSuccess, nf.Compute(n0, n1))

	flows := nf.Flows()
	for i := 0; i < n0; i++ {
		var row float64
		for j := 0; j < n1; j++ {
			row += flows[i*n1+j]
		}
		assert.InDelta(t, wA[i], row, 1e-9, "row %d", i)
	}
	for j := 0; j < n1; j++ {
		var col float64
		for i := 0; i < n0; i++ {
			col += flows[i*n1+j]
		}
		assert.InDelta(t, wB[j], col, 1e-9, "col %d", j)
	}
}

func TestComputeBufferReuse(t *testing.T) {
	nf := newSolver()

	// Bigger solve first so buffers are retained and must be re-zeroed.
	w := nf.Weights(5)
	w[0], w[1] = 1.0, 1.0
	w[2], w[3] = 1.0, 1.0
	d := nf.Dists(4)
	d[0], d[1], d[2], d[3] = 0, 1, 1, 0
	require.Equal(t, StatusSuccess, nf.Compute(2, 2))

	w = nf.Weights(3)
	w[0], w[1] = 2.0, 2.0
	nf.Dists(1)[0] = 0.5
	require.Equal(t, StatusSuccess, nf.Compute(1, 1))
	assert.InDelta(t, 1.0, nf.TotalCost(), 1e-12)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Success", StatusSuccess.String())
	assert.Equal(t, "Empty", StatusEmpty.String())
	assert.Equal(t, "SupplyMismatch", StatusSupplyMismatch.String())
	assert.Equal(t, "Unbounded", StatusUnbounded.String())
	assert.Equal(t, "MaxIterReached", StatusMaxIterReached.String())
	assert.Equal(t, "Infeasible", StatusInfeasible.String())
}

package emdgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent([][]float64{{0}, {1}}, []float64{0.5, 1.5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.EventWeight)
	assert.InDelta(t, 2.0, ev.TotalWeight(), 1e-12)
}

func TestNewEventLengthMismatch(t *testing.T) {
	_, err := NewEvent([][]float64{{0}, {1}}, []float64{1})

	var mismatch *LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Weights)
	assert.Equal(t, 2, mismatch.Particles)
}

func TestNewWeightedEvent(t *testing.T) {
	ev, err := NewWeightedEvent([][]float64{{0}}, nil, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, ev.EventWeight)
}

func TestEnsureWeights(t *testing.T) {
	ev, err := NewEvent([][]float64{{0}, {1}, {2}}, nil)
	require.NoError(t, err)
	assert.Nil(t, ev.Weights)

	ev.EnsureWeights()
	assert.Equal(t, []float64{1, 1, 1}, ev.Weights)

	// Idempotent: existing weights are never overwritten.
	ev.Weights[0] = 7
	ev.EnsureWeights()
	assert.Equal(t, 7.0, ev.Weights[0])
}

func TestNormalizeWeights(t *testing.T) {
	ev, err := NewEvent([][]float64{{0}, {1}}, []float64{1, 3})
	require.NoError(t, err)

	ev.NormalizeWeights()
	assert.InDelta(t, 0.25, ev.Weights[0], 1e-12)
	assert.InDelta(t, 0.75, ev.Weights[1], 1e-12)
	assert.InDelta(t, 1.0, ev.TotalWeight(), 1e-12)
}

func TestNormalizeWeightsZeroTotal(t *testing.T) {
	ev, err := NewEvent([][]float64{{0}}, []float64{0})
	require.NoError(t, err)

	ev.NormalizeWeights()
	assert.Equal(t, 0.0, ev.Weights[0])
}

// Package testutil provides testing utilities for emdgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic random particle
// configurations and an independent one-dimensional reference distance.
//
// # Random Event Data
//
//	rng := testutil.NewRNG(seed)
//	particles := rng.UniformParticles(8, 2) // 8 particles in 2 dimensions
//	weights := rng.PositiveWeights(8)
//
// # Reference Distance
//
//	want := testutil.EMD1D(posA, wA, posB, wB)
package testutil

package testutil

import (
	"math/rand"
	"sort"
	"sync"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformParticles generates num particle positions with coordinates in
// [0, 1), sharing one backing array.
func (r *RNG) UniformParticles(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	particles := make([][]float64, num)

	for i := range num {
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = r.rand.Float64()
		}
		particles[i] = p
	}

	return particles
}

// GaussianParticles generates num particle positions with standard normal
// coordinates.
func (r *RNG) GaussianParticles(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	particles := make([][]float64, num)

	for i := range num {
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = r.rand.NormFloat64()
		}
		particles[i] = p
	}

	return particles
}

// PositiveWeights generates num weights in (0, 1].
func (r *RNG) PositiveWeights(num int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	weights := make([]float64, num)
	for i := range weights {
		weights[i] = 1 - r.rand.Float64()
	}
	return weights
}

// EMD1D computes the exact earth mover's distance between two weighted
// one-dimensional distributions with equal total weight, using the CDF
// difference integral. It serves as an independent reference for solver
// validation.
func EMD1D(positionsA, weightsA, positionsB, weightsB []float64) float64 {
	type point struct {
		x float64
		w float64
		b bool
	}

	points := make([]point, 0, len(positionsA)+len(positionsB))
	for i, x := range positionsA {
		points = append(points, point{x: x, w: weightsA[i]})
	}
	for i, x := range positionsB {
		points = append(points, point{x: x, w: weightsB[i], b: true})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].x < points[j].x })

	var emd, cdfDiff float64
	for i, p := range points {
		if i > 0 {
			diff := cdfDiff
			if diff < 0 {
				diff = -diff
			}
			emd += diff * (p.x - points[i-1].x)
		}
		if p.b {
			cdfDiff -= p.w
		} else {
			cdfDiff += p.w
		}
	}
	return emd
}

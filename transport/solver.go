package transport

// Default solver parameters, matching the tolerances that work well for
// weight vectors rescaled to O(1).
const (
	DefaultMaxIter            = 100000
	DefaultEpsilonLargeFactor = 10000
	DefaultEpsilonSmallFactor = 1
)

// Solver is the contract the EMD layer programs against.
//
// A Solver owns three buffers that survive across Compute calls:
//
//   - Weights(n) returns the weight buffer grown to n entries. The caller
//     fills the n0 supplies, then the n1 demands. One trailing slot beyond
//     supplies and demands is always reserved for the solver's own artificial
//     node bookkeeping, so callers size it n0+n1+1.
//   - Dists(n) returns the ground distance buffer grown to n entries,
//     row-major with n1 columns.
//   - Flows() exposes the per-arc flows of the last successful solve, in the
//     same row-major layout.
//
// Implementations need not be safe for concurrent use; callers that solve in
// parallel hold one Solver per worker.
type Solver interface {
	// Weights returns the mutable weight buffer, grown to hold n values.
	Weights(n int) []float64

	// Dists returns the mutable ground distance buffer, grown to hold n
	// values.
	Dists(n int) []float64

	// Compute solves the transportation problem for n0 supplies and n1
	// demands previously written through Weights and Dists.
	Compute(n0, n1 int) Status

	// TotalCost returns the optimal cost of the last successful Compute.
	TotalCost() float64

	// Flows returns the row-major per-arc flows of the last Compute.
	// The slice aliases internal storage and is valid until the next call.
	Flows() []float64

	// SetParams adjusts the iteration budget and the two tolerance factors
	// (multiples of machine epsilon scaled by the largest weight).
	SetParams(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64)

	// Reset releases all retained buffers.
	Reset()

	// Description returns a human-readable summary of the solver setup.
	Description() string
}

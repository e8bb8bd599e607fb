package transport

import (
	"fmt"
	"math"
)

// machEps is the float64 machine epsilon.
const machEps = 2.220446049250313e-16

// NetworkFlow is the default exact transportation solver.
//
// It computes a minimum cost flow on the dense bipartite graph of n0 supply
// nodes and n1 demand nodes by successive shortest augmenting paths. Node
// potentials keep every reduced arc cost nonnegative, so each augmentation is
// a plain Dijkstra pass and no integer scaling of weights or distances is
// required.
//
// Steps per Compute:
//  1. Derive the small/large tolerances from the largest weight magnitude.
//  2. Reject empty sides, mismatched totals and negative distances.
//  3. While supply remains: run Dijkstra over reduced costs from the next
//     unsatisfied supply node, augment along the shortest path to the
//     nearest unsatisfied demand node, update potentials.
//  4. Sum flow*distance over all arcs for the total cost.
//
// Memory: O(n0*n1) for flows and distances, O(n0+n1) scratch, all retained
// across calls until Reset.
type NetworkFlow struct {
	maxIter        int
	epsLargeFactor float64
	epsSmallFactor float64

	weights []float64
	dists   []float64
	flows   []float64

	totalCost float64

	// per-solve scratch, indexed by node id (supplies first, then demands)
	potential []float64
	dist      []float64
	parent    []int
	visited   []bool
	remaining []float64
}

var _ Solver = (*NetworkFlow)(nil)

// NewNetworkFlow creates a solver with the given iteration budget and
// tolerance factors. Nonpositive arguments fall back to the defaults.
func NewNetworkFlow(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64) *NetworkFlow {
	nf := &NetworkFlow{}
	nf.SetParams(maxIter, epsilonLargeFactor, epsilonSmallFactor)
	return nf
}

// SetParams adjusts the iteration budget and tolerance factors.
func (nf *NetworkFlow) SetParams(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64) {
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	if epsilonLargeFactor <= 0 {
		epsilonLargeFactor = DefaultEpsilonLargeFactor
	}
	if epsilonSmallFactor <= 0 {
		epsilonSmallFactor = DefaultEpsilonSmallFactor
	}
	nf.maxIter = maxIter
	nf.epsLargeFactor = epsilonLargeFactor
	nf.epsSmallFactor = epsilonSmallFactor
}

// Weights returns the mutable weight buffer, grown to hold n values.
func (nf *NetworkFlow) Weights(n int) []float64 {
	nf.weights = grow(nf.weights, n)
	return nf.weights
}

// Dists returns the mutable ground distance buffer, grown to hold n values.
func (nf *NetworkFlow) Dists(n int) []float64 {
	nf.dists = grow(nf.dists, n)
	return nf.dists
}

// TotalCost returns the optimal cost found by the last successful Compute.
func (nf *NetworkFlow) TotalCost() float64 { return nf.totalCost }

// Flows returns the row-major per-arc flows of the last Compute. The slice
// aliases internal storage.
func (nf *NetworkFlow) Flows() []float64 { return nf.flows }

// Reset releases all retained buffers.
func (nf *NetworkFlow) Reset() {
	nf.weights = nil
	nf.dists = nil
	nf.flows = nil
	nf.potential = nil
	nf.dist = nil
	nf.parent = nil
	nf.visited = nil
	nf.remaining = nil
}

// Description returns a human-readable summary of the solver setup.
func (nf *NetworkFlow) Description() string {
	return fmt.Sprintf("  NetworkFlow\n    max_iter - %d\n    epsilon_large_factor - %g\n    epsilon_small_factor - %g\n",
		nf.maxIter, nf.epsLargeFactor, nf.epsSmallFactor)
}

// Compute solves the transportation problem for n0 supplies and n1 demands.
func (nf *NetworkFlow) Compute(n0, n1 int) Status {
	if n0 <= 0 || n1 <= 0 {
		return StatusEmpty
	}

	supply := nf.weights[:n0]
	demand := nf.weights[n0 : n0+n1]
	d := nf.dists[:n0*n1]

	// Tolerances scale with the largest weight magnitude.
	amax := 0.0
	for _, w := range nf.weights[:n0+n1] {
		if a := math.Abs(w); a > amax {
			amax = a
		}
	}
	epsLarge := nf.epsLargeFactor * machEps * amax
	epsSmall := nf.epsSmallFactor * machEps * amax

	var sumS, sumD float64
	for _, w := range supply {
		sumS += w
	}
	for _, w := range demand {
		sumD += w
	}
	if math.Abs(sumS-sumD) > epsLarge {
		return StatusSupplyMismatch
	}

	for _, c := range d {
		if c < 0 {
			return StatusUnbounded
		}
	}

	nodes := n0 + n1
	nf.flows = grow(nf.flows, n0*n1)
	nf.potential = grow(nf.potential, nodes)
	nf.dist = grow(nf.dist, nodes)
	nf.parent = growInt(nf.parent, nodes)
	nf.visited = growBool(nf.visited, nodes)
	nf.remaining = grow(nf.remaining, nodes)

	for i := range nf.flows[:n0*n1] {
		nf.flows[i] = 0
	}
	for v := 0; v < nodes; v++ {
		nf.potential[v] = 0
	}
	copy(nf.remaining[:n0], supply)
	copy(nf.remaining[n0:nodes], demand)
	rem := nf.remaining

	iter := 0
	for {
		src := -1
		for i := 0; i < n0; i++ {
			if rem[i] > epsSmall {
				src = i
				break
			}
		}
		if src < 0 {
			break // all supply routed
		}
		if iter >= nf.maxIter {
			return StatusMaxIterReached
		}
		iter++

		sink := nf.dijkstra(src, n0, n1, d, epsSmall)
		if sink < 0 {
			return StatusInfeasible
		}
		nf.augment(src, sink, n0, n1, nodes)
	}

	cost := 0.0
	for k, f := range nf.flows[:n0*n1] {
		cost += f * d[k]
	}
	nf.totalCost = cost
	return StatusSuccess
}

// dijkstra runs a shortest path pass over reduced costs from the supply node
// src and returns the node id of the nearest demand node with remaining
// capacity, or -1 if none is reachable. dist and parent describe the path.
func (nf *NetworkFlow) dijkstra(src, n0, n1 int, d []float64, epsSmall float64) int {
	nodes := n0 + n1
	for v := 0; v < nodes; v++ {
		nf.dist[v] = math.Inf(1)
		nf.parent[v] = -1
		nf.visited[v] = false
	}
	nf.dist[src] = 0

	for {
		u := -1
		du := math.Inf(1)
		for v := 0; v < nodes; v++ {
			if !nf.visited[v] && nf.dist[v] < du {
				du = nf.dist[v]
				u = v
			}
		}
		if u < 0 {
			break
		}
		nf.visited[u] = true

		if u < n0 {
			// Forward arcs from supply u to every demand node.
			base := u * n1
			pu := nf.potential[u]
			for j := 0; j < n1; j++ {
				v := n0 + j
				if nf.visited[v] {
					continue
				}
				rc := d[base+j] + pu - nf.potential[v]
				if rc < 0 {
					rc = 0 // rounding guard, potentials keep rc >= 0
				}
				if nd := du + rc; nd < nf.dist[v] {
					nf.dist[v] = nd
					nf.parent[v] = u
				}
			}
		} else {
			// Backward arcs from demand u to supplies with positive flow.
			j := u - n0
			pu := nf.potential[u]
			for i := 0; i < n0; i++ {
				if nf.visited[i] || nf.flows[i*n1+j] <= epsSmall {
					continue
				}
				rc := -d[i*n1+j] + pu - nf.potential[i]
				if rc < 0 {
					rc = 0
				}
				if nd := du + rc; nd < nf.dist[i] {
					nf.dist[i] = nd
					nf.parent[i] = u
				}
			}
		}
	}

	sink := -1
	best := math.Inf(1)
	for j := 0; j < n1; j++ {
		v := n0 + j
		if nf.remaining[v] > epsSmall && nf.dist[v] < best {
			best = nf.dist[v]
			sink = v
		}
	}
	return sink
}

// augment pushes the bottleneck amount along the parent path from sink back
// to src and updates the node potentials.
func (nf *NetworkFlow) augment(src, sink, n0, n1, nodes int) {
	// Forward arcs are uncapacitated, so only endpoint balances and
	// backward arcs can bottleneck.
	delta := math.Min(nf.remaining[src], nf.remaining[sink])
	for v := sink; v != src; {
		u := nf.parent[v]
		if u >= n0 {
			// Backward arc from demand u into supply v limits at its flow.
			if f := nf.flows[v*n1+(u-n0)]; f < delta {
				delta = f
			}
		}
		v = u
	}

	for v := sink; v != src; {
		u := nf.parent[v]
		if u < n0 {
			nf.flows[u*n1+(v-n0)] += delta
		} else {
			nf.flows[v*n1+(u-n0)] -= delta
		}
		v = u
	}
	nf.remaining[src] -= delta
	nf.remaining[sink] -= delta

	// Standard potential update: clamp at the sink distance so unreached
	// nodes keep nonnegative reduced costs.
	sinkDist := nf.dist[sink]
	for v := 0; v < nodes; v++ {
		dv := nf.dist[v]
		if dv > sinkDist {
			dv = sinkDist
		}
		nf.potential[v] += dv
	}
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

func growInt(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

func growBool(s []bool, n int) []bool {
	if cap(s) < n {
		return make([]bool, n)
	}
	return s[:n]
}

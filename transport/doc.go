// Package transport solves the balanced transportation problem that sits at
// the core of every EMD evaluation.
//
// A Solver is handed a supply vector, a demand vector and a dense ground
// distance matrix, and returns the minimal total cost of moving all supply to
// all demand together with the per-arc flows. Solvers are stateful: the
// weight, distance and flow buffers are retained between calls so that a
// long batch of evaluations does not reallocate, and Reset releases them.
//
// NetworkFlow is the default implementation. It runs successive shortest
// augmenting paths with node potentials, which is exact for the
// transportation problem and needs no integer scaling of the inputs.
package transport

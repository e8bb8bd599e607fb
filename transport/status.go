package transport

import "fmt"

// Status reports the outcome of a Solver.Compute call.
//
// Only StatusSuccess means TotalCost and Flows hold a valid optimum. All
// other values describe why the solve was abandoned; the buffers then hold
// whatever transient state the solver left behind.
type Status int

const (
	// StatusSuccess indicates an optimal transport plan was found.
	StatusSuccess Status = iota
	// StatusEmpty indicates one of the two point sets was empty.
	StatusEmpty
	// StatusSupplyMismatch indicates total supply and total demand differ
	// beyond the configured tolerance.
	StatusSupplyMismatch
	// StatusUnbounded indicates the problem admits arbitrarily negative
	// cost, e.g. a negative ground distance was supplied.
	StatusUnbounded
	// StatusMaxIterReached indicates the iteration budget was exhausted
	// before an optimum was proven.
	StatusMaxIterReached
	// StatusInfeasible indicates remaining supply could not be routed to
	// any remaining demand.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusEmpty:
		return "Empty"
	case StatusSupplyMismatch:
		return "SupplyMismatch"
	case StatusUnbounded:
		return "Unbounded"
	case StatusMaxIterReached:
		return "MaxIterReached"
	case StatusInfeasible:
		return "Infeasible"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

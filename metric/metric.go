package metric

import (
	"fmt"
	"math"
)

// ExtraParticle records whether a fictitious particle was appended to
// balance total weights, and to which event.
type ExtraParticle int

const (
	// ExtraNone means no fictitious particle was added.
	ExtraNone ExtraParticle = iota
	// ExtraZero means the fictitious particle was appended to the first event.
	ExtraZero
	// ExtraOne means the fictitious particle was appended to the second event.
	ExtraOne
)

func (e ExtraParticle) String() string {
	switch e {
	case ExtraNone:
		return "None"
	case ExtraZero:
		return "AddedToFirst"
	case ExtraOne:
		return "AddedToSecond"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// ErrDimensionMismatch indicates two particles of differing dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("metric: particle dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// PairwiseDistance fills ground distance matrices between particle sets.
//
// Implementations hold only configuration, no per-call state, so a single
// instance may be shared across concurrent solvers.
type PairwiseDistance interface {
	// FillDistances writes the row-major distance matrix between
	// particlesA (rows) and particlesB (columns) into out. When extra is
	// not ExtraNone, the matrix includes one additional row (ExtraZero)
	// or column (ExtraOne) for the fictitious particle, which is assigned
	// zero distance to every counterpart.
	FillDistances(particlesA, particlesB [][]float64, out []float64, extra ExtraParticle) error

	// Configure sets the length scale R and the angular exponent beta.
	Configure(r, beta float64)

	// R returns the configured length scale.
	R() float64

	// Beta returns the configured angular exponent.
	Beta() float64

	// Description returns a human-readable summary of the provider.
	Description() string
}

// Euclidean is the default ground distance: (|a-b| / R)^beta.
type Euclidean struct {
	r    float64
	beta float64
}

var _ PairwiseDistance = (*Euclidean)(nil)

// NewEuclidean creates a Euclidean provider. Nonpositive r defaults to 1,
// nonpositive beta defaults to 1.
func NewEuclidean(r, beta float64) *Euclidean {
	e := &Euclidean{}
	e.Configure(r, beta)
	return e
}

// Configure sets the length scale and angular exponent.
func (e *Euclidean) Configure(r, beta float64) {
	if r <= 0 {
		r = 1
	}
	if beta <= 0 {
		beta = 1
	}
	e.r = r
	e.beta = beta
}

// R returns the length scale.
func (e *Euclidean) R() float64 { return e.r }

// Beta returns the angular exponent.
func (e *Euclidean) Beta() float64 { return e.beta }

// Description returns a human-readable summary of the provider.
func (e *Euclidean) Description() string {
	return fmt.Sprintf("  Euclidean\n    R - %g\n    beta - %g\n", e.r, e.beta)
}

// Distance returns the ground distance between two particles.
func (e *Euclidean) Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	dist := math.Sqrt(sum) / e.r
	if e.beta != 1 {
		dist = math.Pow(dist, e.beta)
	}
	return dist, nil
}

// FillDistances writes the row-major distance matrix between particlesA and
// particlesB into out, padding one zero row or column when extra says a
// fictitious particle was appended.
func (e *Euclidean) FillDistances(particlesA, particlesB [][]float64, out []float64, extra ExtraParticle) error {
	n0, n1 := len(particlesA), len(particlesB)
	cols := n1
	if extra == ExtraOne {
		cols++
	}

	for i, pa := range particlesA {
		base := i * cols
		for j, pb := range particlesB {
			d, err := e.Distance(pa, pb)
			if err != nil {
				return err
			}
			out[base+j] = d
		}
		if extra == ExtraOne {
			out[base+n1] = 0
		}
	}

	if extra == ExtraZero {
		base := n0 * cols
		for j := 0; j < cols; j++ {
			out[base+j] = 0
		}
	}

	return nil
}

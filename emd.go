package emdgo

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hupe1980/emdgo/metric"
	"github.com/hupe1980/emdgo/transport"
)

// EMD computes the Earth Mover's Distance between two events.
//
// An EMD owns one ground distance provider and one transport solver, both
// retained across calls so that long batches reuse their buffers. Instances
// are not safe for concurrent use; PairwiseEMD holds one per worker.
type EMD struct {
	opts options

	pairwiseDistance metric.PairwiseDistance
	solver           transport.Solver

	factories     []PreprocessorFactory
	preprocessors []Preprocessor

	// state of the last Compute
	n0, n1     int
	extra      metric.ExtraParticle
	weightDiff float64
	scale      float64
	emd        float64
	status     transport.Status

	start    time.Time
	duration time.Duration
}

// NewEMD creates a single-pair EMD solver.
func NewEMD(opts ...Option) *EMD {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	return &EMD{
		opts:             o,
		pairwiseDistance: o.newPairwiseDistance(o.r, o.beta),
		solver:           o.newSolver(o.maxIter, o.epsLargeFactor, o.epsSmallFactor),
		scale:            1,
	}
}

// clone creates an independent solver with the same configuration: fresh
// transport solver, fresh distance provider and fresh preprocessor instances.
func (e *EMD) clone() *EMD {
	c := &EMD{
		opts:             e.opts,
		pairwiseDistance: e.opts.newPairwiseDistance(e.opts.r, e.opts.beta),
		solver:           e.opts.newSolver(e.opts.maxIter, e.opts.epsLargeFactor, e.opts.epsSmallFactor),
		scale:            1,
	}
	c.Preprocess(e.factories...)
	return c
}

// R returns the length scale of the ground distance.
func (e *EMD) R() float64 { return e.pairwiseDistance.R() }

// Beta returns the angular exponent of the ground distance.
func (e *EMD) Beta() float64 { return e.pairwiseDistance.Beta() }

// Norm reports whether per-event weight normalization is enabled.
func (e *EMD) Norm() bool { return e.opts.norm }

// ExternalDists reports whether ground distances are caller-supplied.
func (e *EMD) ExternalDists() bool { return e.opts.externalDists }

// SetR updates the length scale of the ground distance.
func (e *EMD) SetR(r float64) {
	e.opts.r = r
	e.pairwiseDistance.Configure(r, e.opts.beta)
}

// SetBeta updates the angular exponent of the ground distance.
func (e *EMD) SetBeta(beta float64) {
	e.opts.beta = beta
	e.pairwiseDistance.Configure(e.opts.r, beta)
}

// SetNorm toggles per-event weight normalization.
func (e *EMD) SetNorm(norm bool) { e.opts.norm = norm }

// SetExternalDists toggles caller-supplied ground distances.
func (e *EMD) SetExternalDists(external bool) { e.opts.externalDists = external }

// SetSolverParams forwards iteration and tolerance parameters to the
// transport solver.
func (e *EMD) SetSolverParams(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64) {
	e.opts.maxIter = maxIter
	e.opts.epsLargeFactor = epsilonLargeFactor
	e.opts.epsSmallFactor = epsilonSmallFactor
	e.solver.SetParams(maxIter, epsilonLargeFactor, epsilonSmallFactor)
}

// Preprocess registers preprocessor factories; each factory is instantiated
// immediately for this solver instance.
func (e *EMD) Preprocess(factories ...PreprocessorFactory) *EMD {
	for _, f := range factories {
		e.factories = append(e.factories, f)
		e.preprocessors = append(e.preprocessors, f())
	}
	return e
}

// Clear releases the transport solver's retained buffers and drops all
// registered preprocessors.
func (e *EMD) Clear() {
	e.factories = nil
	e.preprocessors = nil
	e.solver.Reset()
}

// Distance preprocesses both events, computes their EMD and returns it,
// translating any non-success status into a StatusError.
func (e *EMD) Distance(ev0, ev1 *Event) (float64, error) {
	if err := e.preprocess(ev0); err != nil {
		return 0, err
	}
	if err := e.preprocess(ev1); err != nil {
		return 0, err
	}

	status, err := e.Compute(ev0, ev1)
	if err != nil {
		return 0, err
	}
	if status != transport.StatusSuccess {
		return 0, &StatusError{Status: status}
	}
	return e.emd, nil
}

// Compute runs the EMD computation on two events without preprocessing.
//
// The returned status is the transport solver's verdict and is never itself
// an error; the error return covers usage problems only (e.g. mismatched
// particle dimensions).
//
// Steps:
//  1. Balance total weights: unless norm or external distances are active or
//     the totals already match, append a fictitious particle with the weight
//     difference to the lighter event.
//  2. Rescale all weights by the larger total so the solver tolerances stay
//     meaningful regardless of input magnitude (skipped under norm).
//  3. Fill the ground distance matrix, zero for the fictitious particle.
//  4. Solve, then undo the rescaling on the reported cost.
func (e *EMD) Compute(ev0, ev1 *Event) (transport.Status, error) {
	if e.opts.doTiming {
		e.start = time.Now()
	}

	ws0, ws1 := ev0.Weights, ev1.Weights
	e.n0, e.n1 = len(ws0), len(ws1)
	e.weightDiff = ev1.TotalWeight() - ev0.TotalWeight()

	// The extra slot past n0+n1 is reserved by the solver contract for its
	// artificial node, sized here even when no particle is added.
	switch {
	case e.opts.norm || e.opts.externalDists || e.weightDiff == 0:
		e.extra = metric.ExtraNone
		w := e.solver.Weights(e.n0 + e.n1 + 1)
		copy(w, ws0)
		copy(w[e.n0:], ws1)

	case e.weightDiff > 0:
		// Event 0 is lighter, pad it.
		e.extra = metric.ExtraZero
		e.n0++
		w := e.solver.Weights(e.n0 + e.n1 + 1)
		copy(w, ws0)
		w[len(ws0)] = e.weightDiff
		copy(w[e.n0:], ws1)

	default:
		// Event 1 is lighter, pad it.
		e.extra = metric.ExtraOne
		e.n1++
		w := e.solver.Weights(e.n0 + e.n1 + 1)
		copy(w, ws0)
		copy(w[e.n0:], ws1)
		w[e.n0+len(ws1)] = -e.weightDiff
	}

	e.scale = 1
	if !e.opts.norm {
		e.scale = math.Max(ev0.TotalWeight(), ev1.TotalWeight())
		w := e.solver.Weights(e.n0 + e.n1 + 1)
		for i := 0; i < e.n0+e.n1; i++ {
			w[i] /= e.scale
		}
	}

	if !e.opts.externalDists {
		out := e.solver.Dists(e.n0 * e.n1)
		if err := e.pairwiseDistance.FillDistances(ev0.Particles, ev1.Particles, out, e.extra); err != nil {
			return e.status, err
		}
	}

	e.status = e.solver.Compute(e.n0, e.n1)
	e.emd = e.solver.TotalCost()

	if e.status == transport.StatusSuccess && !e.opts.norm {
		e.emd *= e.scale
	}

	if e.opts.doTiming {
		e.duration = time.Since(e.start)
	}

	return e.status, nil
}

// Value returns the EMD found by the last Compute.
func (e *EMD) Value() float64 { return e.emd }

// Status returns the solver status of the last Compute.
func (e *EMD) Status() transport.Status { return e.status }

// Scale returns the weight rescaling factor applied in the last Compute.
func (e *EMD) Scale() float64 { return e.scale }

// Extra reports which event, if any, received the fictitious particle in the
// last Compute.
func (e *EMD) Extra() metric.ExtraParticle { return e.extra }

// N0 returns the first event's particle count after padding.
func (e *EMD) N0() int { return e.n0 }

// N1 returns the second event's particle count after padding.
func (e *EMD) N1() int { return e.n1 }

// Duration returns the wall time of the last timed Compute.
func (e *EMD) Duration() time.Duration { return e.duration }

// Dists returns a copy of the ground distances of the last Compute.
func (e *EMD) Dists() []float64 {
	out := make([]float64, e.n0*e.n1)
	copy(out, e.solver.Dists(e.n0*e.n1))
	return out
}

// GroundDists exposes the solver's mutable ground distance buffer, grown to
// n entries. Used with external distances to supply the matrix directly.
func (e *EMD) GroundDists(n int) []float64 {
	return e.solver.Dists(n)
}

// Flows returns a copy of the per-arc flows of the last Compute, rescaled
// back to the input weight units.
func (e *EMD) Flows() []float64 {
	flows := e.solver.Flows()[:e.n0*e.n1]
	out := make([]float64, len(flows))
	for i, f := range flows {
		out[i] = f * e.scale
	}
	return out
}

// Flow returns the flow between particle i of the first event and particle j
// of the second. Negative indices wrap around, so -1 addresses the last
// particle of its side.
func (e *EMD) Flow(i, j int) (float64, error) {
	if i < 0 {
		i += e.n0
	}
	if j < 0 {
		j += e.n1
	}
	if i < 0 || j < 0 || i >= e.n0 || j >= e.n1 {
		return 0, &IndexError{I: i, J: j, NA: e.n0, NB: e.n1}
	}
	return e.solver.Flows()[i*e.n1+j] * e.scale, nil
}

// Description returns a human-readable summary of the solver configuration.
func (e *EMD) Description(writePreprocessors bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "EMD\n  norm - %t\n\n", e.opts.norm)
	sb.WriteString(e.pairwiseDistance.Description())
	sb.WriteString(e.solver.Description())
	if writePreprocessors {
		e.writePreprocessors(&sb)
	}
	return sb.String()
}

// preprocess applies all registered transforms in order, then guarantees
// weights exist and normalizes them when norm is set.
func (e *EMD) preprocess(ev *Event) error {
	for _, p := range e.preprocessors {
		if err := p.Apply(ev); err != nil {
			return err
		}
	}
	ev.EnsureWeights()
	if len(ev.Weights) != len(ev.Particles) {
		return &LengthMismatchError{Weights: len(ev.Weights), Particles: len(ev.Particles)}
	}
	if e.opts.norm {
		ev.NormalizeWeights()
	}
	return nil
}

func (e *EMD) writePreprocessors(sb *strings.Builder) {
	sb.WriteString("\n  Preprocessors:\n")
	for _, p := range e.preprocessors {
		fmt.Fprintf(sb, "    - %s\n", p.Description())
	}
}

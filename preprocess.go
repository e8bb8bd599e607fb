package emdgo

import "fmt"

// Preprocessor mutates an event before distance computation.
//
// Preprocessors may keep per-call state, which is why solvers never share
// instances: each owning EMD constructs its own from a PreprocessorFactory.
type Preprocessor interface {
	// Apply transforms the event in place.
	Apply(ev *Event) error

	// Description returns a human-readable summary of the transform.
	Description() string
}

// PreprocessorFactory constructs a fresh Preprocessor instance. Every EMD
// that registers the factory gets its own instance, so stateful transforms
// never alias across worker threads.
type PreprocessorFactory func() Preprocessor

// CenterWeightedCentroid translates particles so the weighted centroid of
// the event sits at the origin.
type CenterWeightedCentroid struct{}

var _ Preprocessor = (*CenterWeightedCentroid)(nil)

// NewCenterWeightedCentroid returns a factory for the centering transform.
func NewCenterWeightedCentroid() PreprocessorFactory {
	return func() Preprocessor { return &CenterWeightedCentroid{} }
}

// Apply shifts every particle by the weighted centroid.
func (c *CenterWeightedCentroid) Apply(ev *Event) error {
	ev.EnsureWeights()
	if len(ev.Particles) == 0 {
		return nil
	}

	dim := len(ev.Particles[0])
	centroid := make([]float64, dim)
	total := ev.TotalWeight()
	if total == 0 {
		return nil
	}

	for i, p := range ev.Particles {
		if len(p) != dim {
			return fmt.Errorf("emdgo: CenterWeightedCentroid: particle %d has dimension %d, expected %d", i, len(p), dim)
		}
		w := ev.Weights[i]
		for d := range p {
			centroid[d] += w * p[d]
		}
	}
	for d := range centroid {
		centroid[d] /= total
	}

	for _, p := range ev.Particles {
		for d := range p {
			p[d] -= centroid[d]
		}
	}
	return nil
}

// Description returns a human-readable summary of the transform.
func (c *CenterWeightedCentroid) Description() string {
	return "CenterWeightedCentroid"
}

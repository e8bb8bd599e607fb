package emdgo

// Event is a weighted point set, the unit of input to one EMD computation.
//
// Weights and Particles always have equal length after preprocessing; a nil
// Weights slice means unit weights, materialized by EnsureWeights. The
// EventWeight is an external scalar multiplier carried alongside the event,
// used by external handlers for weighted reductions.
type Event struct {
	Weights     []float64
	Particles   [][]float64
	EventWeight float64
}

// NewEvent creates an event from particles and optional weights. Passing nil
// weights defers to EnsureWeights. The event weight defaults to 1.
func NewEvent(particles [][]float64, weights []float64) (*Event, error) {
	if weights != nil && len(weights) != len(particles) {
		return nil, &LengthMismatchError{Weights: len(weights), Particles: len(particles)}
	}
	return &Event{
		Weights:     weights,
		Particles:   particles,
		EventWeight: 1,
	}, nil
}

// NewWeightedEvent creates an event carrying an explicit event weight.
func NewWeightedEvent(particles [][]float64, weights []float64, eventWeight float64) (*Event, error) {
	ev, err := NewEvent(particles, weights)
	if err != nil {
		return nil, err
	}
	ev.EventWeight = eventWeight
	return ev, nil
}

// TotalWeight returns the sum of the particle weights.
func (ev *Event) TotalWeight() float64 {
	var total float64
	for _, w := range ev.Weights {
		total += w
	}
	return total
}

// EnsureWeights materializes unit weights when none were provided.
func (ev *Event) EnsureWeights() {
	if ev.Weights != nil {
		return
	}
	ev.Weights = make([]float64, len(ev.Particles))
	for i := range ev.Weights {
		ev.Weights[i] = 1
	}
}

// NormalizeWeights divides every weight by the total weight in place.
func (ev *Event) NormalizeWeights() {
	total := ev.TotalWeight()
	if total == 0 {
		return
	}
	for i := range ev.Weights {
		ev.Weights[i] /= total
	}
}

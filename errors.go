package emdgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/emdgo/transport"
)

var (
	// ErrRequestMode is returned when batch computation is attempted while
	// request mode is enabled.
	ErrRequestMode = errors.New("emdgo: cannot compute pairwise EMDs in request mode")

	// ErrNoEMDsStored is returned when stored distances are requested but
	// an external handler received them instead.
	ErrNoEMDsStored = errors.New("emdgo: no EMDs stored")

	// ErrNoHandler is returned when the external handler is requested but
	// none was set.
	ErrNoHandler = errors.New("emdgo: no external EMD handler set")

	// ErrExternalDists is returned when a PairwiseEMD is built from an EMD
	// configured for externally supplied ground distances.
	ErrExternalDists = errors.New("emdgo: cannot use PairwiseEMD with external distances")
)

// StatusError is the raised form of a non-success solver status.
//
// Low-level Compute calls report plain statuses; only the convenience and
// batch entry points escalate them into a StatusError.
type StatusError struct {
	Status transport.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("emdgo: EMD computation failed, status %s (code %d)", e.Status, int(e.Status))
}

// PairError records one failed pair in a batch computation.
type PairError struct {
	I, J   int
	Status transport.Status
}

func (e *PairError) Error() string {
	return fmt.Sprintf("emdgo: issue with EMD between events (%d, %d), error code %d", e.I, e.J, int(e.Status))
}

// LengthMismatchError indicates weight and particle sequences of unequal
// length.
type LengthMismatchError struct {
	Weights   int
	Particles int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("emdgo: length of weights (%d) does not match particles (%d)", e.Weights, e.Particles)
}

// IndexError indicates a pair or flow index outside the valid range after
// negative-index wraparound was applied.
type IndexError struct {
	I, J   int
	NA, NB int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("emdgo: accessing value at (%d, %d) exceeds allowed range (%d, %d)", e.I, e.J, e.NA, e.NB)
}

// ThreadIndexError indicates a request-mode query against a worker index
// beyond the configured thread count.
type ThreadIndexError struct {
	Thread     int
	NumThreads int
}

func (e *ThreadIndexError) Error() string {
	return fmt.Sprintf("emdgo: invalid thread index %d, have %d threads", e.Thread, e.NumThreads)
}

package emdgo

import (
	"fmt"
	"sync"
)

// Handler consumes EMD values on the fly instead of storing them.
//
// Handle is invoked once per successfully computed pair with the distance and
// the product of the two event weights. Batch workers call Handle
// concurrently, so implementations must be safe for concurrent use.
type Handler interface {
	Handle(emd, weight float64)
	Description() string
}

// WeightedMeanHandler accumulates a running weighted mean of the EMDs it
// receives. Safe for concurrent use.
type WeightedMeanHandler struct {
	mu        sync.Mutex
	sum       float64
	weightSum float64
	count     int64
}

var _ Handler = (*WeightedMeanHandler)(nil)

// NewWeightedMeanHandler creates an empty weighted mean accumulator.
func NewWeightedMeanHandler() *WeightedMeanHandler {
	return &WeightedMeanHandler{}
}

// Handle folds one EMD value into the running mean.
func (h *WeightedMeanHandler) Handle(emd, weight float64) {
	h.mu.Lock()
	h.sum += emd * weight
	h.weightSum += weight
	h.count++
	h.mu.Unlock()
}

// Mean returns the weighted mean of all values seen so far.
func (h *WeightedMeanHandler) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.weightSum == 0 {
		return 0
	}
	return h.sum / h.weightSum
}

// Sum returns the weighted sum of all values seen so far.
func (h *WeightedMeanHandler) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Count returns the number of values seen so far.
func (h *WeightedMeanHandler) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Description returns a human-readable summary of the handler.
func (h *WeightedMeanHandler) Description() string {
	return fmt.Sprintf("  WeightedMeanHandler\n    count - %d\n", h.Count())
}

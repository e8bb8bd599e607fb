package emdgo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/emdgo/transport"
)

// PairwiseEMD computes EMDs between all pairs of events in one or two
// collections, fanning the work out across a fixed pool of workers.
//
// Each worker owns a dedicated EMD instance (with its own transport solver
// and preprocessor instances), so workers never contend except on the
// append-only failure log. Work proceeds in chunks: one parallel region per
// chunk, progress reported and cancellation checked at chunk boundaries.
type PairwiseEMD struct {
	popts   pairwiseOptions
	emdObjs []*EMD

	mu     sync.Mutex
	errs   []*PairError
	failed *roaring64.Bitmap

	events []*Event
	emds   []float64

	nevA, nevB   int
	numPairs     int64
	pairCounter  int64
	storage      StorageMode
	twoEventSets bool
	requestMode  bool

	start           time.Time
	preprocDuration time.Duration
	duration        time.Duration
}

// NewPairwiseEMD creates an orchestrator with one EMD instance per worker.
func NewPairwiseEMD(opts ...PairwiseOption) *PairwiseEMD {
	o := defaultPairwiseOptions()
	for _, fn := range opts {
		fn(&o)
	}

	p := &PairwiseEMD{
		popts:  o,
		failed: roaring64.New(),
	}

	p.emdObjs = make([]*EMD, o.numThreads)
	p.emdObjs[0] = NewEMD(o.emdOpts...)
	for t := 1; t < o.numThreads; t++ {
		p.emdObjs[t] = p.emdObjs[0].clone()
	}

	p.reset(false)
	return p
}

// NewPairwiseEMDFrom creates an orchestrator whose workers are configured
// like the given EMD instance. Externally supplied ground distances cannot
// be batched, so such instances are rejected.
func NewPairwiseEMDFrom(emd *EMD, opts ...PairwiseOption) (*PairwiseEMD, error) {
	if emd.ExternalDists() {
		return nil, ErrExternalDists
	}

	o := defaultPairwiseOptions()
	for _, fn := range opts {
		fn(&o)
	}

	p := &PairwiseEMD{
		popts:  o,
		failed: roaring64.New(),
	}

	p.emdObjs = make([]*EMD, o.numThreads)
	for t := range p.emdObjs {
		p.emdObjs[t] = emd.clone()
	}

	p.reset(false)
	return p, nil
}

// NumThreads returns the resolved worker count.
func (p *PairwiseEMD) NumThreads() int { return p.popts.numThreads }

// R returns the configured length scale.
func (p *PairwiseEMD) R() float64 { return p.emdObjs[0].R() }

// SetR updates the length scale on every worker's solver.
func (p *PairwiseEMD) SetR(r float64) {
	for _, e := range p.emdObjs {
		e.SetR(r)
	}
}

// Beta returns the configured angular exponent.
func (p *PairwiseEMD) Beta() float64 { return p.emdObjs[0].Beta() }

// SetBeta updates the angular exponent on every worker's solver.
func (p *PairwiseEMD) SetBeta(beta float64) {
	for _, e := range p.emdObjs {
		e.SetBeta(beta)
	}
}

// Norm reports whether per-event weight normalization is enabled.
func (p *PairwiseEMD) Norm() bool { return p.emdObjs[0].Norm() }

// SetNorm toggles per-event weight normalization on every worker's solver.
func (p *PairwiseEMD) SetNorm(norm bool) {
	for _, e := range p.emdObjs {
		e.SetNorm(norm)
	}
}

// SetSolverParams forwards transport solver parameters to every worker.
func (p *PairwiseEMD) SetSolverParams(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64) {
	for _, e := range p.emdObjs {
		e.SetSolverParams(maxIter, epsilonLargeFactor, epsilonSmallFactor)
	}
}

// Preprocess registers preprocessor factories on every worker; each worker
// instantiates its own transforms so no mutable state is shared.
func (p *PairwiseEMD) Preprocess(factories ...PreprocessorFactory) *PairwiseEMD {
	for _, e := range p.emdObjs {
		e.Preprocess(factories...)
	}
	return p
}

// SetHandler registers an external handler that consumes computed EMDs
// instead of internal storage.
func (p *PairwiseEMD) SetHandler(h Handler) { p.popts.handler = h }

// HasHandler reports whether an external handler is set.
func (p *PairwiseEMD) HasHandler() bool { return p.popts.handler != nil }

// Handler returns the registered external handler.
func (p *PairwiseEMD) Handler() (Handler, error) {
	if p.popts.handler == nil {
		return nil, ErrNoHandler
	}
	return p.popts.handler, nil
}

// SetRequestMode toggles request mode, where nothing is dispatched or stored
// but individual pairs can be computed on demand via EMD.
func (p *PairwiseEMD) SetRequestMode(mode bool) { p.requestMode = mode }

// RequestMode reports whether request mode is enabled.
func (p *PairwiseEMD) RequestMode() bool { return p.requestMode }

// Storage returns the storage mode of the current batch.
func (p *PairwiseEMD) Storage() StorageMode { return p.storage }

// NevA returns the size of the first event collection.
func (p *PairwiseEMD) NevA() int { return p.nevA }

// NevB returns the size of the second event collection (equal to NevA for
// self-pair batches).
func (p *PairwiseEMD) NevB() int { return p.nevB }

// NumPairs returns the number of unique pairs in the current batch.
func (p *PairwiseEMD) NumPairs() int64 { return p.numPairs }

// Events returns the stored, preprocessed events.
func (p *PairwiseEMD) Events() []*Event { return p.events }

// Duration returns the wall time of the last batch computation.
func (p *PairwiseEMD) Duration() time.Duration { return p.duration }

// Errored reports whether any pair failed in the current batch.
func (p *PairwiseEMD) Errored() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.errs) > 0
}

// Errors returns the recorded per-pair failures in recording order.
func (p *PairwiseEMD) Errors() []*PairError {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*PairError, len(p.errs))
	copy(out, p.errs)
	return out
}

// ErrorMessages returns the formatted failure messages in recording order.
func (p *PairwiseEMD) ErrorMessages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := make([]string, len(p.errs))
	for i, e := range p.errs {
		msgs[i] = e.Error()
	}
	return msgs
}

// FailedPairs returns the flat indices of all failed pairs as a bitmap.
func (p *PairwiseEMD) FailedPairs() *roaring64.Bitmap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed.Clone()
}

// ComputeSelf computes all N(N-1)/2 unordered pairs of one event collection.
// Self distances are defined as exactly zero and never dispatched.
func (p *PairwiseEMD) ComputeSelf(ctx context.Context, events []*Event) error {
	if p.requestMode {
		return ErrRequestMode
	}
	p.init(len(events), len(events), false)
	if err := p.store(events); err != nil {
		return err
	}
	return p.compute(ctx)
}

// ComputeCross computes all Na x Nb ordered pairs between two collections.
func (p *PairwiseEMD) ComputeCross(ctx context.Context, eventsA, eventsB []*Event) error {
	if p.requestMode {
		return ErrRequestMode
	}
	p.init(len(eventsA), len(eventsB), true)
	if err := p.store(eventsA); err != nil {
		return err
	}
	if err := p.store(eventsB); err != nil {
		return err
	}
	return p.compute(ctx)
}

// LoadEvents preprocesses and stores one event collection for request-mode
// queries over self pairs.
func (p *PairwiseEMD) LoadEvents(events []*Event) error {
	p.init(len(events), len(events), false)
	return p.store(events)
}

// LoadEventsCross preprocesses and stores two event collections for
// request-mode queries over cross pairs.
func (p *PairwiseEMD) LoadEventsCross(eventsA, eventsB []*Event) error {
	p.init(len(eventsA), len(eventsB), true)
	if err := p.store(eventsA); err != nil {
		return err
	}
	return p.store(eventsB)
}

// EMDs returns the stored distances of the last batch. With flattened set,
// condensed symmetric storage is returned as is; otherwise a dense NxN view
// is materialized on every call (zero diagonal, both triangles filled).
func (p *PairwiseEMD) EMDs(flattened bool) ([]float64, error) {
	if p.storage == StorageExternal {
		return nil, ErrNoEMDsStored
	}

	if p.storage == StorageFlattenedSymmetric && !flattened {
		n := int64(p.nevA)
		full := make([]float64, n*n)
		for i := int64(0); i < n; i++ {
			for j := i + 1; j < n; j++ {
				v := p.emds[indexSymmetric(i, j, n)]
				full[i*n+j] = v
				full[j*n+i] = v
			}
		}
		return full, nil
	}

	return p.emds, nil
}

// EMD returns the distance between events i and j. Negative indices wrap
// around. In request mode the pair is computed on demand by the worker's
// dedicated solver selected via thread; the caller must not issue concurrent
// queries against the same thread index.
func (p *PairwiseEMD) EMD(i, j, thread int) (float64, error) {
	if i < 0 {
		i += p.nevA
	}
	if j < 0 {
		j += p.nevB
	}
	if i < 0 || j < 0 || i >= p.nevA || j >= p.nevB {
		return 0, &IndexError{I: i, J: j, NA: p.nevA, NB: p.nevB}
	}

	if p.requestMode {
		if thread < 0 || thread >= p.popts.numThreads {
			return 0, &ThreadIndexError{Thread: thread, NumThreads: p.popts.numThreads}
		}

		evA := p.events[i]
		evB := p.events[j]
		if p.twoEventSets {
			evB = p.events[p.nevA+j]
		}

		emdObj := p.emdObjs[thread]
		status, err := emdObj.Compute(evA, evB)
		if err != nil {
			return 0, err
		}
		if status != transport.StatusSuccess {
			return 0, &StatusError{Status: status}
		}
		if p.popts.handler != nil {
			p.popts.handler.Handle(emdObj.Value(), evA.EventWeight*evB.EventWeight)
		}
		return emdObj.Value(), nil
	}

	if p.storage == StorageExternal {
		return 0, ErrNoEMDsStored
	}

	if p.storage == StorageFlattenedSymmetric {
		if i == j {
			return 0, nil
		}
		return p.emds[indexSymmetric(int64(i), int64(j), int64(p.nevA))], nil
	}

	return p.emds[int64(i)*int64(p.nevB)+int64(j)], nil
}

// Clear resets all batch state. With freeMemory set it also drops the event
// and result buffers, the handler and every worker's solver buffers.
func (p *PairwiseEMD) Clear(freeMemory bool) {
	p.reset(freeMemory)
}

// Description returns a human-readable summary of the orchestrator.
func (p *PairwiseEMD) Description() string {
	var sb strings.Builder
	sb.WriteString("Pairwise")
	sb.WriteString(p.emdObjs[0].Description(false))
	fmt.Fprintf(&sb, "\n  num_threads - %d\n  print_every - ", p.popts.numThreads)
	if p.popts.printEvery > 0 {
		fmt.Fprintf(&sb, "%d", p.popts.printEvery)
	} else {
		fmt.Fprintf(&sb, "auto, %d total chunks", -p.popts.printEvery)
	}
	fmt.Fprintf(&sb, "\n  store_sym_emds_flattened - %t\n  fail_fast - %t\n\n", p.popts.storeSymFlattened, p.popts.failFast)
	if p.popts.handler != nil {
		sb.WriteString(p.popts.handler.Description())
	} else {
		sb.WriteString("  Pairwise EMD distance matrix stored internally\n")
	}
	p.emdObjs[0].writePreprocessors(&sb)
	return sb.String()
}

// init starts a new batch: clears previous state, records sizes and selects
// the storage mode.
func (p *PairwiseEMD) init(nevA, nevB int, twoEventSets bool) {
	if !p.requestMode {
		p.reset(false)
	} else {
		p.events = p.events[:0]
	}

	p.nevA = nevA
	p.nevB = nevB
	p.twoEventSets = twoEventSets

	if twoEventSets {
		p.numPairs = int64(nevA) * int64(nevB)
	} else {
		p.numPairs = int64(nevA) * int64(nevA-1) / 2
	}

	p.storage = StorageExternal
	if p.popts.handler == nil && !p.requestMode {
		switch {
		case twoEventSets:
			p.storage = StorageFull
			p.emds = make([]float64, p.numPairs)
		case p.popts.storeSymFlattened:
			p.storage = StorageFlattenedSymmetric
			p.emds = make([]float64, p.numPairs)
		default:
			p.storage = StorageFullSymmetric
			p.emds = make([]float64, int64(nevA)*int64(nevB))
		}
	}

	total := nevA
	if twoEventSets {
		total += nevB
	}
	if cap(p.events) < total {
		p.events = make([]*Event, 0, total)
	}
}

// store preprocesses events through worker 0's pipeline and appends them.
func (p *PairwiseEMD) store(events []*Event) error {
	started := time.Now()
	for _, ev := range events {
		if err := p.emdObjs[0].preprocess(ev); err != nil {
			return err
		}
		p.events = append(p.events, ev)
	}
	p.preprocDuration += time.Since(started)
	return nil
}

// compute dispatches all pairs in chunks, one parallel region per chunk.
func (p *PairwiseEMD) compute(ctx context.Context) error {
	chunk := int64(p.popts.printEvery)
	if chunk < 0 {
		chunks := -chunk
		chunk = p.numPairs / chunks
		if chunk == 0 || p.numPairs%chunks != 0 {
			chunk++
		}
	}
	width := len(strconv.FormatInt(p.numPairs, 10))

	if p.popts.verbose {
		fmt.Fprintf(p.popts.sink, "Finished preprocessing %d events in %.4fs\n",
			len(p.events), p.preprocDuration.Seconds())
	}
	p.popts.logger.Info("starting pairwise computation",
		"pairs", p.numPairs,
		"threads", p.popts.numThreads,
		"storage", p.storage.String(),
	)

	p.start = time.Now()

	for p.pairCounter < p.numPairs {
		// Chunk boundaries are the only cancellation points: failures
		// recorded mid-chunk never abort that same chunk.
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.popts.failFast && p.Errored() {
			break
		}

		begin := p.pairCounter
		end := begin + chunk
		if end > p.numPairs {
			end = p.numPairs
		}
		p.pairCounter = end

		var cursor atomic.Int64
		cursor.Store(begin)
		span := int64(p.popts.dispatchChunkSize)

		g := new(errgroup.Group)
		for t := 0; t < p.popts.numThreads; t++ {
			emdObj := p.emdObjs[t]
			g.Go(func() error {
				for {
					k0 := cursor.Add(span) - span
					if k0 >= end {
						return nil
					}
					k1 := k0 + span
					if k1 > end {
						k1 = end
					}
					for k := k0; k < k1; k++ {
						if err := p.computePair(emdObj, k); err != nil {
							return err
						}
					}
				}
			})
		}
		if err := g.Wait(); err != nil {
			// Usage errors always unwind immediately.
			return err
		}

		p.printUpdate(width)
	}

	p.duration = time.Since(p.start)
	p.popts.logger.LogBatch(p.numPairs, len(p.Errors()), p.duration.Seconds())

	if p.popts.failFast {
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.errs) > 0 {
			return p.errs[0]
		}
	}
	return nil
}

// computePair evaluates the pair with flat index k on the given worker
// solver. Solver statuses are recorded, never returned; the error covers
// usage problems only.
func (p *PairwiseEMD) computePair(emdObj *EMD, k int64) error {
	var i, j int64
	if p.twoEventSets {
		i, j = k/int64(p.nevB), k%int64(p.nevB)
	} else {
		i, j = selfPair(k, int64(p.nevA))
	}

	evA := p.events[i]
	evB := p.events[j]
	if p.twoEventSets {
		evB = p.events[int64(p.nevA)+j]
	}

	status, err := emdObj.Compute(evA, evB)
	if err != nil {
		return err
	}
	if status != transport.StatusSuccess {
		p.recordFailure(status, i, j, k)
	}

	val := emdObj.Value()
	if p.popts.handler != nil {
		if status == transport.StatusSuccess {
			p.popts.handler.Handle(val, evA.EventWeight*evB.EventWeight)
		}
		return nil
	}

	// Failed pairs keep whatever transient value the solver left behind;
	// callers are expected to consult the failure log.
	switch p.storage {
	case StorageFull:
		p.emds[k] = val
	case StorageFlattenedSymmetric:
		p.emds[indexSymmetric(i, j, int64(p.nevA))] = val
	case StorageFullSymmetric:
		p.emds[i*int64(p.nevB)+j] = val
		p.emds[j*int64(p.nevB)+i] = val
	}
	return nil
}

func (p *PairwiseEMD) recordFailure(status transport.Status, i, j, k int64) {
	perr := &PairError{I: int(i), J: int(j), Status: status}
	p.mu.Lock()
	p.errs = append(p.errs, perr)
	p.failed.Add(uint64(k))
	p.mu.Unlock()

	// Emitted immediately regardless of fail-fast configuration.
	p.popts.logger.LogPairFailure(perr)
}

func (p *PairwiseEMD) printUpdate(width int) {
	if !p.popts.verbose {
		return
	}
	pct := float64(p.pairCounter) / float64(p.numPairs) * 100
	fmt.Fprintf(p.popts.sink, "  %*d / %*d EMDs computed  - %6.2f%% completed - %.3fs\n",
		width, p.pairCounter, width, p.numPairs, pct, time.Since(p.start).Seconds())
}

func (p *PairwiseEMD) reset(freeMemory bool) {
	p.events = p.events[:0]
	p.emds = nil
	p.errs = p.errs[:0]
	p.failed.Clear()

	p.storage = StorageExternal
	p.nevA, p.nevB = 0, 0
	p.numPairs, p.pairCounter = 0, 0
	p.preprocDuration = 0
	p.start = time.Now()

	if freeMemory {
		p.popts.handler = nil
		p.events = nil
		p.errs = nil
		for _, e := range p.emdObjs {
			e.Clear()
		}
	}
}

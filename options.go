package emdgo

import (
	"io"
	"os"
	"runtime"

	"github.com/hupe1980/emdgo/metric"
	"github.com/hupe1980/emdgo/transport"
)

type options struct {
	r             float64
	beta          float64
	norm          bool
	doTiming      bool
	externalDists bool

	maxIter        int
	epsLargeFactor float64
	epsSmallFactor float64

	newPairwiseDistance func(r, beta float64) metric.PairwiseDistance
	newSolver           func(maxIter int, epsLarge, epsSmall float64) transport.Solver
}

func defaultOptions() options {
	return options{
		r:              1,
		beta:           1,
		maxIter:        transport.DefaultMaxIter,
		epsLargeFactor: transport.DefaultEpsilonLargeFactor,
		epsSmallFactor: transport.DefaultEpsilonSmallFactor,
		newPairwiseDistance: func(r, beta float64) metric.PairwiseDistance {
			return metric.NewEuclidean(r, beta)
		},
		newSolver: func(maxIter int, epsLarge, epsSmall float64) transport.Solver {
			return transport.NewNetworkFlow(maxIter, epsLarge, epsSmall)
		},
	}
}

// Option configures an EMD solver.
type Option func(*options)

// WithR sets the length scale forwarded to the ground distance provider.
func WithR(r float64) Option {
	return func(o *options) { o.r = r }
}

// WithBeta sets the angular exponent forwarded to the ground distance
// provider.
func WithBeta(beta float64) Option {
	return func(o *options) { o.beta = beta }
}

// WithNorm enables per-event weight normalization. Normalized events always
// have equal total weight, so no fictitious particle is ever added and no
// rescaling is performed.
func WithNorm(norm bool) Option {
	return func(o *options) { o.norm = norm }
}

// WithTiming enables per-call wall time measurement.
func WithTiming(doTiming bool) Option {
	return func(o *options) { o.doTiming = doTiming }
}

// WithExternalDists marks ground distances as caller-supplied: the solver
// skips the pairwise distance provider and uses whatever the caller wrote
// through GroundDists.
func WithExternalDists(external bool) Option {
	return func(o *options) { o.externalDists = external }
}

// WithSolverParams sets the transport solver iteration budget and tolerance
// factors.
func WithSolverParams(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64) Option {
	return func(o *options) {
		o.maxIter = maxIter
		o.epsLargeFactor = epsilonLargeFactor
		o.epsSmallFactor = epsilonSmallFactor
	}
}

// WithPairwiseDistanceFactory replaces the default Euclidean ground distance
// provider. The factory runs once per owning solver instance.
func WithPairwiseDistanceFactory(f func(r, beta float64) metric.PairwiseDistance) Option {
	return func(o *options) {
		if f != nil {
			o.newPairwiseDistance = f
		}
	}
}

// WithSolverFactory replaces the default NetworkFlow transport solver. The
// factory runs once per owning solver instance.
func WithSolverFactory(f func(maxIter int, epsilonLargeFactor, epsilonSmallFactor float64) transport.Solver) Option {
	return func(o *options) {
		if f != nil {
			o.newSolver = f
		}
	}
}

type pairwiseOptions struct {
	emdOpts []Option

	numThreads        int
	printEvery        int
	verbose           bool
	storeSymFlattened bool
	failFast          bool
	dispatchChunkSize int

	sink    io.Writer
	logger  *Logger
	handler Handler
}

func defaultPairwiseOptions() pairwiseOptions {
	return pairwiseOptions{
		numThreads:        runtime.GOMAXPROCS(0),
		printEvery:        -10,
		verbose:           true,
		storeSymFlattened: true,
		dispatchChunkSize: 10,
		sink:              os.Stdout,
		logger:            NoopLogger(),
	}
}

// PairwiseOption configures a PairwiseEMD orchestrator.
type PairwiseOption func(*pairwiseOptions)

// WithEMDOptions forwards solver options to every worker's EMD instance.
func WithEMDOptions(opts ...Option) PairwiseOption {
	return func(o *pairwiseOptions) { o.emdOpts = append(o.emdOpts, opts...) }
}

// WithNumThreads sets the worker count. Nonpositive values resolve to the
// runtime's available parallelism.
func WithNumThreads(n int) PairwiseOption {
	return func(o *pairwiseOptions) {
		if n <= 0 || n > runtime.GOMAXPROCS(0) {
			n = runtime.GOMAXPROCS(0)
		}
		o.numThreads = n
	}
}

// WithPrintEvery controls progress chunking: positive values fix the chunk
// size in pairs, negative values fix the total number of chunks, zero means
// a single chunk.
func WithPrintEvery(printEvery int) PairwiseOption {
	return func(o *pairwiseOptions) {
		if printEvery == 0 {
			printEvery = -1
		}
		o.printEvery = printEvery
	}
}

// WithVerbose toggles progress reporting to the output sink.
func WithVerbose(verbose bool) PairwiseOption {
	return func(o *pairwiseOptions) { o.verbose = verbose }
}

// WithStoreSymFlattened selects condensed upper-triangle storage for
// self-pair batches instead of a mirrored dense matrix.
func WithStoreSymFlattened(flattened bool) PairwiseOption {
	return func(o *pairwiseOptions) { o.storeSymFlattened = flattened }
}

// WithFailFast stops dispatching further chunks once any pair has failed and
// makes the batch call return the earliest recorded failure.
func WithFailFast(failFast bool) PairwiseOption {
	return func(o *pairwiseOptions) { o.failFast = failFast }
}

// WithDispatchChunkSize sets how many flat pair indices a worker claims at a
// time inside a chunk.
func WithDispatchChunkSize(n int) PairwiseOption {
	return func(o *pairwiseOptions) {
		if n < 0 {
			n = -n
		}
		if n == 0 {
			n = 10
		}
		o.dispatchChunkSize = n
	}
}

// WithOutput sets the sink for progress text.
func WithOutput(w io.Writer) PairwiseOption {
	return func(o *pairwiseOptions) {
		if w != nil {
			o.sink = w
		}
	}
}

// WithLogger sets the structured logger. Pass nil to disable logging.
func WithLogger(logger *Logger) PairwiseOption {
	return func(o *pairwiseOptions) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithHandler registers an external handler that consumes every computed
// EMD instead of internal storage.
func WithHandler(h Handler) PairwiseOption {
	return func(o *pairwiseOptions) { o.handler = h }
}

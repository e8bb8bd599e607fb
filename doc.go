// Package emdgo computes the Earth Mover's Distance (EMD) between weighted
// point sets and scales that computation across large collections.
//
// # Single pairs
//
// An EMD solver balances unequal total weights with a fictitious particle,
// rescales the transport problem for numerical conditioning, and interprets
// the transport solver's result:
//
//	ev0, _ := emdgo.NewEvent([][]float64{{0, 0}}, []float64{1})
//	ev1, _ := emdgo.NewEvent([][]float64{{3, 4}}, []float64{2})
//
//	emd := emdgo.NewEMD()
//	d, _ := emd.Distance(ev0, ev1) // 5
//
// # Batches
//
// A PairwiseEMD fans all pairs of a collection out across worker threads,
// each bound to its own solver instance:
//
//	p := emdgo.NewPairwiseEMD(emdgo.WithNumThreads(8))
//	_ = p.ComputeSelf(ctx, events)
//	dists, _ := p.EMDs(false) // dense NxN view
//
// Self-pair batches store the condensed upper triangle by default; an
// external handler can consume distances on the fly instead, and request
// mode computes individual pairs on demand without any storage.
//
// Per-pair solver failures are recorded and queryable, not fatal, unless
// fail-fast is configured. Pairwise matrices can be persisted with the
// persistence and blobstore packages.
package emdgo

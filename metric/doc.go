// Package metric provides ground distance providers for EMD computations.
//
// A PairwiseDistance fills a dense, row-major distance matrix between the
// particles of two events. When the EMD layer has balanced unequal total
// weights by appending a fictitious particle to one side, the provider is
// told which side so it can give that particle a well-defined distance
// (zero for the built-in providers).
package metric

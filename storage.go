package emdgo

import "fmt"

// StorageMode describes where a batch's pairwise distances live. Exactly one
// mode is active per batch; it is selected at batch init and determines which
// accessors are valid.
type StorageMode int

const (
	// StorageExternal means no internal storage: values went to an
	// external handler, or the orchestrator is in request mode.
	StorageExternal StorageMode = iota
	// StorageFull is a dense rectangular matrix (cross-pair batches).
	StorageFull
	// StorageFullSymmetric is a dense mirrored square matrix.
	StorageFullSymmetric
	// StorageFlattenedSymmetric stores only the upper triangle with an
	// implicit zero diagonal (condensed form, scipy squareform layout).
	StorageFlattenedSymmetric
)

func (m StorageMode) String() string {
	switch m {
	case StorageExternal:
		return "External"
	case StorageFull:
		return "Full"
	case StorageFullSymmetric:
		return "FullSymmetric"
	case StorageFlattenedSymmetric:
		return "FlattenedSymmetric"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// selfPair maps a flat counter k in [0, n(n-1)/2) onto the unordered pair
// (i, j) with i < j < n.
//
// The naive row-major triangular order front-loads the long rows, so
// contiguous ranges of k would carry very unequal work. Dividing by n,
// incrementing i and reflecting both coordinates whenever j >= i pairs each
// short row with a long one, keeping work per contiguous k-range comparable.
// The mapping is a bijection.
func selfPair(k, n int64) (i, j int64) {
	i = k / n
	j = k % n
	i++
	if j >= i {
		i = n - i
		j = n - j - 1
	}
	return i, j
}

// indexSymmetric returns the condensed offset of the unordered pair (i, j),
// i != j, in an upper-triangle buffer of an n x n symmetric matrix with
// implicit zero diagonal.
func indexSymmetric(i, j, n int64) int64 {
	if j < i {
		i, j = j, i
	}
	numPairs := n * (n - 1) / 2
	return numPairs - (n-i)*(n-i-1)/2 + j - i - 1
}

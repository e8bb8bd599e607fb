package emdgo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfPairBijection(t *testing.T) {
	for _, n := range []int64{2, 3, 5, 8, 13} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			numPairs := n * (n - 1) / 2
			seen := make(map[[2]int64]int64, numPairs)

			for k := int64(0); k < numPairs; k++ {
				i, j := selfPair(k, n)
				require.NotEqual(t, i, j, "k=%d", k)
				assert.GreaterOrEqual(t, i, int64(0))
				assert.GreaterOrEqual(t, j, int64(0))
				assert.Less(t, i, n)
				assert.Less(t, j, n)

				lo, hi := i, j
				if lo > hi {
					lo, hi = hi, lo
				}
				prev, dup := seen[[2]int64{lo, hi}]
				require.False(t, dup, "pair (%d,%d) produced by both k=%d and k=%d", lo, hi, prev, k)
				seen[[2]int64{lo, hi}] = k
			}

			assert.Equal(t, int(numPairs), len(seen))
		})
	}
}

func TestIndexSymmetricLayout(t *testing.T) {
	// Condensed offsets must enumerate the upper triangle row by row.
	n := int64(5)
	want := int64(0)
	for i := int64(0); i < n; i++ {
		for j := i + 1; j < n; j++ {
			assert.Equal(t, want, indexSymmetric(i, j, n), "(%d,%d)", i, j)
			assert.Equal(t, want, indexSymmetric(j, i, n), "(%d,%d) swapped", j, i)
			want++
		}
	}
	assert.Equal(t, n*(n-1)/2, want)
}

func TestStorageModeString(t *testing.T) {
	assert.Equal(t, "External", StorageExternal.String())
	assert.Equal(t, "Full", StorageFull.String())
	assert.Equal(t, "FullSymmetric", StorageFullSymmetric.String())
	assert.Equal(t, "FlattenedSymmetric", StorageFlattenedSymmetric.String())
}

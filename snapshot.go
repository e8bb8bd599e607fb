package emdgo

import (
	"fmt"

	"github.com/hupe1980/emdgo/persistence"
)

// Snapshot captures the stored distances of the last batch for persistence.
// Batches that route values to an external handler have nothing to snapshot.
func (p *PairwiseEMD) Snapshot() (*persistence.Snapshot, error) {
	if p.storage == StorageExternal {
		return nil, ErrNoEMDsStored
	}

	values := make([]float64, len(p.emds))
	copy(values, p.emds)

	return &persistence.Snapshot{
		Mode:   uint8(p.storage),
		NumA:   uint32(p.nevA),
		NumB:   uint32(p.nevB),
		Values: values,
	}, nil
}

// RestoreSnapshot loads previously persisted distances into the orchestrator
// so the matrix accessors (EMDs, EMD) serve them without recomputation.
// Request-mode queries still require events to be loaded separately.
func (p *PairwiseEMD) RestoreSnapshot(snap *persistence.Snapshot) error {
	mode := StorageMode(snap.Mode)
	nevA := int64(snap.NumA)
	nevB := int64(snap.NumB)

	var want int64
	switch mode {
	case StorageFull:
		want = nevA * nevB
	case StorageFullSymmetric:
		want = nevA * nevB
	case StorageFlattenedSymmetric:
		want = nevA * (nevA - 1) / 2
	default:
		return fmt.Errorf("emdgo: cannot restore snapshot with storage mode %s", mode)
	}
	if int64(len(snap.Values)) != want {
		return fmt.Errorf("emdgo: snapshot has %d values, %s storage with %d x %d events needs %d",
			len(snap.Values), mode, snap.NumA, snap.NumB, want)
	}

	p.reset(false)
	p.storage = mode
	p.nevA = int(snap.NumA)
	p.nevB = int(snap.NumB)
	p.twoEventSets = mode == StorageFull
	if p.twoEventSets {
		p.numPairs = nevA * nevB
	} else {
		p.numPairs = nevA * (nevA - 1) / 2
	}
	p.pairCounter = p.numPairs

	p.emds = make([]float64, len(snap.Values))
	copy(p.emds, snap.Values)
	return nil
}

package prune

import (
	"fmt"
	"sort"
	"time"

	"github.com/zeebo/blake3"

	"github.com/darkfi-go/eventgraph/internal/types"
)

// Fingerprint computes the deterministic payload for a rotated genesis
// event: a BLAKE3 digest over the sorted tip-id set, so every peer
// performing the rotation independently computes the same new genesis
// id without negotiation (spec.md §4.6b).
func Fingerprint(tips []types.ID) []byte {
	sorted := append([]types.ID(nil), tips...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	h := blake3.New()
	for _, id := range sorted {
		h.Write(id[:])
	}
	return h.Sum(nil)
}

// RotationResult reports the new genesis and what was deleted.
type RotationResult struct {
	NewGenesis types.Event
	Deleted    []types.ID
}

// RunGenesisRotation implements §4.6b: synthesize a new genesis event
// whose payload fingerprints the current tip set and whose timestamp is
// the schedule instant, reset the tip set to {new-genesis}, and delete
// every event unreachable from it. scheduledAt should be the exact
// scheduled instant (not time.Now()) so every peer's fingerprint input
// — and therefore the new genesis id — matches bit-for-bit.
func (p *Pruner) RunGenesisRotation(scheduledAt time.Time) (RotationResult, error) {
	tips := p.tips.Tips()
	fp := Fingerprint(tips)

	newGenesis := types.Event{
		Parents:   nil,
		Payload:   fp,
		Timestamp: scheduledAt.UnixMilli(),
		Layer:     0,
	}
	newID := newGenesis.ID()

	allIDs, err := p.store.ScanFromLayer(0)
	if err != nil {
		return RotationResult{}, fmt.Errorf("prune: rotation scan: %w", err)
	}

	if p.config.DryRun {
		return RotationResult{NewGenesis: newGenesis, Deleted: allIDs}, nil
	}

	if err := p.store.Put(newGenesis); err != nil {
		return RotationResult{}, fmt.Errorf("prune: put new genesis: %w", err)
	}
	if err := p.store.SetGenesis(newID); err != nil {
		return RotationResult{}, fmt.Errorf("prune: set genesis pointer: %w", err)
	}

	var deleted []types.ID
	for _, id := range allIDs {
		if id == newID {
			continue
		}
		deleted = append(deleted, id)
	}
	if err := p.store.DeleteBatch(deleted); err != nil {
		return RotationResult{}, fmt.Errorf("prune: delete pre-rotation events: %w", err)
	}

	p.tips.Reset(newID)

	return RotationResult{NewGenesis: newGenesis, Deleted: deleted}, nil
}

// CheckRotationConsistency implements the crash-recovery check of
// spec.md §4.6b: if a peer crashed mid-rotation, the genesis pointer
// may have already advanced while pre-rotation events remain in the
// store. This detects that and completes the deletion pass before new
// events are accepted.
func (p *Pruner) CheckRotationConsistency() (RotationResult, error) {
	genesis, err := p.store.Genesis()
	if err != nil {
		return RotationResult{}, fmt.Errorf("prune: consistency check genesis: %w", err)
	}
	genesisEvent, ok, err := p.store.Get(genesis)
	if err != nil {
		return RotationResult{}, fmt.Errorf("prune: consistency check get genesis: %w", err)
	}
	if !ok || len(genesisEvent.Parents) != 0 {
		// genesis isn't a rotation root (no parents); nothing to repair.
		return RotationResult{}, nil
	}

	allIDs, err := p.store.ScanFromLayer(0)
	if err != nil {
		return RotationResult{}, fmt.Errorf("prune: consistency scan: %w", err)
	}

	var stale []types.ID
	for _, id := range allIDs {
		if id == genesis {
			continue
		}
		stale = append(stale, id)
	}
	if len(stale) == 0 {
		return RotationResult{}, nil
	}

	if err := p.store.DeleteBatch(stale); err != nil {
		return RotationResult{}, fmt.Errorf("prune: consistency delete: %w", err)
	}
	for _, id := range stale {
		p.tips.OnPrune(id)
	}
	p.tips.Reset(genesis)

	return RotationResult{NewGenesis: genesisEvent, Deleted: stale}, nil
}

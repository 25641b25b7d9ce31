// Package prune implements C6: the two bounded-history mechanisms of
// spec.md §4.6 — sliding-window layer-floor pruning and scheduled
// genesis rotation. The Config/New/dry-run/eligibility shape is
// grounded on the teacher's internal/compact.Compactor (CompactConfig,
// New, CheckEligibility-gated CompactTier1), generalized from an
// LLM-backed issue-body compactor to a DAG event-retention compactor —
// the eligibility check and dry-run semantics carry over, the body
// (which used a Haiku client) does not.
package prune

import (
	"context"
	"fmt"
	"time"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/store"
	"github.com/darkfi-go/eventgraph/internal/tipset"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

const defaultConcurrency = 1

// PruneConfig configures one Pruner. DryRun makes RunLayerFloor report
// what it would delete without deleting anything; the rotation
// functions do not read it.
type PruneConfig struct {
	RetainLayers     uint64
	RotationSchedule config.RotationSchedule
	Concurrency      int
	DryRun           bool
}

// Pruner owns both bounded-history mechanisms against one store+tipset
// pair. It holds no lock of its own: callers must serialize Pruner
// calls with the rest of the admission critical section the same way
// the validator is serialized (spec.md §5).
type Pruner struct {
	store  store.Store
	tips   *tipset.Set
	config *PruneConfig
}

// New constructs a Pruner. A nil cfg defaults to defaultConcurrency and
// RetainLayers=0 (i.e. caller must supply a real PruneConfig in
// practice; the zero-value default exists only so New never panics).
func New(s store.Store, tips *tipset.Set, cfg *PruneConfig) *Pruner {
	if cfg == nil {
		cfg = &PruneConfig{Concurrency: defaultConcurrency}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Pruner{store: s, tips: tips, config: cfg}
}

// SetRetainLayers updates the sliding-window size used by the next
// RunLayerFloor pass. Safe to call while the Pruner is otherwise idle;
// callers still own the admission-critical-section serialization
// documented on Pruner.
func (p *Pruner) SetRetainLayers(n uint64) {
	p.config.RetainLayers = n
}

// Result reports the outcome of one layer-floor pruning pass.
type Result struct {
	Floor   uint64
	Deleted []types.ID
}

// RunLayerFloor implements §4.6a: compute floor = max_layer -
// RetainLayers, delete every event with layer < floor from the store,
// order index, and tip-set child-count map. This repo's chosen policy
// is ImplicitGenesisBelowFloor (see DESIGN.md): events are not
// rewritten to reference genesis directly. This pass only deletes;
// internal/validator special-cases the genesis id itself and nothing
// else, so an event arriving later whose parent was pruned here is
// staged as an orphan rather than treated as a child of genesis.
func (p *Pruner) RunLayerFloor(ctx context.Context) (Result, error) {
	maxLayer, err := p.maxLayer()
	if err != nil {
		return Result{}, fmt.Errorf("prune: compute max layer: %w", err)
	}
	if maxLayer < p.config.RetainLayers {
		return Result{Floor: 0}, nil
	}
	floor := maxLayer - p.config.RetainLayers

	ids, err := p.store.ScanFromLayer(0)
	if err != nil {
		return Result{}, fmt.Errorf("prune: scan: %w", err)
	}

	genesis, err := p.store.Genesis()
	if err != nil && err != xerrors.ErrNotFound {
		return Result{}, fmt.Errorf("prune: genesis: %w", err)
	}

	var toDelete []types.ID
	for _, id := range ids {
		if id == genesis {
			continue
		}
		ev, ok, err := p.store.Get(id)
		if err != nil {
			return Result{}, fmt.Errorf("prune: get %s: %w", id, err)
		}
		if ok && ev.Layer < floor {
			toDelete = append(toDelete, id)
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
	}

	if p.config.DryRun {
		return Result{Floor: floor, Deleted: toDelete}, nil
	}

	if err := p.store.DeleteBatch(toDelete); err != nil {
		return Result{}, fmt.Errorf("prune: delete batch: %w", err)
	}
	for _, id := range toDelete {
		p.tips.OnPrune(id)
	}

	return Result{Floor: floor, Deleted: toDelete}, nil
}

func (p *Pruner) maxLayer() (uint64, error) {
	ids, err := p.store.ScanFromLayer(0)
	if err != nil {
		return 0, err
	}
	var max uint64
	for _, id := range ids {
		ev, ok, err := p.store.Get(id)
		if err != nil {
			return 0, err
		}
		if ok && ev.Layer > max {
			max = ev.Layer
		}
	}
	return max, nil
}

// NextRotation computes the next instant RunGenesisRotation should fire
// for a daily-UTC schedule, relative to now.
func NextRotation(schedule config.RotationSchedule, now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), schedule.AtHour, schedule.AtMinute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

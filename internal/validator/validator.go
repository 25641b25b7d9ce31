// Package validator implements C4, the admission pipeline: an ordered
// sequence of named checks run against every inbound event before it is
// allowed into the store. The pipeline shape — ordered rules, each
// producing a named, typed result, short-circuiting on the first
// failure — is grounded on the teacher's internal/gate package
// (Gate/GateResult/CheckResponse), generalized from session hook gates
// to DAG admission rules.
package validator

import (
	"fmt"
	"time"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/store"
	"github.com/darkfi-go/eventgraph/internal/tipset"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// Outcome classifies the result of running Admit on one event, matching
// the state machine of spec.md §4.4: Received -> (parent check) ->
// Orphan | Validating -> Invalid | Admitted.
type Outcome int

const (
	// Admitted means e passed every rule and was written to the store,
	// tip set updated.
	Admitted Outcome = iota
	// Duplicate means id(e) was already stored; a no-op, not an error.
	Duplicate
	// Orphaned means one or more parents are unknown; e is staged and a
	// parent fetch should be scheduled by the caller (C5).
	Orphaned
	// Invalid means e failed a validation rule other than parent
	// presence; err on the Result describes which.
	Invalid
)

// Result is the outcome of one Admit call.
type Result struct {
	Outcome Outcome
	Err     error // non-nil iff Outcome == Invalid
}

// Fetcher is a seam for callers that drive orphan resolution themselves
// (Validator has no sync-engine dependency). Nothing in Validator calls
// it, the orphan sweep included.
type Fetcher interface {
	// MissingParents reports which of parents are absent from the
	// store, so C5 knows what to request.
	MissingParents(parents []types.ID) ([]types.ID, error)
}

// Validator runs the §4.4 admission pipeline and owns the orphan
// staging area of §4.4 rule 3.
type Validator struct {
	cfg   config.Config
	store store.Store
	tips  *tipset.Set
	now   func() time.Time

	orphans *orphanStage
}

// New constructs a Validator. now defaults to time.Now if nil, letting
// tests inject a deterministic clock for the future-timestamp rule.
func New(cfg config.Config, s store.Store, tips *tipset.Set, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		cfg:     cfg,
		store:   s,
		tips:    tips,
		now:     now,
		orphans: newOrphanStage(cfg.OrphanTTL, cfg.OrphanMaxDepth),
	}
}

// Admit runs the ordered rule pipeline of spec.md §4.4 against e. On
// Admitted, e has already been written to the store and the tip set
// updated — callers still need to run their own publish step.
func (v *Validator) Admit(e types.Event) Result {
	id := e.ID()

	has, err := v.store.Has(id)
	if err != nil {
		return Result{Outcome: Invalid, Err: fmt.Errorf("validator: %w", err)}
	}
	if has {
		return Result{Outcome: Duplicate}
	}

	genesis, err := v.store.Genesis()
	if err != nil && err != xerrors.ErrNotFound {
		return Result{Outcome: Invalid, Err: fmt.Errorf("validator: %w", err)}
	}
	isGenesisEvent := err == xerrors.ErrNotFound && len(e.Parents) == 0

	if !isGenesisEvent {
		if res := ruleParentCount(v.cfg, e); res.Outcome != Admitted {
			return res
		}

		missing, rerr := v.missingParents(e.Parents, genesis)
		if rerr != nil {
			return Result{Outcome: Invalid, Err: fmt.Errorf("validator: %w", rerr)}
		}
		if len(missing) > 0 {
			v.orphans.stage(e, missing, v.now())
			return Result{Outcome: Orphaned}
		}

		if res := v.ruleLayer(e, genesis); res.Outcome != Admitted {
			return res
		}
	}

	if res := ruleOversizePayload(v.cfg, e); res.Outcome != Admitted {
		return res
	}
	if res := v.ruleFutureTimestamp(e); res.Outcome != Admitted {
		return res
	}

	if err := v.store.Put(e); err != nil {
		return Result{Outcome: Invalid, Err: fmt.Errorf("validator: put: %w", err)}
	}
	v.tips.OnInsert(id, e.Parents)
	v.orphans.resolved(id)

	return Result{Outcome: Admitted}
}

// missingParents returns the subset of parents that are neither the
// genesis id nor present in the store.
func (v *Validator) missingParents(parents []types.ID, genesis types.ID) ([]types.ID, error) {
	var missing []types.ID
	for _, p := range parents {
		if p == genesis {
			continue
		}
		has, err := v.store.Has(p)
		if err != nil {
			return nil, err
		}
		if !has {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

// SweepOrphans evicts orphans past ORPHAN_TTL or ORPHAN_MAX_DEPTH,
// returning the ids dropped with xerrors.ErrUnresolvableOrphan. Callers
// should invoke this periodically (e.g. alongside the pruner tick).
func (v *Validator) SweepOrphans() []types.ID {
	return v.orphans.sweep(v.now())
}

// RetryOrphans re-attempts Admit for every staged orphan, incrementing
// each one's lookup depth first. Returns the results for events that
// were retried.
func (v *Validator) RetryOrphans() map[types.ID]Result {
	ids := v.orphans.candidates()
	out := make(map[types.ID]Result, len(ids))
	for _, id := range ids {
		e, ok := v.orphans.event(id)
		if !ok {
			continue
		}
		v.orphans.bumpDepth(id)
		out[id] = v.Admit(e)
	}
	return out
}

package validator

import (
	"fmt"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// ruleParentCount is §4.4 rule 2: 0 < |parents| <= NParents.
func ruleParentCount(cfg config.Config, e types.Event) Result {
	n := len(e.Parents)
	if n == 0 || n > cfg.NParents {
		return Result{Outcome: Invalid, Err: fmt.Errorf(
			"validator: %d parents (want 1..%d): %w", n, cfg.NParents, xerrors.ErrBadParentCount)}
	}
	return Result{Outcome: Admitted}
}

// ruleLayer is §4.4 rule 4: asserted layer must equal 1 + max(parent
// layers). The genesis id counts as layer 0 even when it predates the
// lookup (it may have been pruned below the floor).
func (v *Validator) ruleLayer(e types.Event, genesis types.ID) Result {
	var maxLayer uint64
	for _, p := range e.Parents {
		if p == genesis {
			continue
		}
		parent, ok, err := v.store.Get(p)
		if err != nil {
			return Result{Outcome: Invalid, Err: fmt.Errorf("validator: layer check: %w", err)}
		}
		if !ok {
			// Already resolved as present by missingParents; absence
			// here would mean a race against a concurrent prune.
			return Result{Outcome: Invalid, Err: fmt.Errorf(
				"validator: parent %s vanished during layer check: %w", p, xerrors.ErrMissingParent)}
		}
		if parent.Layer > maxLayer {
			maxLayer = parent.Layer
		}
	}
	if e.Layer != maxLayer+1 {
		return Result{Outcome: Invalid, Err: fmt.Errorf(
			"validator: asserted layer %d, want %d: %w", e.Layer, maxLayer+1, xerrors.ErrBadLayer)}
	}
	return Result{Outcome: Admitted}
}

// ruleOversizePayload is §4.4 rule 5.
func ruleOversizePayload(cfg config.Config, e types.Event) Result {
	if len(e.Payload) > cfg.PayloadMax {
		return Result{Outcome: Invalid, Err: fmt.Errorf(
			"validator: payload %d bytes exceeds max %d: %w", len(e.Payload), cfg.PayloadMax, xerrors.ErrOversizePayload)}
	}
	return Result{Outcome: Admitted}
}

// ruleFutureTimestamp is §4.4 rule 6. Advisory only: it must never
// change ordering, only admission — per spec.md's explicit note that
// this rule bounds an adversary's influence on client-side timestamp
// correction.
func (v *Validator) ruleFutureTimestamp(e types.Event) Result {
	now := v.now()
	limit := now.Add(v.cfg.TSDrift).UnixMilli()
	if e.Timestamp > limit {
		return Result{Outcome: Invalid, Err: fmt.Errorf(
			"validator: timestamp %d exceeds drift-adjusted limit %d: %w", e.Timestamp, limit, xerrors.ErrFutureTimestamp)}
	}
	return Result{Outcome: Admitted}
}

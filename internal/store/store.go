// Package store defines the Event Graph's persistence contract (C2, §4.2):
// an ordered keyed byte store holding events, an order index for
// layer-ordered scans, and a single genesis pointer. Concrete backends
// live in subpackages (boltstore, memstore, sqlstore); this package only
// defines the interface and the §6.4 key-range convention so backends
// stay interchangeable.
package store

import (
	"fmt"

	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// Key range prefixes, per spec.md §6.4. Backends that expose a flat
// byte-keyed namespace (boltstore's "evt"/"ord"/"meta" buckets are the
// structured equivalent) use these as literal key prefixes.
const (
	PrefixEvent = "evt/"
	PrefixOrder = "ord/"
	KeyGenesis  = "meta/genesis"
)

// Store is the C2 contract. All methods are safe for concurrent readers;
// writers (Put, SetGenesis, DeleteBatch) must be externally serialized by
// a single writer lock per spec.md §5 — Store implementations do not lock
// internally beyond what's needed for their own consistency, since the
// Event Graph facade already holds one logical write mutex across
// store+tipset admission.
type Store interface {
	// Put inserts e keyed by its own id, along with the matching
	// order-index entry, atomically. Put is idempotent: inserting an
	// already-stored id is a silent no-op (dedup is the Validator's
	// concern, not the store's, but the store must never corrupt state
	// if asked to store something twice).
	Put(e types.Event) error

	// Get returns the event for id, or ok=false if absent.
	Get(id types.ID) (e types.Event, ok bool, err error)

	// Has reports whether id is stored, without paying for a full
	// decode.
	Has(id types.ID) (bool, error)

	// ScanFromLayer returns every stored event-id at layer >= L, in
	// ascending (layer, id) order, for backfill responses and pruning
	// (§4.2).
	ScanFromLayer(layer uint64) ([]types.ID, error)

	// DeleteBatch atomically removes the given ids from both the main
	// map and the order index (§4.6a pruning).
	DeleteBatch(ids []types.ID) error

	// SetGenesis updates the well-known genesis pointer (§3.2, §4.6b).
	SetGenesis(id types.ID) error

	// Genesis returns the current genesis id. Returns
	// xerrors.ErrNotFound if no genesis has been set yet (a brand-new,
	// empty store).
	Genesis() (types.ID, error)
}

// LayerLookup adapts a Store to types.ParentLookup, used by types.New
// when authoring a new event.
type LayerLookup struct {
	Store Store
}

func (l LayerLookup) LayerOf(id types.ID) (uint64, bool) {
	e, ok, err := l.Store.Get(id)
	if err != nil || !ok {
		return 0, false
	}
	return e.Layer, true
}

// CheckIntegrity verifies that every parent of every stored non-genesis
// event is either stored or is the genesis id itself. floorLayer only
// appears in the error message: a parent pruned below the floor is
// reported like any other missing parent, since its layer can no longer
// be looked up. Returns
// xerrors.ErrStorageCorrupt on the first violation found, matching
// spec.md §4.2's "typed error rather than auto-repair" contract — repair
// is the pruner's job (internal/prune), not the store's.
func CheckIntegrity(s Store, genesis types.ID, floorLayer uint64) error {
	ids, err := s.ScanFromLayer(0)
	if err != nil {
		return fmt.Errorf("store: scan for integrity check: %w", err)
	}
	for _, id := range ids {
		e, ok, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("store: get %s during integrity check: %w", id, err)
		}
		if !ok || id == genesis {
			continue
		}
		for _, p := range e.Parents {
			if p == genesis {
				continue
			}
			has, err := s.Has(p)
			if err != nil {
				return fmt.Errorf("store: has %s during integrity check: %w", p, err)
			}
			if has {
				continue
			}
			parent, ok, err := s.Get(p)
			_ = parent
			if err == nil && ok {
				continue
			}
			return fmt.Errorf("store: event %s references missing parent %s above floor %d: %w",
				id, p, floorLayer, xerrors.ErrStorageCorrupt)
		}
	}
	return nil
}

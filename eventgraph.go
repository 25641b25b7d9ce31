// Package eventgraph is the public API of a gossip-replicated,
// causally-ordered, tamper-evident event store for P2P messaging.
//
// Graph wires the six internal components together: Event (C1), DAG
// Store (C2), Tip Set (C3), Validator (C4), Sync Engine (C5), and
// Pruner/Rotator (C6). Most callers only need author, SubscribeAdmitted,
// Get, Tips, and the operational signals; the internal/* packages are
// exported only to each other.
//
// Modeled on the teacher's root beads.go: a thin facade re-exporting
// the handful of constructors and types an embedder actually needs,
// not a dumping ground for every internal type.
package eventgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/metrics"
	"github.com/darkfi-go/eventgraph/internal/prune"
	"github.com/darkfi-go/eventgraph/internal/publisher"
	"github.com/darkfi-go/eventgraph/internal/store"
	"github.com/darkfi-go/eventgraph/internal/syncengine"
	"github.com/darkfi-go/eventgraph/internal/tipset"
	"github.com/darkfi-go/eventgraph/internal/transport"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/validator"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// PruneResult and RotationResult re-export the pruner's result types
// for callers (the CLI) that don't need to import internal/prune.
type (
	PruneResult    = prune.Result
	RotationResult = prune.RotationResult
)

// Re-exported core types, so embedders don't need to import internal/types directly.
type (
	Event = types.Event
	ID    = types.ID
)

// Config is the Event Graph's tunable set (spec.md §5, §9).
type Config = config.Config

// DefaultConfig returns the recommended tunables.
func DefaultConfig() Config { return config.Default() }

// Graph is one node's view of the Event Graph: its store, tip set,
// validator, sync engine, and publisher, wired together behind the
// single logical write mutex spec.md §5 requires across admission.
type Graph struct {
	cfg   Config
	store store.Store
	tips  *tipset.Set
	val   *validator.Validator
	pub   *publisher.Publisher
	sync  *syncengine.Engine
	prune *prune.Pruner

	mu sync.Mutex
}

// Open constructs a Graph over an already-open store.Store and
// transport.Transport. If the store has no genesis yet, a fresh
// genesis event (empty parents, empty payload, timestamp=now) is
// authored and set.
func Open(cfg Config, s store.Store, tr transport.Transport) (*Graph, error) {
	tips := tipset.New()

	genesis, err := s.Genesis()
	switch {
	case err == nil:
		// Existing store: rebuild the tip set by replaying every stored
		// event's parent links. Child counts live only in memory, so
		// they are rebuilt from scratch here.
		tips.Reset(genesis)
		ids, scanErr := s.ScanFromLayer(0)
		if scanErr != nil {
			return nil, fmt.Errorf("eventgraph: replay tip set: %w", scanErr)
		}
		for _, id := range ids {
			if id == genesis {
				continue
			}
			ev, ok, getErr := s.Get(id)
			if getErr != nil {
				return nil, fmt.Errorf("eventgraph: replay tip set: %w", getErr)
			}
			if ok {
				tips.OnInsert(id, ev.Parents)
			}
		}
	case errors.Is(err, xerrors.ErrNotFound):
		g := types.Event{Timestamp: time.Now().UnixMilli(), Layer: 0}
		if err := s.Put(g); err != nil {
			return nil, fmt.Errorf("eventgraph: seed genesis: %w", err)
		}
		if err := s.SetGenesis(g.ID()); err != nil {
			return nil, fmt.Errorf("eventgraph: set genesis: %w", err)
		}
		tips.Reset(g.ID())
	default:
		return nil, fmt.Errorf("eventgraph: genesis lookup: %w", err)
	}

	val := validator.New(cfg, s, tips, time.Now)
	pub := publisher.New(256)

	// g is constructed before its sync engine so &g.mu — the single
	// logical write mutex spec.md §5 requires across admission — is a
	// stable address the engine can share, instead of each admitting
	// goroutine (Author, RunJoin's applyReady, inbound gossip dispatch)
	// serializing against a different lock.
	g := &Graph{cfg: cfg, store: s, tips: tips, val: val, pub: pub}
	g.sync = syncengine.New(cfg, s, tips, val, pub, tr, &g.mu)
	g.prune = prune.New(s, tips, &prune.PruneConfig{
		RetainLayers:     cfg.RetainLayers,
		RotationSchedule: cfg.RotationSchedule,
	})

	return g, nil
}

// Run starts the sync engine's background loops. Blocks until ctx is
// canceled.
func (g *Graph) Run(ctx context.Context) error {
	return g.sync.Run(ctx)
}

// JoinOnce runs one join/catch-up attempt against currently connected
// peers — the `sync` operator command, for triggering a catch-up
// outside the automatic MIN_PEERS-crossing trigger.
func (g *Graph) JoinOnce(ctx context.Context) error {
	return g.sync.RunJoin(ctx)
}

// Author creates a new event extending the current tips with payload,
// admits it locally, and broadcasts it to peers — the `author()`
// operation of spec.md §6.2.
func (g *Graph) Author(ctx context.Context, payload []byte) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	genesis, err := g.store.Genesis()
	if err != nil {
		return ID{}, fmt.Errorf("eventgraph: author: %w", err)
	}

	parents := g.tips.SelectParents(g.cfg.NParents, store.LayerLookup{Store: g.store}.LayerOf)
	if len(parents) == 0 {
		parents = []ID{genesis}
	}

	ev, err := types.New(parents, payload, time.Now().UnixMilli(), genesis, store.LayerLookup{Store: g.store})
	if err != nil {
		return ID{}, fmt.Errorf("eventgraph: author: %w", err)
	}

	res := g.val.Admit(ev)
	if res.Outcome != validator.Admitted {
		return ID{}, fmt.Errorf("eventgraph: author: admission rejected own event: %v", res.Err)
	}
	g.pub.Publish(ev)

	if err := g.sync.BroadcastNew(ctx, ev); err != nil {
		return ev.ID(), fmt.Errorf("eventgraph: author: broadcast: %w", err)
	}
	return ev.ID(), nil
}

// Get returns the event for id, or ok=false if not stored.
func (g *Graph) Get(id ID) (Event, bool, error) {
	return g.store.Get(id)
}

// Tips returns a snapshot of the current tip ids — the diagnostic
// `tips()` operation of spec.md §6.2.
func (g *Graph) Tips() []ID {
	return g.tips.Tips()
}

// Subscriber is a handle to a subscribe_admitted() stream.
type Subscriber = publisher.Subscriber

// SubscribeAdmitted registers a new subscriber that receives each
// admitted event at most once, in admission order; if the subscriber's
// buffer is full when an event is published, it misses that event.
// Gossip echoes of an already-seen id are filtered upstream by the
// validator's dedup check, not here; a consumer that also needs to
// recognize its own previously-authored events (e.g. to suppress
// timestamp correction) can layer internal/seenset.Seen over this
// channel itself (§3.4) — it's implemented and tested but deliberately
// not wired in here, since that dedup policy is the consumer's call.
func (g *Graph) SubscribeAdmitted() *Subscriber {
	return g.pub.Subscribe()
}

// Unsubscribe removes a subscriber registered via SubscribeAdmitted.
func (g *Graph) Unsubscribe(s *Subscriber) {
	g.pub.Unsubscribe(s)
}

// SyncStatus, PeerCount, and DAGSynced are the three operational
// signals of spec.md §6.2.
func (g *Graph) SyncStatus() string { return g.sync.Status().String() }
func (g *Graph) PeerCount() int     { return g.sync.PeerCount() }
func (g *Graph) DAGSynced() bool    { return g.sync.DAGSynced() }

// SyncStatusString satisfies metrics.StatusProvider.
func (g *Graph) SyncStatusString() string { return g.SyncStatus() }

// SetRecorder wires admission-latency recording into the graph's sync
// engine — callers register it alongside metrics.New's gauges.
func (g *Graph) SetRecorder(r *metrics.Recorder) {
	g.sync.SetRecorder(r)
}

// Genesis returns the current genesis event id.
func (g *Graph) Genesis() (ID, error) {
	return g.store.Genesis()
}

// Prune runs one layer-floor pruning pass (§4.6a).
func (g *Graph) Prune(ctx context.Context) (PruneResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prune.RunLayerFloor(ctx)
}

// RunPruneLoop runs layer-floor pruning on cfg.PruneInterval until ctx
// is canceled. Intended to run as a background goroutine alongside Run.
func (g *Graph) RunPruneLoop(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := g.Prune(ctx); err != nil {
				continue
			}
		}
	}
}

// RotateGenesis forces an immediate genesis rotation (§4.6b), regardless
// of the configured schedule — the `rotate --now` operator escape
// hatch. On a real (non-dry-run) rotation it also authors and
// broadcasts a local event extending the new genesis, per §4.6b's "the
// tip set is reset to {new-genesis} and a local event is authored
// extending it".
func (g *Graph) RotateGenesis(scheduledAt time.Time) (RotationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := g.prune.RunGenesisRotation(scheduledAt)
	if err != nil {
		return res, err
	}

	newID := res.NewGenesis.ID()
	tips := g.tips.Tips()
	if len(tips) != 1 || tips[0] != newID {
		// Dry run: the store/tipset were never actually rotated, so
		// there is nothing yet to extend.
		return res, nil
	}

	ev, err := types.New([]ID{newID}, nil, scheduledAt.UnixMilli(), newID, store.LayerLookup{Store: g.store})
	if err != nil {
		return res, fmt.Errorf("eventgraph: rotate genesis: extend: %w", err)
	}
	admitRes := g.val.Admit(ev)
	if admitRes.Outcome != validator.Admitted {
		return res, fmt.Errorf("eventgraph: rotate genesis: extending event rejected: %v", admitRes.Err)
	}
	g.pub.Publish(ev)
	if err := g.sync.BroadcastNew(context.Background(), ev); err != nil {
		return res, fmt.Errorf("eventgraph: rotate genesis: broadcast extension: %w", err)
	}

	return res, nil
}

// NextRotation reports when the next scheduled genesis rotation will run.
func (g *Graph) NextRotation(now time.Time) time.Time {
	return prune.NextRotation(g.cfg.RotationSchedule, now)
}

// SetRetainLayers updates the layer-floor pruning window live, for the
// config hot-reload path (config.WatchSafeTunables). PruneInterval is
// deliberately not hot-reloadable here since RunPruneLoop's ticker is
// already running; changing it takes a restart.
func (g *Graph) SetRetainLayers(n uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune.SetRetainLayers(n)
}

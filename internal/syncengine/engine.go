package syncengine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/metrics"
	"github.com/darkfi-go/eventgraph/internal/publisher"
	"github.com/darkfi-go/eventgraph/internal/store"
	"github.com/darkfi-go/eventgraph/internal/tipset"
	"github.com/darkfi-go/eventgraph/internal/transport"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/validator"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// Engine drives C5: the join/catch-up algorithm, inbound gossip
// handling, and outbound broadcast of locally admitted events.
type Engine struct {
	cfg       config.Config
	store     store.Store
	tips      *tipset.Set
	val       *validator.Validator
	pub       *publisher.Publisher
	tr        transport.Transport
	writeLock sync.Locker

	mu          sync.RWMutex
	status      Status
	stage       *staging
	rot         *peerRotation
	pendingTips map[types.ID]transport.PeerID
	rec         *metrics.Recorder
}

// New wires an Engine from its collaborators. cfg, store, tips, and val
// must be the same instances the rest of the graph facade uses, and
// writeLock must be the same lock the graph facade's own Author/Prune
// critical sections use, since admission spans store+tipset+validator
// under one logical write mutex (spec.md §5) regardless of whether the
// admitting goroutine is RunJoin's backfill, the inbound gossip
// dispatch loop, or a local Author call.
func New(cfg config.Config, s store.Store, tips *tipset.Set, val *validator.Validator, pub *publisher.Publisher, tr transport.Transport, writeLock sync.Locker) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     s,
		tips:      tips,
		val:       val,
		pub:       pub,
		tr:        tr,
		writeLock: writeLock,
		status:    StatusIdle,
		stage:     newStaging(),
		rot:       newPeerRotation(),
	}
}

// SetRecorder wires admission-latency recording into the engine's
// critical section. A nil recorder (the default) disables recording.
func (e *Engine) SetRecorder(r *metrics.Recorder) {
	e.mu.Lock()
	e.rec = r
	e.mu.Unlock()
}

// admitLocked runs val.Admit and, on success, pub.Publish under the
// shared write lock, so two goroutines (RunJoin's applyReady and the
// inbound gossip dispatch loop's handleEventPut) can never both pass
// the store's dedup check for the same event and double-admit it.
func (e *Engine) admitLocked(ev types.Event) validator.Result {
	e.writeLock.Lock()
	defer e.writeLock.Unlock()

	start := time.Now()
	res := e.val.Admit(ev)

	e.mu.RLock()
	rec := e.rec
	e.mu.RUnlock()
	if rec != nil {
		rec.RecordAdmission(context.Background(), float64(time.Since(start).Milliseconds()))
	}

	if res.Outcome == validator.Admitted {
		e.pub.Publish(ev)
	}
	return res
}

// Status returns the engine's current sync_status signal.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// PeerCount reports the number of currently connected peers.
func (e *Engine) PeerCount() int {
	return len(e.tr.Peers())
}

// DAGSynced reports whether the staging map is currently empty and the
// last join did not end in StatusFailed — the boolean dag_synced signal
// of §6.2. A join still in progress with nothing staged reports true.
func (e *Engine) DAGSynced() bool {
	return e.stage.len() == 0 && e.Status() != StatusFailed
}

// Run starts the engine's background loops: peer-connectivity
// watching (to trigger DAG-Sync crossing MIN_PEERS) and inbound
// message dispatch. It blocks until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	peerEvents, err := e.tr.SubscribePeerEvents(ctx)
	if err != nil {
		return fmt.Errorf("syncengine: subscribe peer events: %w", err)
	}
	inbound, err := e.tr.SubscribeInbound(ctx)
	if err != nil {
		return fmt.Errorf("syncengine: subscribe inbound: %w", err)
	}

	var crossedOnce bool
	for {
		select {
		case <-ctx.Done():
			return nil
		case pe, ok := <-peerEvents:
			if !ok {
				return nil
			}
			if pe.Kind == transport.PeerConnected && len(e.tr.Peers()) >= e.cfg.MinPeers && !crossedOnce {
				crossedOnce = true
				go func() {
					if err := e.RunJoin(ctx); err != nil {
						log.Printf("syncengine: join failed: %v", err)
					}
				}()
			}
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			e.handleInbound(ctx, msg)
		}
	}
}

// RunJoin executes the §4.5.2 join/catch-up algorithm: collect remote
// tips, BFS backfill unknown ancestors in bounded batches, apply events
// in reverse-topological order as their parents resolve, retrying with
// COOLOFF_SLEEP between attempts up to SyncMaxAttempts. Reports
// xerrors.ErrSyncFailed if the staging map is still non-empty after
// the attempt budget — the DAG is left in a consistent partial state
// (only fully ancestor-resolved events were applied), never corrupted.
func (e *Engine) RunJoin(ctx context.Context) error {
	e.setStatus(StatusSyncing)

	bo := backoff.NewConstantBackOff(e.cfg.CooloffSleep)
	attempt := 0

	for attempt < e.cfg.SyncMaxAttempts {
		attempt++
		if err := e.joinOnce(ctx); err != nil {
			return fmt.Errorf("syncengine: join attempt %d: %w", attempt, err)
		}
		if e.stage.len() == 0 {
			e.setStatus(StatusIdle)
			return nil
		}
		e.setStatus(StatusBackfilling)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(bo.NextBackOff()):
		}
	}

	e.setStatus(StatusFailed)
	return fmt.Errorf("syncengine: staging map has %d entries after %d attempts: %w",
		e.stage.len(), e.cfg.SyncMaxAttempts, xerrors.ErrSyncFailed)
}

// joinOnce performs one TipQuery/backfill/apply pass.
func (e *Engine) joinOnce(ctx context.Context) error {
	peers := e.tr.Peers()
	if len(peers) < e.cfg.MinPeers {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.ReplyTimeout)
	defer cancel()

	tips, err := e.collectTips(reqCtx, peers)
	if err != nil {
		return err
	}

	genesis, err := e.store.Genesis()
	if err != nil && err != xerrors.ErrNotFound {
		return fmt.Errorf("genesis lookup: %w", err)
	}

	var unknown []types.ID
	for id, peer := range tips {
		has, err := e.store.Has(id)
		if err != nil {
			return fmt.Errorf("has %s: %w", id, err)
		}
		if !has && id != genesis {
			unknown = append(unknown, id)
			e.rot.advertise(id, peer)
		}
	}

	// collectTips has already used up reqCtx waiting for TipReply
	// stragglers, so the EventRequest round gets a fresh ReplyTimeout
	// window, and EventReply frames (applied by handleEventReply) are
	// given that window to arrive before staging is checked again.
	fetchCtx, cancelFetch := context.WithTimeout(ctx, e.cfg.ReplyTimeout)
	defer cancelFetch()
	if err := e.backfill(fetchCtx, unknown, genesis); err != nil {
		return err
	}
	if len(unknown) > 0 {
		<-fetchCtx.Done()
	}
	return e.applyReady(genesis)
}

// collectTips sends TipQuery to every peer and returns a map from each
// reported tip id to the peer that reported it (first reporter wins,
// for round-robin bookkeeping downstream).
func (e *Engine) collectTips(ctx context.Context, peers []transport.PeerID) (map[types.ID]transport.PeerID, error) {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range peers {
		p := p
		g.Go(func() error {
			frame := Encode(TagTipQuery, nil)
			if err := e.tr.Send(gctx, p, frame); err != nil {
				return nil // unreachable peer: skip, don't fail the whole round
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// TipReply arrives asynchronously via handleInbound, which records
	// it into e.pendingTips; the caller's context deadline (ReplyTimeout)
	// bounds how long stragglers are waited for before this drains.
	<-ctx.Done()
	return e.drainPendingTips(), nil
}

func (e *Engine) drainPendingTips() map[types.ID]transport.PeerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pendingTips
	e.pendingTips = nil
	return out
}

// backfill runs the BFS of §4.5.2 step 4: repeatedly take up to
// K_BATCH ids from the frontier, request them from whichever peer
// advertised them (round-robin), and enqueue any newly discovered
// parents. Concurrent batches across different peers are bounded by
// K_INFLIGHT via a semaphore.
func (e *Engine) backfill(ctx context.Context, frontier []types.ID, genesis types.ID) error {
	sem := semaphore.NewWeighted(int64(e.cfg.KInflight))
	queue := append([]types.ID(nil), frontier...)

	for len(queue) > 0 {
		batchSize := e.cfg.KBatch
		if batchSize > len(queue) {
			batchSize = len(queue)
		}
		batch := queue[:batchSize]
		queue = queue[batchSize:]

		byPeer := make(map[transport.PeerID][]types.ID)
		for _, id := range batch {
			peer, ok := e.rot.pick(id)
			if !ok {
				continue
			}
			byPeer[peer] = append(byPeer[peer], id)
		}

		g, gctx := errgroup.WithContext(ctx)
		for peer, ids := range byPeer {
			peer, ids := peer, ids
			if err := sem.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("backfill: acquire semaphore: %w", err)
			}
			g.Go(func() error {
				defer sem.Release(1)
				frame := Encode(TagEventRequest, EncodeEventRequest(EventRequest{IDs: ids}))
				return e.tr.Send(gctx, peer, frame)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("backfill: request batch: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
	return nil
}

// applyReady admits every staging entry whose parents are now
// resolved, in passes, until no more become ready (new admissions can
// unblock further staged events in the same call).
func (e *Engine) applyReady(genesis types.ID) error {
	for {
		ready := e.stage.ready(genesis, func(id types.ID) bool {
			has, err := e.store.Has(id)
			return err == nil && has
		})
		if len(ready) == 0 {
			return nil
		}
		for _, ev := range ready {
			e.admitLocked(ev)
			e.stage.remove(ev.ID())
		}
	}
}

// BroadcastNew gossips a locally authored or newly admitted event to
// all peers, per spec.md §4.5.3.
func (e *Engine) BroadcastNew(ctx context.Context, ev types.Event) error {
	frame := Encode(TagEventPut, EncodeEventPut(EventPut{Event: ev}))
	if err := e.tr.Broadcast(ctx, frame); err != nil {
		return fmt.Errorf("syncengine: broadcast: %w", err)
	}
	return nil
}

// handleInbound dispatches one received frame by tag.
func (e *Engine) handleInbound(ctx context.Context, msg transport.InboundMessage) {
	tag, body, err := DecodeEnvelope(msg.Frame)
	if err != nil {
		log.Printf("syncengine: malformed frame from %s: %v", msg.Peer, err)
		return
	}

	switch tag {
	case TagTipQuery:
		e.replyTipQuery(ctx, msg.Peer)
	case TagTipReply:
		e.recordTipReply(body, msg.Peer)
	case TagEventRequest:
		e.replyEventRequest(ctx, msg.Peer, body)
	case TagEventReply:
		e.handleEventReply(ctx, body, msg.Peer)
	case TagEventPut:
		e.handleEventPut(ctx, body, msg.Peer)
	default:
		log.Printf("syncengine: unknown message tag 0x%02x from %s", tag, msg.Peer)
	}
}

func (e *Engine) replyTipQuery(ctx context.Context, peer transport.PeerID) {
	tips := e.tips.Tips()
	frame := Encode(TagTipReply, EncodeTipReply(TipReply{Tips: tips}))
	if err := e.tr.Send(ctx, peer, frame); err != nil {
		log.Printf("syncengine: tip reply to %s failed: %v", peer, err)
	}
}

func (e *Engine) recordTipReply(body []byte, peer transport.PeerID) {
	reply, err := DecodeTipReply(body)
	if err != nil {
		log.Printf("syncengine: bad TipReply from %s: %v", peer, err)
		return
	}
	e.mu.Lock()
	if e.pendingTips == nil {
		e.pendingTips = make(map[types.ID]transport.PeerID)
	}
	for _, id := range reply.Tips {
		if _, ok := e.pendingTips[id]; !ok {
			e.pendingTips[id] = peer
		}
	}
	e.mu.Unlock()
}

func (e *Engine) replyEventRequest(ctx context.Context, peer transport.PeerID, body []byte) {
	req, err := DecodeEventRequest(body)
	if err != nil {
		log.Printf("syncengine: bad EventRequest from %s: %v", peer, err)
		return
	}
	var events []types.Event
	for _, id := range req.IDs {
		if ev, ok, err := e.store.Get(id); err == nil && ok {
			events = append(events, ev)
		}
	}
	frame := Encode(TagEventReply, EncodeEventReply(EventReply{Events: events}))
	if err := e.tr.Send(ctx, peer, frame); err != nil {
		log.Printf("syncengine: event reply to %s failed: %v", peer, err)
	}
}

func (e *Engine) handleEventReply(ctx context.Context, body []byte, peer transport.PeerID) {
	reply, err := DecodeEventReply(body)
	if err != nil {
		log.Printf("syncengine: bad EventReply from %s: %v", peer, err)
		return
	}
	for _, ev := range reply.Events {
		e.stage.put(ev)
		e.rot.advertise(ev.ID(), peer)
		e.requestMissingParents(ctx, ev, peer)
	}

	genesis, err := e.store.Genesis()
	if err != nil && err != xerrors.ErrNotFound {
		log.Printf("syncengine: genesis lookup after EventReply failed: %v", err)
		return
	}
	if err := e.applyReady(genesis); err != nil {
		log.Printf("syncengine: apply after EventReply failed: %v", err)
	}
}

// requestMissingParents is the other half of backfill's BFS: backfill
// only ever requests the frontier it started with, so every EventReply
// and EventPut must feed its own newly-discovered missing ancestors
// back into the fetch frontier, or a chain deeper than one layer never
// drains out of staging (spec.md §4.5.2 step 4, §8 S1). markQueued
// dedups so a parent advertised by several replies is only requested
// once; it's cleared again by stage.remove once that parent is applied.
func (e *Engine) requestMissingParents(ctx context.Context, ev types.Event, peer transport.PeerID) {
	missing := missingParentsOf(ev, e.store)
	if len(missing) == 0 {
		return
	}

	var toRequest []types.ID
	for _, id := range missing {
		e.rot.advertise(id, peer)
		if e.stage.markQueued(id) {
			toRequest = append(toRequest, id)
		}
	}
	if len(toRequest) == 0 {
		return
	}

	frame := Encode(TagEventRequest, EncodeEventRequest(EventRequest{IDs: toRequest}))
	if err := e.tr.Send(ctx, peer, frame); err != nil {
		log.Printf("syncengine: parent request to %s failed: %v", peer, err)
	}
}

// handleEventPut processes unsolicited gossip: admit if valid, dropping
// duplicates and re-broadcasting newly admitted events (store-and-
// forward per §4.5.3). A missing parent stages the event exactly like
// an orphan and requests it from the sender.
func (e *Engine) handleEventPut(ctx context.Context, body []byte, peer transport.PeerID) {
	put, err := DecodeEventPut(body)
	if err != nil {
		log.Printf("syncengine: bad EventPut from %s: %v", peer, err)
		return
	}

	res := e.admitLocked(put.Event)
	switch res.Outcome {
	case validator.Admitted:
		if err := e.BroadcastNew(ctx, put.Event); err != nil {
			log.Printf("syncengine: rebroadcast failed: %v", err)
		}
	case validator.Orphaned:
		e.stage.put(put.Event)
		e.requestMissingParents(ctx, put.Event, peer)
	case validator.Duplicate:
		// silently ignored upstream per spec.md §7
	case validator.Invalid:
		log.Printf("syncengine: rejected event from %s: %v", peer, res.Err)
	}
}

func missingParentsOf(e types.Event, s store.Store) []types.ID {
	var missing []types.ID
	for _, p := range e.Parents {
		has, err := s.Has(p)
		if err == nil && !has {
			missing = append(missing, p)
		}
	}
	return missing
}

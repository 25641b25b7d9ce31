// Package nats is the primary transport.Transport backend, built on
// github.com/nats-io/nats.go JetStream — the same library and
// stream-per-concern layout the teacher uses in internal/eventbus
// (bus.go, streams.go) for its hook/decision/agent event buses, here
// repurposed from application-event fan-out to Event Graph gossip.
package nats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/darkfi-go/eventgraph/internal/transport"
)

const (
	// StreamGossip is the JetStream stream backing broadcast gossip.
	StreamGossip = "EVENTGRAPH_GOSSIP"
	// SubjectBroadcast is where EventPut/TipQuery/TipReply broadcasts land.
	SubjectBroadcast = "eventgraph.broadcast"
	// SubjectDirectPrefix addresses a single peer's inbox:
	// "eventgraph.direct.<peer-id>".
	SubjectDirectPrefix = "eventgraph.direct."
	// SubjectPresence carries periodic liveness beacons used to derive
	// PeerConnected/PeerDisconnected (plain nats.go has no built-in
	// peer-presence API, unlike the JetStream consumer/ack machinery
	// used for message delivery).
	SubjectPresence = "eventgraph.presence"
)

// PresenceTimeout is how long a peer may go without a beacon before
// it's considered disconnected.
const PresenceTimeout = 15 * time.Second

// EnsureStream creates the gossip JetStream stream if it doesn't
// already exist, mirroring the teacher's EnsureStreams idempotent
// create-if-absent pattern.
func EnsureStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(StreamGossip); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     StreamGossip,
			Subjects: []string{"eventgraph.>"},
			Storage:  nats.FileStorage,
			MaxMsgs:  1_000_000,
			MaxBytes: 1 << 30,
		})
		if err != nil {
			return fmt.Errorf("nats: create %s stream: %w", StreamGossip, err)
		}
	}
	return nil
}

// Transport implements transport.Transport over a NATS connection with
// JetStream persistence for broadcast and plain core-NATS for direct
// sends and presence beacons.
type Transport struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	self transport.PeerID

	mu      sync.Mutex
	lastSeen map[transport.PeerID]time.Time

	stopPresence chan struct{}
}

// Dial connects to url, ensures the gossip stream exists, and starts
// emitting presence beacons under self's identity.
func Dial(url string, self transport.PeerID) (*Transport, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", url, err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats: jetstream context: %w", err)
	}
	if err := EnsureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	t := &Transport{
		conn:         conn,
		js:           js,
		self:         self,
		lastSeen:     make(map[transport.PeerID]time.Time),
		stopPresence: make(chan struct{}),
	}
	go t.beacon()
	return t, nil
}

// Close stops the presence beacon and drains the connection.
func (t *Transport) Close() {
	close(t.stopPresence)
	t.conn.Drain()
}

func (t *Transport) beacon() {
	ticker := time.NewTicker(PresenceTimeout / 3)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopPresence:
			return
		case <-ticker.C:
			if err := t.conn.Publish(SubjectPresence, []byte(t.self)); err != nil {
				log.Printf("nats: presence beacon failed: %v", err)
			}
		}
	}
}

func (t *Transport) Broadcast(ctx context.Context, frame []byte) error {
	if _, err := t.js.Publish(SubjectBroadcast, frame); err != nil {
		return fmt.Errorf("nats: broadcast publish: %w", err)
	}
	return nil
}

func (t *Transport) Send(ctx context.Context, peer transport.PeerID, frame []byte) error {
	subject := SubjectDirectPrefix + string(peer)
	if err := t.conn.Publish(subject, frame); err != nil {
		return fmt.Errorf("nats: direct publish to %s: %w", peer, err)
	}
	return nil
}

func (t *Transport) SubscribeInbound(ctx context.Context) (<-chan transport.InboundMessage, error) {
	out := make(chan transport.InboundMessage, 256)

	broadcastSub, err := t.conn.Subscribe(SubjectBroadcast, func(msg *nats.Msg) {
		select {
		case out <- transport.InboundMessage{Peer: "", Frame: msg.Data}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe broadcast: %w", err)
	}

	direct := SubjectDirectPrefix + string(t.self)
	directSub, err := t.conn.Subscribe(direct, func(msg *nats.Msg) {
		select {
		case out <- transport.InboundMessage{Peer: t.self, Frame: msg.Data}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		broadcastSub.Unsubscribe()
		return nil, fmt.Errorf("nats: subscribe direct inbox: %w", err)
	}

	go func() {
		<-ctx.Done()
		broadcastSub.Unsubscribe()
		directSub.Unsubscribe()
		close(out)
	}()

	return out, nil
}

func (t *Transport) SubscribePeerEvents(ctx context.Context) (<-chan transport.PeerEvent, error) {
	out := make(chan transport.PeerEvent, 64)

	sub, err := t.conn.Subscribe(SubjectPresence, func(msg *nats.Msg) {
		peer := transport.PeerID(msg.Data)
		t.mu.Lock()
		_, known := t.lastSeen[peer]
		t.lastSeen[peer] = time.Now()
		t.mu.Unlock()

		if !known {
			select {
			case out <- transport.PeerEvent{Kind: transport.PeerConnected, Peer: peer}:
			case <-ctx.Done():
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe presence: %w", err)
	}

	go t.reapStalePeers(ctx, out)

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
		close(out)
	}()

	return out, nil
}

// reapStalePeers periodically evicts peers whose beacon has not been
// seen within PresenceTimeout, emitting PeerDisconnected for each.
func (t *Transport) reapStalePeers(ctx context.Context, out chan<- transport.PeerEvent) {
	ticker := time.NewTicker(PresenceTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-PresenceTimeout)
			t.mu.Lock()
			var stale []transport.PeerID
			for peer, seen := range t.lastSeen {
				if seen.Before(cutoff) {
					stale = append(stale, peer)
				}
			}
			for _, peer := range stale {
				delete(t.lastSeen, peer)
			}
			t.mu.Unlock()

			for _, peer := range stale {
				select {
				case out <- transport.PeerEvent{Kind: transport.PeerDisconnected, Peer: peer}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Peers returns the currently live peer set, derived from recent
// presence beacons.
func (t *Transport) Peers() []transport.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-PresenceTimeout)
	out := make([]transport.PeerID, 0, len(t.lastSeen))
	for peer, seen := range t.lastSeen {
		if seen.After(cutoff) {
			out = append(out, peer)
		}
	}
	return out
}

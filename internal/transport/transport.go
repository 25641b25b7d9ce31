// Package transport defines the peer substrate contract the sync
// engine (C5) is built against (spec.md §6.1): broadcast, direct send,
// and two inbound event streams (messages, connectivity changes).
// Concrete backends live in subpackages — transport/nats is the
// primary one, grounded on the teacher's internal/eventbus.
package transport

import "context"

// PeerID identifies a remote peer. Backends are free to use whatever
// underlying identity format fits their substrate (a NATS client id, a
// libp2p peer id, ...); the sync engine only ever treats it as an
// opaque comparable key.
type PeerID string

// PeerEventKind distinguishes connect from disconnect notifications.
type PeerEventKind int

const (
	PeerConnected PeerEventKind = iota
	PeerDisconnected
)

// PeerEvent is delivered on the peer-events stream whenever a peer
// joins or leaves.
type PeerEvent struct {
	Kind PeerEventKind
	Peer PeerID
}

// InboundMessage pairs a received frame with the peer that sent it.
type InboundMessage struct {
	Peer  PeerID
	Frame []byte
}

// Transport is the collaborator interface C5 is built against. All
// methods must be safe for concurrent use; SubscribeInbound and
// SubscribePeerEvents are each expected to be called once per process
// lifetime (fan-out to multiple internal consumers happens above this
// layer, not inside the transport).
type Transport interface {
	// Broadcast sends frame to every currently connected peer.
	Broadcast(ctx context.Context, frame []byte) error

	// Send delivers frame to exactly one peer.
	Send(ctx context.Context, peer PeerID, frame []byte) error

	// SubscribeInbound returns a channel of messages received from any
	// peer. The channel is closed when ctx is canceled.
	SubscribeInbound(ctx context.Context) (<-chan InboundMessage, error)

	// SubscribePeerEvents returns a channel of connect/disconnect
	// notifications. The channel is closed when ctx is canceled.
	SubscribePeerEvents(ctx context.Context) (<-chan PeerEvent, error)

	// Peers returns the currently connected peer set, used by the join
	// algorithm's MIN_PEERS gate (§4.5.2 step 1).
	Peers() []PeerID
}

// Offline is a no-op Transport for local, read-only inspection of a
// store (e.g. an operator running `status`/`tips` against a store file
// without a live gossip connection). Broadcast/Send are no-ops; the
// subscription channels are returned closed immediately, and Peers is
// always empty.
type Offline struct{}

func (Offline) Broadcast(context.Context, []byte) error { return nil }

func (Offline) Send(context.Context, PeerID, []byte) error { return nil }

func (Offline) SubscribeInbound(context.Context) (<-chan InboundMessage, error) {
	ch := make(chan InboundMessage)
	close(ch)
	return ch, nil
}

func (Offline) SubscribePeerEvents(context.Context) (<-chan PeerEvent, error) {
	ch := make(chan PeerEvent)
	close(ch)
	return ch, nil
}

func (Offline) Peers() []PeerID { return nil }

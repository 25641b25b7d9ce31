package syncengine

import (
	"sync"

	"github.com/darkfi-go/eventgraph/internal/transport"
)

// peerRotation load-balances EventRequests across peers that advertised
// a given id, round-robin, per spec.md §4.5.2 step 4 ("load-balanced
// round-robin if multiple").
type peerRotation struct {
	mu sync.Mutex
	// advertisedBy maps an id to the ordered set of peers that reported
	// it in their TipReply/EventReply, in first-seen order.
	advertisedBy map[[32]byte][]transport.PeerID
	cursor       map[[32]byte]int
}

func newPeerRotation() *peerRotation {
	return &peerRotation{
		advertisedBy: make(map[[32]byte][]transport.PeerID),
		cursor:       make(map[[32]byte]int),
	}
}

// advertise records that peer offered id (as a tip, or as a parent it
// is known to hold).
func (r *peerRotation) advertise(id [32]byte, peer transport.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.advertisedBy[id] {
		if p == peer {
			return
		}
	}
	r.advertisedBy[id] = append(r.advertisedBy[id], peer)
}

// pick returns the next peer to ask for id, round-robining across
// whichever peers have advertised it. ok is false if no peer has.
func (r *peerRotation) pick(id [32]byte) (transport.PeerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers := r.advertisedBy[id]
	if len(peers) == 0 {
		return "", false
	}
	idx := r.cursor[id] % len(peers)
	r.cursor[id] = idx + 1
	return peers[idx], true
}

// Package seenset implements the consumer-side replay-dedup cache of
// spec.md §3.4: a bounded FIFO of recently processed event-ids with an
// is_author flag, used by the application layer (not the DAG itself) to
// skip duplicates from gossip echoes and to suppress timestamp
// correction on one's own events.
//
// # Why a FIFO and not a full history
//
// The DAG store already dedups by id at admission (§4.4 rule 1); this
// cache exists purely to save the *consumer* repeat work on events it
// has already acted on, in the presence of gossip rebroadcast. Since
// gossip echoes arrive within seconds of the original, not ever, a
// bounded recency window (capacity O(10^3), see Config.SeenSetCapacity)
// is sufficient — there is no need to remember the whole DAG's history
// here the way the store itself does.
//
// # Concurrency
//
// Seen guards its list and map with one coarse mutex. Per spec.md §5
// ("its short critical sections make contention negligible"), no
// finer-grained locking is attempted.
package seenset

import (
	"container/list"
	"sync"

	"github.com/darkfi-go/eventgraph/internal/types"
)

type entry struct {
	id       types.ID
	isAuthor bool
}

// Seen is a bounded FIFO of recently seen event-ids.
type Seen struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[types.ID]*list.Element
}

// New returns a Seen with the given capacity. capacity <= 0 is treated
// as 1 to avoid a permanently-empty, always-evicting cache.
func New(capacity int) *Seen {
	if capacity <= 0 {
		capacity = 1
	}
	return &Seen{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[types.ID]*list.Element),
	}
}

// Seen reports whether id has already been recorded.
func (s *Seen) Seen(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// IsAuthor reports whether id was recorded with isAuthor=true (i.e. it
// was authored locally, not received from a peer). Returns false if id
// isn't tracked at all.
func (s *Seen) IsAuthor(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.index[id]
	if !ok {
		return false
	}
	return el.Value.(entry).isAuthor
}

// Record marks id as seen. If id is already tracked this is a no-op
// (its position in the FIFO is not refreshed — recency is measured from
// first sighting, matching the teacher's append-only cache semantics).
// When the FIFO exceeds capacity the oldest entry is evicted.
func (s *Seen) Record(id types.ID, isAuthor bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return
	}

	el := s.order.PushBack(entry{id: id, isAuthor: isAuthor})
	s.index[id] = el

	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(entry).id)
	}
}

// Len reports how many ids are currently tracked.
func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

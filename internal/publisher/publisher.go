// Package publisher implements the application-facing
// subscribe_admitted() stream of spec.md §6.2: each admitted event is
// delivered at most once to each subscriber, in admission order; a
// subscriber whose buffer is full when an event is published misses
// that event. Grounded on the teacher's internal/eventbus.Bus
// dispatch loop (internal/eventbus/bus.go) — same register/dispatch
// shape — simplified from priority-ordered external handlers down to
// plain fan-out channels, since the Event Graph has no external
// handler-process concept.
package publisher

import (
	"log"
	"sync"

	"github.com/darkfi-go/eventgraph/internal/types"
)

// Subscriber receives a channel of admitted events. The channel is
// closed when the subscriber unsubscribes or the Publisher is closed.
type Subscriber struct {
	ch chan types.Event
	id uint64
}

// Events returns the channel admitted events are delivered on.
func (s *Subscriber) Events() <-chan types.Event { return s.ch }

// Publisher fans out admitted events to every live subscriber, each
// delivery at most once per event-id per subscriber, matching admission
// order since Publish is only ever called from the single admission
// critical section (spec.md §5).
type Publisher struct {
	mu       sync.Mutex
	nextID   uint64
	subs     map[uint64]chan types.Event
	bufSize  int
}

// New returns a Publisher whose per-subscriber channel buffer is
// bufSize (256 when bufSize <= 0). Publish never blocks on a full
// buffer: that subscriber's delivery of the event is dropped and logged.
func New(bufSize int) *Publisher {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Publisher{subs: make(map[uint64]chan types.Event), bufSize: bufSize}
}

// Subscribe registers a new subscriber and returns its handle.
func (p *Publisher) Subscribe() *Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	ch := make(chan types.Event, p.bufSize)
	p.subs[id] = ch
	return &Subscriber{ch: ch, id: id}
}

// Unsubscribe removes a subscriber and closes its channel.
func (p *Publisher) Unsubscribe(s *Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.subs[s.id]; ok {
		delete(p.subs, s.id)
		close(ch)
	}
}

// Publish delivers e to every current subscriber. A subscriber whose
// buffer is full is logged and skipped for this event rather than
// blocking every other subscriber — the admission critical section
// must not stall on a slow consumer (spec.md §5's "must not cross a
// network await" applies equally to a blocked channel send).
func (p *Publisher) Publish(e types.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		select {
		case ch <- e:
		default:
			log.Printf("publisher: subscriber %d buffer full, dropping delivery of %s", id, e.ID())
		}
	}
}

// Close closes every subscriber channel. Further Publish calls are a
// no-op.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

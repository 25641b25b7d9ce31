package syncengine

import (
	"sync"

	"github.com/darkfi-go/eventgraph/internal/types"
)

// staging holds events received during a join/catch-up pass whose
// parents are not all yet in the store (spec.md §4.5.2 step 5). It
// drains as ancestors arrive; a non-empty staging map after
// SyncMaxAttempts cooloff rounds is what triggers ErrSyncFailed.
type staging struct {
	mu     sync.Mutex
	byID   map[types.ID]types.Event
	queued map[types.ID]struct{} // ids already enqueued for fetch, to avoid re-requesting
}

func newStaging() *staging {
	return &staging{
		byID:   make(map[types.ID]types.Event),
		queued: make(map[types.ID]struct{}),
	}
}

func (s *staging) put(e types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[e.ID()] = e
}

func (s *staging) remove(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	delete(s.queued, id)
}

func (s *staging) markQueued(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queued[id]; ok {
		return false
	}
	s.queued[id] = struct{}{}
	return true
}

// ready returns the ids in staging whose every parent is either
// genesis or already present according to hasParent, in an order
// callers can apply directly (ready events never depend on each other,
// since a dependency would make the dependent event unready).
func (s *staging) ready(genesis types.ID, hasParent func(types.ID) bool) []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Event
	for _, e := range s.byID {
		allResolved := true
		for _, p := range e.Parents {
			if p == genesis {
				continue
			}
			if !hasParent(p) {
				allResolved = false
				break
			}
		}
		if allResolved {
			out = append(out, e)
		}
	}
	return out
}

func (s *staging) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *staging) ids() []types.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ID, 0, len(s.byID))
	for id := range s.byID {
		out = append(out, id)
	}
	return out
}

package validator

import (
	"time"

	"github.com/darkfi-go/eventgraph/internal/types"
)

// orphanEntry tracks one staged event awaiting parent resolution.
type orphanEntry struct {
	event    types.Event
	missing  []types.ID
	staged   time.Time
	attempts int
}

// orphanStage is the §4.4 rule 3 staging area: events with unresolved
// parents wait here until either their parents arrive (RetryOrphans
// resolves them) or they age out via TTL/depth (SweepOrphans evicts
// them with ErrUnresolvableOrphan).
type orphanStage struct {
	ttl      time.Duration
	maxDepth int
	entries  map[types.ID]*orphanEntry
}

func newOrphanStage(ttl time.Duration, maxDepth int) *orphanStage {
	return &orphanStage{
		ttl:      ttl,
		maxDepth: maxDepth,
		entries:  make(map[types.ID]*orphanEntry),
	}
}

func (s *orphanStage) stage(e types.Event, missing []types.ID, now time.Time) {
	id := e.ID()
	if existing, ok := s.entries[id]; ok {
		existing.missing = missing
		return
	}
	s.entries[id] = &orphanEntry{event: e, missing: missing, staged: now}
}

func (s *orphanStage) resolved(id types.ID) {
	delete(s.entries, id)
}

// candidates returns ids currently staged, for a retry pass.
func (s *orphanStage) candidates() []types.ID {
	ids := make([]types.ID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

func (s *orphanStage) event(id types.ID) (types.Event, bool) {
	e, ok := s.entries[id]
	if !ok {
		return types.Event{}, false
	}
	return e.event, true
}

func (s *orphanStage) bumpDepth(id types.ID) {
	if e, ok := s.entries[id]; ok {
		e.attempts++
	}
}

// sweep evicts entries past ttl or maxDepth, returning their ids.
func (s *orphanStage) sweep(now time.Time) []types.ID {
	var dropped []types.ID
	for id, e := range s.entries {
		if now.Sub(e.staged) > s.ttl || e.attempts > s.maxDepth {
			dropped = append(dropped, id)
			delete(s.entries, id)
		}
	}
	return dropped
}

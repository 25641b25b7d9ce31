// Package tipset implements C3, the in-memory unreferenced frontier.
//
// There is no single teacher file this is lifted from — the Event
// Graph's frontier-of-a-DAG structure has no direct analog anywhere in
// the pack — so this is written fresh, in the same plain
// mutex-plus-map idiom the rest of this module's in-process state
// (internal/store/memstore, internal/seenset) uses.
package tipset

import (
	"sort"
	"sync"

	"github.com/darkfi-go/eventgraph/internal/types"
)

// Set tracks child counts per event-id and the derived set of tips
// (ids with a zero child count). Safe for concurrent use; callers that
// need on_insert/select-parents to be atomic with a store write must
// still hold their own outer lock (spec.md §5's single writer mutex) —
// Set's own lock only protects its two internal maps against each
// other.
type Set struct {
	mu       sync.RWMutex
	childCnt map[types.ID]uint32
	tips     map[types.ID]struct{}
}

// New returns an empty Set. Callers seed it with the genesis id via
// Reset immediately after construction so the tip set is never
// empty while the store holds ≥1 event (spec.md §3.3).
func New() *Set {
	return &Set{
		childCnt: make(map[types.ID]uint32),
		tips:     make(map[types.ID]struct{}),
	}
}

// Tips returns a snapshot slice of current tip ids. The slice is a
// copy; mutating it does not affect the Set.
func (s *Set) Tips() []types.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ID, 0, len(s.tips))
	for id := range s.tips {
		out = append(out, id)
	}
	return out
}

// OnInsert records a newly admitted event e. If e's id was already
// tracked (its children were inserted first and already raised its
// count), its existing child count is left untouched; otherwise it starts
// at zero. Each of e's parents has its child count incremented, and a
// parent transitioning from 0 children to 1 is removed from the tip
// set. e itself joins the tip set iff its own child count is zero.
func (s *Set) OnInsert(id types.ID, parents []types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, tracked := s.childCnt[id]; !tracked {
		s.childCnt[id] = 0
	}

	for _, p := range parents {
		s.childCnt[p]++
		if s.childCnt[p] == 1 {
			delete(s.tips, p)
		}
	}

	if s.childCnt[id] == 0 {
		s.tips[id] = struct{}{}
	}
}

// OnPrune removes id from both the child-count map and the tip set.
// Called when a pruner (C6) evicts an event below the genesis floor.
func (s *Set) OnPrune(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.childCnt, id)
	delete(s.tips, id)
}

// Reset replaces the entire tip set with a single id — used on genesis
// rotation (spec.md §3.3, §4.6b), where every prior tip becomes
// logically subsumed by the new genesis.
func (s *Set) Reset(genesis types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.childCnt = map[types.ID]uint32{genesis: 0}
	s.tips = map[types.ID]struct{}{genesis: {}}
}

// SelectParents returns up to nParents tip ids for a newly authored
// event, using the deterministic tie-break of spec.md §4.3: sort tips
// by (layer desc, id asc) and take the first nParents. layerOf must
// resolve the layer of every current tip; a tip missing from it is
// skipped rather than causing a panic, since that can only happen if
// the caller's layer index and tip set have briefly diverged.
func (s *Set) SelectParents(nParents int, layerOf func(types.ID) (uint64, bool)) []types.ID {
	tips := s.Tips()

	type scored struct {
		id    types.ID
		layer uint64
	}
	candidates := make([]scored, 0, len(tips))
	for _, id := range tips {
		layer, ok := layerOf(id)
		if !ok {
			continue
		}
		candidates = append(candidates, scored{id: id, layer: layer})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].layer != candidates[j].layer {
			return candidates[i].layer > candidates[j].layer
		}
		return candidates[i].id.String() < candidates[j].id.String()
	})

	if len(candidates) > nParents {
		candidates = candidates[:nParents]
	}

	out := make([]types.ID, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

// Len reports how many ids are currently tips.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tips)
}

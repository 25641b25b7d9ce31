// Package memstore is an in-memory C2 backend for tests and ephemeral
// nodes that don't need durability across restarts. It implements
// store.Store with plain maps guarded by a mutex; there is no teacher
// analog to adapt (internal/storage/ephemeral in the teacher tree is
// SQLite-backed, not a true in-memory map) so this is written fresh in
// the same shape as boltstore, trading durability for zero setup cost.
package memstore

import (
	"sort"
	"sync"

	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// Store is a mutex-guarded in-memory store.Store implementation.
type Store struct {
	mu      sync.RWMutex
	events  map[types.ID]types.Event
	genesis types.ID
	hasGen  bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{events: make(map[types.ID]types.Event)}
}

func (s *Store) Put(e types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := e.ID()
	if _, ok := s.events[id]; ok {
		return nil
	}
	s.events[id] = e
	return nil
}

func (s *Store) Get(id types.ID) (types.Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok, nil
}

func (s *Store) Has(id types.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[id]
	return ok, nil
}

func (s *Store) ScanFromLayer(layer uint64) ([]types.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]types.ID, 0, len(s.events))
	for id, e := range s.events {
		if e.Layer >= layer {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		li, lj := s.events[ids[i]].Layer, s.events[ids[j]].Layer
		if li != lj {
			return li < lj
		}
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}

func (s *Store) DeleteBatch(ids []types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.events, id)
	}
	return nil
}

func (s *Store) SetGenesis(id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genesis = id
	s.hasGen = true
	return nil
}

func (s *Store) Genesis() (types.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasGen {
		return types.ID{}, xerrors.ErrNotFound
	}
	return s.genesis, nil
}

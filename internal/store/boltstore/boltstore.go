// Package boltstore is the primary C2 backend: an embedded, ordered,
// keyed byte store (go.etcd.io/bbolt) giving the atomic per-event-
// admission batch write spec.md §4.2 requires for free via bbolt's
// Update() transactions.
//
// Bucket layout mirrors the three key ranges of spec.md §6.4:
//
//	"evt"  bucket: event-id -> canonical event bytes
//	"ord"  bucket: <8-byte big-endian layer><event-id> -> empty marker
//	"meta" bucket: "genesis" -> 32-byte event id
package boltstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

var (
	bucketEvents = []byte("evt")
	bucketOrder  = []byte("ord")
	bucketMeta   = []byte("meta")
	keyGenesis   = []byte("genesis")
)

// Store wraps a *bolt.DB implementing store.Store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) a bbolt file at path and ensures the
// three buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketEvents, bucketOrder, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: init buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func orderKey(layer uint64, id types.ID) []byte {
	key := make([]byte, 8+types.IDSize)
	binary.BigEndian.PutUint64(key[:8], layer)
	copy(key[8:], id[:])
	return key
}

// Put inserts e keyed by its own id and writes the matching order-index
// entry in the same bbolt transaction — the atomic per-event-admission
// write spec.md §4.2 demands. Idempotent: re-putting a stored id is a
// no-op.
func (s *Store) Put(e types.Event) error {
	id := e.ID()
	return s.db.Update(func(tx *bolt.Tx) error {
		evts := tx.Bucket(bucketEvents)
		if evts.Get(id[:]) != nil {
			return nil // already stored; idempotent
		}
		if err := evts.Put(id[:], types.Encode(e)); err != nil {
			return fmt.Errorf("put event: %w", err)
		}
		ord := tx.Bucket(bucketOrder)
		if err := ord.Put(orderKey(e.Layer, id), []byte{}); err != nil {
			return fmt.Errorf("put order index: %w", err)
		}
		return nil
	})
}

func (s *Store) Get(id types.ID) (types.Event, bool, error) {
	var (
		e  types.Event
		ok bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketEvents).Get(id[:])
		if data == nil {
			return nil
		}
		decoded, err := types.Decode(data)
		if err != nil {
			return fmt.Errorf("decode stored event %s: %w", id, err)
		}
		e, ok = decoded, true
		return nil
	})
	if err != nil {
		return types.Event{}, false, fmt.Errorf("boltstore: get: %w", err)
	}
	return e, ok, nil
}

func (s *Store) Has(id types.ID) (bool, error) {
	var has bool
	err := s.db.View(func(tx *bolt.Tx) error {
		has = tx.Bucket(bucketEvents).Get(id[:]) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("boltstore: has: %w", err)
	}
	return has, nil
}

func (s *Store) ScanFromLayer(layer uint64) ([]types.ID, error) {
	var ids []types.ID
	start := make([]byte, 8)
	binary.BigEndian.PutUint64(start, layer)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketOrder).Cursor()
		for k, _ := c.Seek(start); k != nil; k, _ = c.Next() {
			var id types.ID
			copy(id[:], k[8:])
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: scan from layer %d: %w", layer, err)
	}
	return ids, nil
}

func (s *Store) DeleteBatch(ids []types.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		evts := tx.Bucket(bucketEvents)
		ord := tx.Bucket(bucketOrder)
		for _, id := range ids {
			data := evts.Get(id[:])
			if data == nil {
				continue
			}
			e, err := types.Decode(data)
			if err != nil {
				return fmt.Errorf("decode %s before delete: %w", id, err)
			}
			if err := ord.Delete(orderKey(e.Layer, id)); err != nil {
				return fmt.Errorf("delete order entry for %s: %w", id, err)
			}
			if err := evts.Delete(id[:]); err != nil {
				return fmt.Errorf("delete event %s: %w", id, err)
			}
		}
		return nil
	})
}

func (s *Store) SetGenesis(id types.ID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyGenesis, id[:])
	})
}

func (s *Store) Genesis() (types.ID, error) {
	var id types.ID
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyGenesis)
		if v == nil {
			return nil
		}
		if !bytes.Equal(v, make([]byte, types.IDSize)) {
			copy(id[:], v)
			found = true
		}
		return nil
	})
	if err != nil {
		return types.ID{}, fmt.Errorf("boltstore: genesis: %w", err)
	}
	if !found {
		return types.ID{}, xerrors.ErrNotFound
	}
	return id, nil
}

// Package types defines the Event Graph's core data unit: the Event.
//
// An Event is immutable once constructed: a payload, an ordered list of
// parent ids, an author-supplied timestamp, and a layer derived from its
// parents. Event identity is the BLAKE3 hash of its canonical wire
// encoding (see wire.go), never an incrementing counter or UUID — this is
// what lets two peers that have never talked agree on whether they are
// holding "the same" event.
package types

import (
	"fmt"

	"github.com/darkfi-go/eventgraph/internal/xerrors"
	"github.com/zeebo/blake3"
)

// IDSize is the width of an event id: a BLAKE3-256 digest.
const IDSize = 32

// ID uniquely identifies an Event by the hash of its canonical encoding.
type ID [IDSize]byte

// String renders the id as lowercase hex, matching the teacher's
// convention of hex-friendly debug output for content hashes.
func (id ID) String() string {
	return fmt.Sprintf("%x", [IDSize]byte(id))
}

// IsZero reports whether id is the zero value (never a valid event id,
// since BLAKE3(anything) is never all-zero in practice; used as a sentinel
// for "no parent"/"no genesis set yet").
func (id ID) IsZero() bool {
	return id == ID{}
}

// Event is the immutable unit the whole Event Graph is built from.
//
// Parents is ordered and capped at Config.NParents (see §3.1). Payload is
// opaque to the graph — callers own its meaning and, if needed, its
// encryption (see SPEC_FULL.md open question on confidentiality). Timestamp
// is advisory only: Layer, not Timestamp, is the ordering key (§3.1).
type Event struct {
	Parents   []ID
	Payload   []byte
	Timestamp int64 // milliseconds since the agreed epoch
	Layer     uint64
}

// ParentLookup resolves a stored event's layer by id, used by New to
// compute the new event's layer. It is satisfied by store.Store but kept
// minimal here so the types package never imports store (which would be
// a cycle: store depends on types for Event/ID).
type ParentLookup interface {
	LayerOf(id ID) (uint64, bool)
}

// New constructs an Event from an ordered parent list, payload and
// timestamp, computing Layer as 1 + max(layer(p) for p in parents) per
// §3.1. genesis is the current genesis id; a genesis parent's layer is
// always 0 even when genesis itself is no longer resolvable via lookup
// (e.g. right after a rotation, before the new genesis event is
// persisted). It is the caller's (validator's) job to enforce parent
// count and known-parent rules — New only computes the layer and assumes
// parents are resolvable.
func New(parents []ID, payload []byte, timestamp int64, genesis ID, lookup ParentLookup) (Event, error) {
	if len(parents) == 0 {
		return Event{Payload: payload, Timestamp: timestamp, Layer: 0}, nil
	}

	var maxLayer uint64
	found := false
	for _, p := range parents {
		var layer uint64
		switch {
		case p == genesis:
			layer = 0
		default:
			l, ok := lookup.LayerOf(p)
			if !ok {
				return Event{}, fmt.Errorf("types: missing parent %s: %w", p, xerrors.ErrMissingParent)
			}
			layer = l
		}
		if !found || layer > maxLayer {
			maxLayer = layer
			found = true
		}
	}

	return Event{
		Parents:   append([]ID(nil), parents...),
		Payload:   payload,
		Timestamp: timestamp,
		Layer:     maxLayer + 1,
	}, nil
}

// ID computes the event's content hash over its canonical serialization.
func (e Event) ID() ID {
	sum := blake3.Sum256(Encode(e))
	return ID(sum)
}

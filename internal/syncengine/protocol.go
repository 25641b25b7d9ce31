// Package syncengine implements C5: converging two DAGs over an
// unreliable, asynchronous peer channel (spec.md §4.5). The join/
// catch-up BFS-backfill algorithm here replaces the teacher's file-diff
// 3-way merge (internal/merge) with a graph-shaped reconciliation —
// same "collect divergence, resolve deterministically" shape, entirely
// rewritten body since the underlying data model (a DAG, not a line
// based JSONL file) has nothing in common with a text diff.
package syncengine

import (
	"encoding/binary"
	"fmt"

	"github.com/darkfi-go/eventgraph/internal/types"
)

// MessageTag identifies a wire message kind, per spec.md §6.3.
type MessageTag byte

const (
	TagTipQuery     MessageTag = 0x01
	TagTipReply     MessageTag = 0x02
	TagEventRequest MessageTag = 0x03
	TagEventReply   MessageTag = 0x04
	TagEventPut     MessageTag = 0x05
)

// TipQuery asks a peer for its current tip set. It carries no payload.
type TipQuery struct{}

// TipReply answers a TipQuery with the responder's current tips.
type TipReply struct {
	Tips []types.ID
}

// EventRequest asks for up to K_BATCH events by id.
type EventRequest struct {
	IDs []types.ID
}

// EventReply answers an EventRequest; missing ids are simply omitted,
// so len(Events) may be less than the requested id count.
type EventReply struct {
	Events []types.Event
}

// EventPut is unsolicited gossip of one newly admitted event.
type EventPut struct {
	Event types.Event
}

// Encode serializes a message with its tag and a u32 length prefix at
// the transport boundary, per spec.md §6.3.
func Encode(tag MessageTag, body []byte) []byte {
	out := make([]byte, 1+4+len(body))
	out[0] = byte(tag)
	binary.BigEndian.PutUint32(out[1:5], uint32(len(body)))
	copy(out[5:], body)
	return out
}

// DecodeEnvelope splits a received frame into its tag and body, without
// interpreting the body — callers dispatch on tag to the matching
// encode/decode pair below.
func DecodeEnvelope(frame []byte) (MessageTag, []byte, error) {
	if len(frame) < 5 {
		return 0, nil, fmt.Errorf("syncengine: frame too short (%d bytes)", len(frame))
	}
	tag := MessageTag(frame[0])
	n := binary.BigEndian.Uint32(frame[1:5])
	if uint32(len(frame)-5) != n {
		return 0, nil, fmt.Errorf("syncengine: length prefix %d does not match body %d", n, len(frame)-5)
	}
	return tag, frame[5:], nil
}

func encodeIDs(ids []types.ID) []byte {
	out := make([]byte, 4+len(ids)*types.IDSize)
	binary.BigEndian.PutUint32(out[:4], uint32(len(ids)))
	for i, id := range ids {
		copy(out[4+i*types.IDSize:], id[:])
	}
	return out
}

func decodeIDs(data []byte) ([]types.ID, []byte, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("syncengine: truncated id count")
	}
	n := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	ids := make([]types.ID, n)
	for i := range ids {
		if len(data) < types.IDSize {
			return nil, nil, fmt.Errorf("syncengine: truncated id list at index %d", i)
		}
		copy(ids[i][:], data[:types.IDSize])
		data = data[types.IDSize:]
	}
	return ids, data, nil
}

// EncodeTipReply serializes a TipReply body.
func EncodeTipReply(m TipReply) []byte {
	return encodeIDs(m.Tips)
}

// DecodeTipReply parses a TipReply body.
func DecodeTipReply(body []byte) (TipReply, error) {
	ids, _, err := decodeIDs(body)
	if err != nil {
		return TipReply{}, fmt.Errorf("syncengine: decode TipReply: %w", err)
	}
	return TipReply{Tips: ids}, nil
}

// EncodeEventRequest serializes an EventRequest body.
func EncodeEventRequest(m EventRequest) []byte {
	return encodeIDs(m.IDs)
}

// DecodeEventRequest parses an EventRequest body.
func DecodeEventRequest(body []byte) (EventRequest, error) {
	ids, _, err := decodeIDs(body)
	if err != nil {
		return EventRequest{}, fmt.Errorf("syncengine: decode EventRequest: %w", err)
	}
	return EventRequest{IDs: ids}, nil
}

// EncodeEventReply serializes an EventReply body: a u32 count followed
// by each event's canonical wire encoding, itself length-prefixed so
// variable-length payloads can be parsed back out.
func EncodeEventReply(m EventReply) []byte {
	var out []byte
	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, uint32(len(m.Events)))
	out = append(out, count...)
	for _, e := range m.Events {
		enc := types.Encode(e)
		lp := make([]byte, 4)
		binary.BigEndian.PutUint32(lp, uint32(len(enc)))
		out = append(out, lp...)
		out = append(out, enc...)
	}
	return out
}

// DecodeEventReply parses an EventReply body.
func DecodeEventReply(body []byte) (EventReply, error) {
	if len(body) < 4 {
		return EventReply{}, fmt.Errorf("syncengine: decode EventReply: truncated count")
	}
	n := binary.BigEndian.Uint32(body[:4])
	body = body[4:]
	events := make([]types.Event, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(body) < 4 {
			return EventReply{}, fmt.Errorf("syncengine: decode EventReply: truncated length at event %d", i)
		}
		elen := binary.BigEndian.Uint32(body[:4])
		body = body[4:]
		if uint32(len(body)) < elen {
			return EventReply{}, fmt.Errorf("syncengine: decode EventReply: truncated event %d", i)
		}
		e, err := types.Decode(body[:elen])
		if err != nil {
			return EventReply{}, fmt.Errorf("syncengine: decode EventReply event %d: %w", i, err)
		}
		events = append(events, e)
		body = body[elen:]
	}
	return EventReply{Events: events}, nil
}

// EncodeEventPut serializes an EventPut body.
func EncodeEventPut(m EventPut) []byte {
	return types.Encode(m.Event)
}

// DecodeEventPut parses an EventPut body.
func DecodeEventPut(body []byte) (EventPut, error) {
	e, err := types.Decode(body)
	if err != nil {
		return EventPut{}, fmt.Errorf("syncengine: decode EventPut: %w", err)
	}
	return EventPut{Event: e}, nil
}

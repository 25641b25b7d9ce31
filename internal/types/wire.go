package types

import (
	"encoding/binary"
	"fmt"
)

// WireVersion is the only canonical event encoding version this package
// knows how to produce or consume.
const WireVersion = 1

// Encode produces the canonical big-endian serialization of e per
// spec.md §6.3:
//
//	u8  version (=1)
//	u8  num_parents
//	num_parents x 32-byte parent-id
//	u64 timestamp-ms
//	u64 layer
//	u32 payload-len
//	payload-len bytes
//
// Encode never fails: callers are expected to validate parent count and
// payload size (Validator's job, §4.4) before this is called for hashing
// or wire transmission. Encoding a value that violates those bounds still
// produces deterministic bytes — Encode itself has no opinion on limits.
func Encode(e Event) []byte {
	buf := make([]byte, 0, 2+len(e.Parents)*IDSize+8+8+4+len(e.Payload))
	buf = append(buf, WireVersion, byte(len(e.Parents)))
	for _, p := range e.Parents {
		buf = append(buf, p[:]...)
	}
	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], uint64(e.Timestamp))
	buf = append(buf, tmp8[:]...)
	binary.BigEndian.PutUint64(tmp8[:], e.Layer)
	buf = append(buf, tmp8[:]...)
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(e.Payload)))
	buf = append(buf, tmp4[:]...)
	buf = append(buf, e.Payload...)
	return buf
}

// Decode parses the canonical encoding produced by Encode. It validates
// structural well-formedness (enough bytes present, declared lengths
// match) but not semantic limits (payload size vs. Config.PayloadMax,
// parent count vs. Config.NParents) — that remains the Validator's job,
// so the same Decode can be reused to inspect an event before deciding
// whether to admit it.
func Decode(data []byte) (Event, error) {
	if len(data) < 2 {
		return Event{}, fmt.Errorf("types: truncated event header (%d bytes)", len(data))
	}
	version := data[0]
	if version != WireVersion {
		return Event{}, fmt.Errorf("types: unsupported wire version %d", version)
	}
	numParents := int(data[1])
	off := 2

	need := off + numParents*IDSize + 8 + 8 + 4
	if len(data) < need {
		return Event{}, fmt.Errorf("types: truncated event body: need %d bytes, have %d", need, len(data))
	}

	var parents []ID
	if numParents > 0 {
		parents = make([]ID, numParents)
	}
	for i := 0; i < numParents; i++ {
		copy(parents[i][:], data[off:off+IDSize])
		off += IDSize
	}

	timestamp := int64(binary.BigEndian.Uint64(data[off : off+8]))
	off += 8
	layer := binary.BigEndian.Uint64(data[off : off+8])
	off += 8
	payloadLen := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4

	if len(data) < off+payloadLen {
		return Event{}, fmt.Errorf("types: truncated payload: need %d bytes, have %d", off+payloadLen, len(data))
	}
	payload := append([]byte(nil), data[off:off+payloadLen]...)

	return Event{
		Parents:   parents,
		Payload:   payload,
		Timestamp: timestamp,
		Layer:     layer,
	}, nil
}

package syncengine_test

import (
	"testing"

	"github.com/darkfi-go/eventgraph/internal/syncengine"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/stretchr/testify/require"
)

func id(b byte) types.ID {
	var i types.ID
	i[0] = b
	return i
}

func TestTipReplyRoundTrip(t *testing.T) {
	m := syncengine.TipReply{Tips: []types.ID{id(1), id(2)}}
	frame := syncengine.Encode(syncengine.TagTipReply, syncengine.EncodeTipReply(m))

	tag, body, err := syncengine.DecodeEnvelope(frame)
	require.NoError(t, err)
	require.Equal(t, syncengine.TagTipReply, tag)

	got, err := syncengine.DecodeTipReply(body)
	require.NoError(t, err)
	require.Equal(t, m.Tips, got.Tips)
}

func TestEventRequestRoundTrip(t *testing.T) {
	m := syncengine.EventRequest{IDs: []types.ID{id(5)}}
	frame := syncengine.Encode(syncengine.TagEventRequest, syncengine.EncodeEventRequest(m))
	_, body, err := syncengine.DecodeEnvelope(frame)
	require.NoError(t, err)

	got, err := syncengine.DecodeEventRequest(body)
	require.NoError(t, err)
	require.Equal(t, m.IDs, got.IDs)
}

func TestEventReplyRoundTrip(t *testing.T) {
	e1 := types.Event{Timestamp: 10, Layer: 0}
	e2 := types.Event{Parents: []types.ID{e1.ID()}, Payload: []byte("x"), Timestamp: 20, Layer: 1}

	m := syncengine.EventReply{Events: []types.Event{e1, e2}}
	frame := syncengine.Encode(syncengine.TagEventReply, syncengine.EncodeEventReply(m))
	_, body, err := syncengine.DecodeEnvelope(frame)
	require.NoError(t, err)

	got, err := syncengine.DecodeEventReply(body)
	require.NoError(t, err)
	require.Len(t, got.Events, 2)
	require.Equal(t, e1.ID(), got.Events[0].ID())
	require.Equal(t, e2.ID(), got.Events[1].ID())
}

func TestEventPutRoundTrip(t *testing.T) {
	e := types.Event{Timestamp: 1, Layer: 0}
	m := syncengine.EventPut{Event: e}
	frame := syncengine.Encode(syncengine.TagEventPut, syncengine.EncodeEventPut(m))
	_, body, err := syncengine.DecodeEnvelope(frame)
	require.NoError(t, err)

	got, err := syncengine.DecodeEventPut(body)
	require.NoError(t, err)
	require.Equal(t, e.ID(), got.Event.ID())
}

func TestDecodeEnvelopeRejectsLengthMismatch(t *testing.T) {
	frame := syncengine.Encode(syncengine.TagTipQuery, []byte("abc"))
	frame = frame[:len(frame)-1] // truncate body by one byte
	_, _, err := syncengine.DecodeEnvelope(frame)
	require.Error(t, err)
}

package types_test

import (
	"testing"

	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := types.Event{
		Parents:   []types.ID{{1, 2, 3}, {4, 5, 6}},
		Payload:   []byte("hello darkfi"),
		Timestamp: 1_700_000_000_000,
		Layer:     7,
	}

	got, err := types.Decode(types.Encode(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestIDStableAcrossRoundTrip(t *testing.T) {
	e := types.Event{Payload: []byte("genesis")}
	id1 := e.ID()

	decoded, err := types.Decode(types.Encode(e))
	require.NoError(t, err)
	require.Equal(t, id1, decoded.ID())
}

func TestDecodeTruncated(t *testing.T) {
	_, err := types.Decode([]byte{1})
	require.Error(t, err)

	e := types.Event{Payload: []byte("x")}
	full := types.Encode(e)
	_, err = types.Decode(full[:len(full)-1])
	require.Error(t, err)
}

func TestEmptyPayloadAccepted(t *testing.T) {
	e := types.Event{Payload: nil}
	got, err := types.Decode(types.Encode(e))
	require.NoError(t, err)
	require.Empty(t, got.Payload)
}

type fakeLookup map[types.ID]uint64

func (f fakeLookup) LayerOf(id types.ID) (uint64, bool) {
	l, ok := f[id]
	return l, ok
}

func TestNewComputesLayerFromParents(t *testing.T) {
	genesis := types.ID{0xAA}
	p1 := types.ID{0x01}
	p2 := types.ID{0x02}
	lookup := fakeLookup{p1: 3, p2: 5}

	e, err := types.New([]types.ID{p1, p2, genesis}, []byte("x"), 1000, genesis, lookup)
	require.NoError(t, err)
	require.Equal(t, uint64(6), e.Layer)
}

func TestNewGenesisHasNoParents(t *testing.T) {
	e, err := types.New(nil, []byte("genesis payload"), 0, types.ID{}, fakeLookup{})
	require.NoError(t, err)
	require.Equal(t, uint64(0), e.Layer)
	require.Empty(t, e.Parents)
}

func TestNewMissingParentErrors(t *testing.T) {
	genesis := types.ID{0xAA}
	unknown := types.ID{0xFF}
	_, err := types.New([]types.ID{unknown}, []byte("x"), 0, genesis, fakeLookup{})
	require.Error(t, err)
}

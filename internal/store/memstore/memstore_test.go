package memstore_test

import (
	"testing"

	"github.com/darkfi-go/eventgraph/internal/store/memstore"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
	"github.com/stretchr/testify/require"
)

func TestGenesisNotFoundOnEmptyStore(t *testing.T) {
	s := memstore.New()
	_, err := s.Genesis()
	require.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := memstore.New()
	e := types.Event{Timestamp: 1000}
	require.NoError(t, s.Put(e))

	got, ok, err := s.Get(e.ID())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, e, got)
}

func TestPutIsIdempotent(t *testing.T) {
	s := memstore.New()
	e := types.Event{Timestamp: 42}
	require.NoError(t, s.Put(e))
	require.NoError(t, s.Put(e))

	ids, err := s.ScanFromLayer(0)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestScanFromLayerOrdering(t *testing.T) {
	s := memstore.New()
	genesis := types.Event{Timestamp: 0}
	require.NoError(t, s.Put(genesis))
	require.NoError(t, s.SetGenesis(genesis.ID()))

	e1, err := types.New(nil, []byte("a"), 1, genesis.ID(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(e1))

	ids, err := s.ScanFromLayer(0)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	// Both events sit at layer 0, so they are ordered by id string.
	require.True(t, ids[0].String() < ids[1].String())
}

func TestDeleteBatchRemoves(t *testing.T) {
	s := memstore.New()
	e := types.Event{Timestamp: 7}
	require.NoError(t, s.Put(e))
	require.NoError(t, s.DeleteBatch([]types.ID{e.ID()}))

	has, err := s.Has(e.ID())
	require.NoError(t, err)
	require.False(t, has)
}

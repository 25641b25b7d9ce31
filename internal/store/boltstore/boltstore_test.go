package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/darkfi-go/eventgraph/internal/store/boltstore"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *boltstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventgraph.db")
	s, err := boltstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGenesisNotFoundOnEmptyStore(t *testing.T) {
	s := open(t)
	_, err := s.Genesis()
	require.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := open(t)
	e := types.Event{Timestamp: 1000, Layer: 0}
	require.NoError(t, s.Put(e))

	got, ok, err := s.Get(e.ID())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, e, got)
}

func TestPutIsIdempotent(t *testing.T) {
	s := open(t)
	e := types.Event{Timestamp: 42}
	require.NoError(t, s.Put(e))
	require.NoError(t, s.Put(e))

	ids, err := s.ScanFromLayer(0)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestSetGenesisPersists(t *testing.T) {
	s := open(t)
	e := types.Event{Timestamp: 1}
	require.NoError(t, s.SetGenesis(e.ID()))

	got, err := s.Genesis()
	require.NoError(t, err)
	require.Equal(t, e.ID(), got)
}

func TestDeleteBatchRemovesFromOrderIndex(t *testing.T) {
	s := open(t)
	e := types.Event{Timestamp: 5, Layer: 3}
	require.NoError(t, s.Put(e))
	require.NoError(t, s.DeleteBatch([]types.ID{e.ID()}))

	ids, err := s.ScanFromLayer(0)
	require.NoError(t, err)
	require.Len(t, ids, 0)

	has, err := s.Has(e.ID())
	require.NoError(t, err)
	require.False(t, has)
}

func TestReopenPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventgraph.db")
	s1, err := boltstore.Open(path)
	require.NoError(t, err)
	e := types.Event{Timestamp: 99, Layer: 1}
	require.NoError(t, s1.Put(e))
	require.NoError(t, s1.Close())

	s2, err := boltstore.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get(e.ID())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, e, got)
}

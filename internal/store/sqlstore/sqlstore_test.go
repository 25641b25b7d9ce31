package sqlstore_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/dolthub/driver"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/darkfi-go/eventgraph/internal/store/sqlstore"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

// openTestStore spins up a throwaway Dolt server via testcontainers-go
// and connects sqlstore to it. Skipped under -short: this needs a
// container runtime, unlike boltstore/memstore's tests.
func openTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("sqlstore integration tests require a container runtime; skipped under -short")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := dolt.Run(ctx, "dolthub/dolt-sql-server:latest")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := sqlstore.Open("dolt", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGenesisNotFoundOnEmptyStore(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Genesis()
	require.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ev := types.Event{Payload: []byte("hello"), Timestamp: 100, Layer: 0}
	require.NoError(t, s.Put(ev))

	got, ok, err := s.Get(ev.ID())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ev.Payload, got.Payload)
	require.Equal(t, ev.Layer, got.Layer)
}

func TestScanFromLayerOrdering(t *testing.T) {
	s := openTestStore(t)
	genesis := types.Event{Timestamp: 1, Layer: 0}
	require.NoError(t, s.Put(genesis))
	require.NoError(t, s.SetGenesis(genesis.ID()))

	child, err := types.New([]types.ID{genesis.ID()}, []byte("c"), 2, genesis.ID(), storeLookup{s})
	require.NoError(t, err)
	require.NoError(t, s.Put(child))

	ids, err := s.ScanFromLayer(0)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Equal(t, genesis.ID(), ids[0])
	require.Equal(t, child.ID(), ids[1])
}

func TestDeleteBatchRemoves(t *testing.T) {
	s := openTestStore(t)
	ev := types.Event{Payload: []byte("x"), Timestamp: 1, Layer: 0}
	require.NoError(t, s.Put(ev))
	require.NoError(t, s.DeleteBatch([]types.ID{ev.ID()}))

	has, err := s.Has(ev.ID())
	require.NoError(t, err)
	require.False(t, has)
}

type storeLookup struct{ s *sqlstore.Store }

func (l storeLookup) LayerOf(id types.ID) (uint64, bool) {
	e, ok, err := l.s.Get(id)
	if err != nil || !ok {
		return 0, false
	}
	return e.Layer, true
}

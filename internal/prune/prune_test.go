package prune_test

import (
	"context"
	"testing"
	"time"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/prune"
	"github.com/darkfi-go/eventgraph/internal/store"
	"github.com/darkfi-go/eventgraph/internal/store/memstore"
	"github.com/darkfi-go/eventgraph/internal/tipset"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T, s store.Store, n int) []types.Event {
	t.Helper()
	genesis := types.Event{Timestamp: 0, Layer: 0}
	require.NoError(t, s.Put(genesis))
	require.NoError(t, s.SetGenesis(genesis.ID()))

	events := []types.Event{genesis}
	prev := genesis
	for i := 1; i <= n; i++ {
		e, err := types.New([]types.ID{prev.ID()}, nil, int64(i), genesis.ID(), store.LayerLookup{Store: s})
		require.NoError(t, err)
		require.NoError(t, s.Put(e))
		events = append(events, e)
		prev = e
	}
	return events
}

func TestRunLayerFloorDeletesBelowFloor(t *testing.T) {
	s := memstore.New()
	events := chain(t, s, 10)
	tips := tipset.New()
	for _, e := range events {
		tips.OnInsert(e.ID(), e.Parents)
	}

	p := prune.New(s, tips, &prune.PruneConfig{RetainLayers: 3})
	res, err := p.RunLayerFloor(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(7), res.Floor) // maxLayer=10, retain=3

	// events[0] is genesis: it sits at layer 0 but is never pruned.
	has, err := s.Has(events[0].ID())
	require.NoError(t, err)
	require.True(t, has, "genesis must survive pruning")

	for _, e := range events[1:] {
		if e.Layer < res.Floor {
			has, err := s.Has(e.ID())
			require.NoError(t, err)
			require.False(t, has, "layer %d should be pruned", e.Layer)
		}
	}
}

func TestRunLayerFloorDryRunDeletesNothing(t *testing.T) {
	s := memstore.New()
	events := chain(t, s, 10)
	tips := tipset.New()
	for _, e := range events {
		tips.OnInsert(e.ID(), e.Parents)
	}

	p := prune.New(s, tips, &prune.PruneConfig{RetainLayers: 3, DryRun: true})
	res, err := p.RunLayerFloor(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Deleted)

	for _, e := range events {
		has, err := s.Has(e.ID())
		require.NoError(t, err)
		require.True(t, has)
	}
}

func TestFingerprintDeterministicRegardlessOfOrder(t *testing.T) {
	var a, b types.ID
	a[0], b[0] = 1, 2

	fp1 := prune.Fingerprint([]types.ID{a, b})
	fp2 := prune.Fingerprint([]types.ID{b, a})
	require.Equal(t, fp1, fp2)
}

func TestRunGenesisRotationResetsTips(t *testing.T) {
	s := memstore.New()
	events := chain(t, s, 3)
	tips := tipset.New()
	for _, e := range events {
		tips.OnInsert(e.ID(), e.Parents)
	}

	p := prune.New(s, tips, &prune.PruneConfig{})
	res, err := p.RunGenesisRotation(time.Unix(86400, 0))
	require.NoError(t, err)

	require.Equal(t, []types.ID{res.NewGenesis.ID()}, tips.Tips())
	got, err := s.Genesis()
	require.NoError(t, err)
	require.Equal(t, res.NewGenesis.ID(), got)
}

func TestNextRotationRollsToTomorrowIfPast(t *testing.T) {
	sched := config.RotationSchedule{AtHour: 0, AtMinute: 0}
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	next := prune.NextRotation(sched, now)
	require.Equal(t, 2026, next.Year())
	require.Equal(t, time.August, next.Month())
	require.Equal(t, 1, next.Day())
}

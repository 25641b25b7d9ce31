package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/darkfi-go/eventgraph/internal/diagnostics"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/stretchr/testify/require"
)

func TestRenderIncludesAllSignals(t *testing.T) {
	var genesis, tip types.ID
	genesis[0] = 1
	tip[0] = 2

	out := diagnostics.Render(diagnostics.Snapshot{
		SyncStatus: "syncing",
		PeerCount:  3,
		DAGSynced:  false,
		Tips:       []types.ID{tip},
		Genesis:    genesis,
	})

	require.True(t, strings.Contains(out, "sync_status:"))
	require.True(t, strings.Contains(out, "peer_count:"))
	require.True(t, strings.Contains(out, "dag_synced:"))
	require.True(t, strings.Contains(out, "genesis:"))
	require.True(t, strings.Contains(out, "tips:"))
}

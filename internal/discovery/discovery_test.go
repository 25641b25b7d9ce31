package discovery_test

import (
	"context"
	"testing"

	"github.com/darkfi-go/eventgraph/internal/discovery"
	"github.com/darkfi-go/eventgraph/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSeedPeersStatic(t *testing.T) {
	peers, err := discovery.DiscoverSeedPeers(context.Background(), []discovery.SourceConfig{
		{Type: discovery.SourceTypeStatic, Seeds: []string{"peer-a", "peer-b"}},
	})
	require.NoError(t, err)
	require.Equal(t, []transport.PeerID{"peer-a", "peer-b"}, peers)
}

func TestDiscoverSeedPeersSkipsUnknownType(t *testing.T) {
	peers, err := discovery.DiscoverSeedPeers(context.Background(), []discovery.SourceConfig{
		{Type: "dns"},
	})
	require.NoError(t, err)
	require.Empty(t, peers)
}

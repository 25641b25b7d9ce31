package discovery

import (
	"context"

	"github.com/darkfi-go/eventgraph/internal/transport"
)

// StaticSource returns a fixed, config-supplied list of seed peers —
// the common case for a small or private deployment where peer
// identities are known in advance.
type StaticSource struct {
	seeds []string
}

// NewStaticSource constructs a StaticSource from raw seed strings.
func NewStaticSource(seeds []string) *StaticSource {
	return &StaticSource{seeds: seeds}
}

func (s *StaticSource) Name() string { return SourceTypeStatic }

func (s *StaticSource) Discover(ctx context.Context) ([]transport.PeerID, error) {
	out := make([]transport.PeerID, len(s.seeds))
	for i, seed := range s.seeds {
		out[i] = transport.PeerID(seed)
	}
	return out, nil
}

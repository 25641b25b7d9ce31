// Package discovery resolves the initial seed-peer list a node dials
// at startup before the sync engine's own presence-beacon mechanism
// (internal/transport/nats) takes over discovering further peers.
// Repurposed from the teacher's resource-discovery package
// (internal/discovery/discovery.go, local.go) — same
// Source/aggregate-from-configured-sources shape, generalized from
// "resource sources" (local files, Linear tickets) to "peer sources"
// (a static seed list; more kinds can be added the same way).
package discovery

import (
	"context"
	"fmt"
	"os"

	"github.com/darkfi-go/eventgraph/internal/transport"
)

const SourceTypeStatic = "static"

// SourceConfig names one peer-seed source, analogous to the teacher's
// resources.sources config section.
type SourceConfig struct {
	Type  string   `yaml:"type" toml:"type"`
	Seeds []string `yaml:"seeds" toml:"seeds"`
}

// Source discovers candidate peers to dial at startup.
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]transport.PeerID, error)
}

// DiscoverSeedPeers aggregates peers across every configured source,
// skipping (and warning about) unknown source types rather than
// failing the whole bootstrap.
func DiscoverSeedPeers(ctx context.Context, sources []SourceConfig) ([]transport.PeerID, error) {
	var all []transport.PeerID

	for _, sc := range sources {
		var src Source
		switch sc.Type {
		case SourceTypeStatic:
			src = NewStaticSource(sc.Seeds)
		default:
			fmt.Fprintf(os.Stderr, "discovery: unknown seed source type: %s\n", sc.Type)
			continue
		}

		peers, err := src.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("discovery: source %s: %w", sc.Type, err)
		}
		all = append(all, peers...)
	}

	return all, nil
}

package main

import (
	"fmt"
	"os"

	eventgraph "github.com/darkfi-go/eventgraph"
	"github.com/darkfi-go/eventgraph/internal/store/boltstore"
	"github.com/darkfi-go/eventgraph/internal/transport"
	natstransport "github.com/darkfi-go/eventgraph/internal/transport/nats"
)

// openGraph opens the on-disk store and dials the gossip transport,
// returning a ready-to-use Graph. Callers are responsible for closing
// the returned closer when done.
func openGraph() (*eventgraph.Graph, func(), error) {
	return open(false)
}

// openGraphOffline opens the on-disk store without dialing the gossip
// transport, for read-only inspection commands (status, tips) that
// should work even when no NATS server is reachable.
func openGraphOffline() (*eventgraph.Graph, func(), error) {
	return open(true)
}

func open(offline bool) (*eventgraph.Graph, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	s, err := boltstore.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}

	var tr transport.Transport
	var closeTransport func()

	if offline {
		tr = transport.Offline{}
		closeTransport = func() {}
	} else {
		peer := selfPeer
		if peer == "" {
			if h, err := os.Hostname(); err == nil {
				peer = h
			} else {
				peer = "evgraphd"
			}
		}
		nt, err := natstransport.Dial(natsURL, transport.PeerID(peer))
		if err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("dial nats %s: %w", natsURL, err)
		}
		tr = nt
		closeTransport = nt.Close
	}

	g, err := eventgraph.Open(cfg, s, tr)
	if err != nil {
		closeTransport()
		s.Close()
		return nil, nil, fmt.Errorf("open graph: %w", err)
	}

	closer := func() {
		closeTransport()
		s.Close()
	}
	return g, closer, nil
}

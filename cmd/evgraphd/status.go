package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/darkfi-go/eventgraph/internal/diagnostics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print sync_status, peer_count, dag_synced, and the current tip set",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, closer, err := openGraphOffline()
		if err != nil {
			return err
		}
		defer closer()

		genesis, err := g.Genesis()
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}

		snap := diagnostics.Snapshot{
			SyncStatus: g.SyncStatus(),
			PeerCount:  g.PeerCount(),
			DAGSynced:  g.DAGSynced(),
			Tips:       g.Tips(),
			Genesis:    genesis,
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"sync_status": snap.SyncStatus,
				"peer_count":  snap.PeerCount,
				"dag_synced":  snap.DAGSynced,
				"genesis":     genesis.String(),
				"tip_count":   len(snap.Tips),
			})
		}
		fmt.Print(diagnostics.Render(snap))
		return nil
	},
}

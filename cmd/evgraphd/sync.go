package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "run one join/catch-up pass against currently connected peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, closer, err := openGraph()
		if err != nil {
			return err
		}
		defer closer()

		if err := g.JoinOnce(rootCtx); err != nil {
			return err
		}
		fmt.Println("sync_status:", g.SyncStatus())
		return nil
	},
}

// Command evgraphd is the Event Graph daemon and operator CLI: it runs
// the sync engine and pruning loop as a background service, and exposes
// author/status/tips/sync/rotate subcommands for local operation.
//
// Grounded on the teacher's cmd/bd/main.go cobra-root idiom (persistent
// flags, signal-aware root context, package-level shared state), trimmed
// to the handful of operations this spec exposes instead of bd's full
// issue-tracker surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darkfi-go/eventgraph/internal/config"
)

var (
	dbPath     string
	natsURL    string
	selfPeer   string
	configDir  string
	jsonOutput bool

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "evgraphd",
	Short: "evgraphd - gossip-replicated event graph daemon and CLI",
	Long:  `A content-addressed, causally-ordered event DAG replicated over NATS gossip.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	},
}

// loadConfig reads config.toml/config.yaml from configDir and layers the
// EVGRAPH_N_PARENTS, EVGRAPH_RETAIN_LAYERS and EVGRAPH_MIN_PEERS
// environment variables on top, per internal/config/load.go.
func loadConfig() (config.Config, error) {
	v := viper.New()
	return config.LoadWithOverrides(configDir, v)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "eventgraph.db", "path to the bbolt store file")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats-url", "nats://127.0.0.1:4222", "NATS server URL for gossip transport")
	rootCmd.PersistentFlags().StringVar(&selfPeer, "peer-id", "", "this node's peer id (defaults to hostname)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.toml (or legacy config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")

	rootCmd.AddCommand(daemonCmd, authorCmd, statusCmd, tipsCmd, syncCmd, rotateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "evgraphd:", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/darkfi-go/eventgraph/internal/config"
	"github.com/darkfi-go/eventgraph/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "run the sync engine and pruning loop in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, closer, err := openGraph()
		if err != nil {
			return err
		}
		defer closer()

		exporter, err := stdoutmetric.New(stdoutmetric.WithoutTimestamps())
		if err != nil {
			return fmt.Errorf("metrics exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))),
		)
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				log.Printf("evgraphd: metrics shutdown: %v", err)
			}
		}()
		otel.SetMeterProvider(mp)

		meter := mp.Meter("github.com/darkfi-go/eventgraph")
		recorder, err := metrics.New(meter, g)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		g.SetRecorder(recorder)

		watcher, err := config.WatchSafeTunables(configDir, func(retainLayers uint64, _ time.Duration) {
			g.SetRetainLayers(retainLayers)
			log.Printf("evgraphd: reloaded retain_layers=%d from %s", retainLayers, configDir)
		})
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer watcher.Close()

		go g.RunPruneLoop(rootCtx)

		log.Println("evgraphd: starting sync engine")
		return g.Run(rootCtx)
	},
}

// Package metrics exports the operational signals of spec.md §6.2
// (sync_status, peer_count, dag_synced) plus admission latency via
// OpenTelemetry's metric API, matching the teacher's otel-based
// instrumentation in internal/hooks (tracing there, metrics here —
// same SDK family, go.opentelemetry.io/otel).
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/darkfi-go/eventgraph"

// StatusProvider is queried on each observation callback. The graph
// facade implements this by delegating to its syncengine.Engine.
type StatusProvider interface {
	SyncStatusString() string
	PeerCount() int
	DAGSynced() bool
}

// Recorder holds the instruments registered against a meter.
type Recorder struct {
	admissionLatency metric.Float64Histogram
}

// New registers the Event Graph's instruments against meter, wiring
// the three operational gauges as asynchronous observable instruments
// backed by provider, and returns a Recorder for the synchronous
// admission-latency histogram.
func New(meter metric.Meter, provider StatusProvider) (*Recorder, error) {
	peerCount, err := meter.Int64ObservableGauge(
		"eventgraph.peer_count",
		metric.WithDescription("number of currently connected peers"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: peer_count gauge: %w", err)
	}

	dagSynced, err := meter.Int64ObservableGauge(
		"eventgraph.dag_synced",
		metric.WithDescription("1 if the DAG is believed fully synced, else 0"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: dag_synced gauge: %w", err)
	}

	syncStatus, err := meter.Int64ObservableGauge(
		"eventgraph.sync_status",
		metric.WithDescription("0=idle 1=syncing 2=backfilling 3=failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: sync_status gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		o.ObserveInt64(peerCount, int64(provider.PeerCount()))
		if provider.DAGSynced() {
			o.ObserveInt64(dagSynced, 1)
		} else {
			o.ObserveInt64(dagSynced, 0)
		}
		o.ObserveInt64(syncStatus, statusCode(provider.SyncStatusString()))
		return nil
	}, peerCount, dagSynced, syncStatus)
	if err != nil {
		return nil, fmt.Errorf("metrics: register callback: %w", err)
	}

	admissionLatency, err := meter.Float64Histogram(
		"eventgraph.admission_latency_ms",
		metric.WithDescription("time spent in the admission critical section"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: admission_latency histogram: %w", err)
	}

	return &Recorder{admissionLatency: admissionLatency}, nil
}

// RecordAdmission records how long one Admit call took, in milliseconds.
func (r *Recorder) RecordAdmission(ctx context.Context, ms float64) {
	r.admissionLatency.Record(ctx, ms)
}

func statusCode(s string) int64 {
	switch s {
	case "idle":
		return 0
	case "syncing":
		return 1
	case "backfilling":
		return 2
	case "failed":
		return 3
	default:
		return -1
	}
}

// Package config is the Event Graph's single source of tunables.
//
// Per spec.md §9 ("replace global mutable state"), every constructor in
// this module takes an explicit Config value — there is no package-level
// state anywhere in the Event Graph. Config is loaded once at process
// startup (see LoadFile in load.go) and threaded through the graph's
// constructor.
package config

import "time"

// Config holds every tunable named in spec.md §5 and §4.
type Config struct {
	// NParents is the maximum number of parents a non-genesis event may
	// declare (spec.md §3.1). Recommended: 5.
	NParents int

	// PayloadMax is the maximum payload size in bytes (§3.1, §4.4 rule 5).
	// Recommended: 64 KiB.
	PayloadMax int

	// TSDrift bounds how far into the future (relative to the receiver's
	// clock) a timestamp may be before FutureTimestamp fires (§4.4 rule 6).
	TSDrift time.Duration

	// OrphanTTL is how long an orphaned event may wait for its parents
	// before it is dropped with UnresolvableOrphan (§4.4 rule 3).
	OrphanTTL time.Duration

	// OrphanMaxDepth bounds how many unresolved ancestor lookups an
	// orphan may trigger before it is dropped (§4.4 rule 3).
	OrphanMaxDepth int

	// RetainLayers is the sliding-window size for layer-floor pruning
	// (§4.6a): floor = max_layer - RetainLayers.
	RetainLayers uint64

	// PruneInterval is how often the pruner runs its layer-floor pass
	// (§4.6a). Recommended: 1h.
	PruneInterval time.Duration

	// RotationSchedule describes when genesis rotation runs (§4.6b).
	RotationSchedule RotationSchedule

	// ReplyTimeout bounds TipQuery/EventRequest round trips (§4.5.5).
	ReplyTimeout time.Duration

	// CooloffSleep is the pause between sync attempts (§4.5.2 step 6).
	CooloffSleep time.Duration

	// SyncMaxAttempts bounds how many times the join/catch-up algorithm
	// retries before reporting SyncFailed (§4.5.2 step 6).
	SyncMaxAttempts int

	// MinPeers is the connectivity threshold that triggers a DAG-Sync run
	// (§4.5.2 step 1). Recommended: 2.
	MinPeers int

	// KBatch bounds how many ids a single EventRequest may ask for
	// (§4.5.1).
	KBatch int

	// KInflight caps how many per-peer EventRequest sends one backfill
	// batch runs at once (§5 "Backpressure"); requests already sent and
	// awaiting a reply are not counted.
	KInflight int

	// SeenSetCapacity bounds the consumer-facing replay-dedup FIFO
	// (§3.4). Recommended: O(10^3).
	SeenSetCapacity int
}

// RotationScheduleKind selects how genesis rotation is triggered. Only
// ScheduleDailyUTC is implemented: spec.md §9 leaves the exact schedule an
// open question and this repo resolves it to a UTC day boundary (see
// DESIGN.md) because it gives every peer an unambiguous,
// coordination-free trigger regardless of how many events they've seen.
type RotationScheduleKind string

const (
	ScheduleDailyUTC RotationScheduleKind = "daily-utc"
)

// RotationSchedule configures genesis rotation timing.
type RotationSchedule struct {
	Kind RotationScheduleKind
	// AtHour/AtMinute apply when Kind == ScheduleDailyUTC: the UTC
	// time-of-day the rotation fires. Defaults to midnight.
	AtHour   int
	AtMinute int
}

// Default returns the recommended configuration from spec.md §3–§5.
func Default() Config {
	return Config{
		NParents:         5,
		PayloadMax:       64 * 1024,
		TSDrift:          5 * time.Minute,
		OrphanTTL:        5 * time.Minute,
		OrphanMaxDepth:   32,
		RetainLayers:     10_000,
		PruneInterval:    time.Hour,
		RotationSchedule: RotationSchedule{Kind: ScheduleDailyUTC},
		ReplyTimeout:     30 * time.Second,
		CooloffSleep:     20 * time.Second,
		SyncMaxAttempts:  6,
		MinPeers:         2,
		KBatch:           64,
		KInflight:        8,
		SeenSetCapacity:  4096,
	}
}

// File-based loading (config.toml/config.yaml discovery, env/flag
// overrides via viper, and fsnotify hot reload of the safe tunables)
// lives in load.go: LoadFile, LoadWithOverrides, WatchSafeTunables.

// Package xerrors enumerates the Event Graph's error taxonomy (§7).
//
// Every admission/storage/sync failure mode is one of these sentinels,
// returned wrapped with fmt.Errorf("...: %w", ...) so callers can dispatch
// on errors.Is without string matching — the same style the teacher uses
// throughout internal/storage/sqlite/errors.go and internal/gate/gate.go's
// CheckResponse. Only ErrStorageCorrupt is meant to be fatal; everything
// else is handled locally per the propagation policy in spec.md §7.
package xerrors

import "errors"

var (
	// ErrDuplicateEvent: event already stored; silently ignored upstream,
	// logged at trace level by the caller.
	ErrDuplicateEvent = errors.New("event already stored")

	// ErrMissingParent: one or more parents unknown; the event is staged
	// as an orphan and a parent fetch is scheduled.
	ErrMissingParent = errors.New("parent not found in store")

	// ErrUnresolvableOrphan: orphan TTL or max ancestor-lookup depth
	// exceeded; the event is dropped.
	ErrUnresolvableOrphan = errors.New("orphan could not be resolved before TTL/depth limit")

	// ErrBadLayer: asserted layer does not equal 1 + max(parent layers).
	ErrBadLayer = errors.New("layer does not match 1 + max(parent layers)")

	// ErrOversizePayload: payload exceeds Config.PayloadMax.
	ErrOversizePayload = errors.New("payload exceeds maximum size")

	// ErrFutureTimestamp: timestamp is further in the future than
	// Config.TSDrift relative to the receiver's clock.
	ErrFutureTimestamp = errors.New("timestamp too far in the future")

	// ErrBadParentCount: |parents| is 0 (non-genesis) or > Config.NParents.
	ErrBadParentCount = errors.New("parent count out of bounds")

	// ErrStorageError: underlying storage I/O failure; propagated to the
	// admission caller, who may retry.
	ErrStorageError = errors.New("storage I/O failure")

	// ErrStorageCorrupt: a stored event references parents absent from
	// the store that are not below the genesis floor. Fatal — requires
	// operator intervention (see spec.md §4.2).
	ErrStorageCorrupt = errors.New("store is corrupt: parent missing and not below genesis floor")

	// ErrSyncFailed: SYNC_MAX_ATTEMPTS exhausted with a non-empty staging
	// map; surfaced to the operator, never a process crash.
	ErrSyncFailed = errors.New("sync did not converge within the configured attempt budget")

	// ErrNotFound is a general not-found signal used by store backends,
	// distinct from the above admission-facing kinds.
	ErrNotFound = errors.New("not found")
)

// Package genstore keeps per-key generation counters. The session store
// stamps every record with the generation current at write time and treats
// records carrying any other generation as stale.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use Local (default) for in-process gens, or Redis for gens shared between
// replicas and surviving restarts.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

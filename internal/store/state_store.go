package store

import (
	"context"

	"salestrack/types"
)

// Storage keys for the persisted queue state. The summary is written beside
// the item list so a consumer reading after a mutation never sees one without
// the other.
const (
	ItemsKey   = "goals_async_queue_v2"
	SummaryKey = "goals_async_queue_summary"
)

// StateStore persists the full queue item list and its summary projection.
// Save must write both as one logical unit.
type StateStore interface {
	// Load returns the persisted item list, empty when nothing was stored yet.
	Load(ctx context.Context) ([]types.QueueItem, error)

	// Save rewrites the full item list and the summary projection.
	Save(ctx context.Context, items []types.QueueItem, summary types.QueueSummary) error

	// LoadSummary returns the last persisted summary projection.
	LoadSummary(ctx context.Context) (types.QueueSummary, error)

	// Close releases the underlying connection.
	Close() error
}

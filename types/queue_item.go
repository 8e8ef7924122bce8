package types

import "salestrack/internal/state"

// QueueItem is a single pending upsert owned by the write queue for its whole
// lifecycle. Timestamps are epoch milliseconds so the persisted JSON matches
// what summary consumers expect.
type QueueItem struct {
	ID            string            `json:"id"`
	Payload       map[string]any    `json:"payload"`
	Status        state.QueueStatus `json:"status"`
	Attempts      int               `json:"attempts"`
	LastError     string            `json:"lastError,omitempty"`
	NextAttemptAt int64             `json:"nextAttemptAt"`
	CreatedAt     int64             `json:"createdAt"`
	UpdatedAt     int64             `json:"updatedAt"`
}

// Terminal reports whether the item can never change again.
func (i QueueItem) Terminal() bool {
	return state.IsTerminal(i.Status)
}

// QueueSummary is a read-side projection over the full item list. It is
// recomputed from the list on every mutation and persisted beside it, but the
// list is always authoritative.
type QueueSummary struct {
	Total    int `json:"total"`
	Queued   int `json:"queued"`
	Retrying int `json:"retrying"`
	Success  int `json:"success"`
	Failed   int `json:"failed"`

	// NextAttemptAt is the earliest pending attempt across non-terminal
	// items, 0 when nothing is pending.
	NextAttemptAt int64 `json:"nextAttemptAt,omitempty"`
	At            int64 `json:"at"`
}

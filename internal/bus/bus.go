package bus

import (
	"context"

	"salestrack/types"
)

// ChannelSync is the broadcast channel name shared by all transports.
const ChannelSync = "ascm_sync"

// The two message kinds carried on the channel. Downstream consumers key off
// them differently: queue_update feeds the queue status widget, goals_updated
// tells collection readers to refetch.
const (
	TypeQueueUpdate  = "goals_queue_update"
	TypeGoalsUpdated = "goals_updated"
)

// Message is the envelope published on ChannelSync. Summary is set only for
// queue_update messages.
type Message struct {
	Type    string              `json:"type"`
	Summary *types.QueueSummary `json:"summary,omitempty"`
	At      int64               `json:"at"`
}

// NotificationBus broadcasts queue mutations to interested consumers,
// including ones in other processes when the transport supports it.
type NotificationBus interface {
	// Publish broadcasts msg to all subscribers.
	Publish(ctx context.Context, msg Message) error

	// Subscribe registers fn for messages of the given type; an empty type
	// matches everything. The returned function cancels the subscription.
	Subscribe(msgType string, fn func(Message)) (func(), error)

	// Close stops delivery to all subscribers.
	Close() error
}

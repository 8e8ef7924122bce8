package state

type QueueStatus string

const (
	StatusQueued   QueueStatus = "queued"
	StatusRetrying QueueStatus = "retrying"
	StatusSuccess  QueueStatus = "success"
	StatusFailed   QueueStatus = "failed"
)

var AllStatuses = []QueueStatus{
	StatusQueued,
	StatusRetrying,
	StatusSuccess,
	StatusFailed,
}

type StateTransition struct {
	From QueueStatus
	To   QueueStatus
}

// ValidTransitions encodes the forward-only item lifecycle. Retrying may loop
// on itself while attempts remain; success and failed are terminal.
var ValidTransitions = []StateTransition{
	{From: StatusQueued, To: StatusRetrying},
	{From: StatusRetrying, To: StatusRetrying},
	{From: StatusRetrying, To: StatusSuccess},
	{From: StatusRetrying, To: StatusFailed},
}

func IsValidTransition(from, to QueueStatus) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

func IsTerminal(s QueueStatus) bool {
	return s == StatusSuccess || s == StatusFailed
}

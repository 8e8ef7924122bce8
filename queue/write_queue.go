package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"salestrack/internal/bus"
	"salestrack/internal/clock"
	"salestrack/internal/metrics"
	"salestrack/internal/state"
	"salestrack/internal/store"
	"salestrack/types"
	"salestrack/types/config"
)

// ErrEmptyBatch is returned when EnqueueBatch is called with no payloads.
var ErrEmptyBatch = errors.New("enqueue batch: no payloads")

// Deliverer sends one sanitized upsert to the remote collection endpoint.
// A nil return means the write landed; every error is retryable.
type Deliverer interface {
	Upsert(ctx context.Context, payload, minimal map[string]any) error
}

// WriteQueue guarantees at-least-once delivery of enqueued upserts. Items
// move queued -> retrying -> (success | failed); the full item list plus its
// summary projection are rewritten to the store after every transition, and
// each mutation is broadcast on the notification bus.
//
// All bookkeeping (sanitization, transitions, persistence, summaries) is
// synchronous; only deliveries suspend. The read-modify-persist cycle is held
// under one mutex so no partial state is ever observable.
type WriteQueue struct {
	store     store.StateStore
	bus       bus.NotificationBus
	deliverer Deliverer
	clock     clock.Clock
	backoff   *Backoff
	logger    *zap.Logger

	allowedFields []string
	minimalFields []string
	maxAttempts   int
	workerCount   int

	mu       sync.Mutex
	inFlight atomic.Bool
}

// New builds a WriteQueue with injected storage, bus, delivery transport, and
// clock. The host application owns all of their lifetimes.
func New(
	cfg *config.Config,
	st store.StateStore,
	nb bus.NotificationBus,
	deliverer Deliverer,
	clk clock.Clock,
	logger *zap.Logger,
) *WriteQueue {
	return &WriteQueue{
		store:         st,
		bus:           nb,
		deliverer:     deliverer,
		clock:         clk,
		backoff:       NewBackoff(cfg.BaseDelay, cfg.MaxDelay, cfg.JitterRatio, 0),
		logger:        logger,
		allowedFields: cfg.AllowedFields,
		minimalFields: cfg.MinimalFields,
		maxAttempts:   cfg.MaxAttempts,
		workerCount:   cfg.WorkerCount,
	}
}

// EnqueueBatch sanitizes each payload against the allow-list, appends one
// queued item per payload, and persists the updated list. It never performs
// network I/O and errors only for a structurally invalid batch, in which case
// nothing is persisted.
func (q *WriteQueue) EnqueueBatch(ctx context.Context, payloads []map[string]any) (int, error) {
	if len(payloads) == 0 {
		return 0, ErrEmptyBatch
	}

	now := q.clock.Now().UnixMilli()
	newItems := make([]types.QueueItem, 0, len(payloads))
	for _, p := range payloads {
		newItems = append(newItems, types.QueueItem{
			ID:            uuid.New().String(),
			Payload:       Sanitize(p, q.allowedFields),
			Status:        state.StatusQueued,
			NextAttemptAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	q.mu.Lock()
	items, err := q.store.Load(ctx)
	if err != nil {
		q.mu.Unlock()
		return 0, err
	}
	items = append(items, newItems...)
	summary := q.computeSummary(items)
	if err := q.store.Save(ctx, items, summary); err != nil {
		q.mu.Unlock()
		return 0, err
	}
	q.mu.Unlock()

	metrics.EnqueuedTotal.Add(float64(len(newItems)))
	q.publishSummary(ctx, summary)
	q.logger.Info("enqueued batch", zap.Int("count", len(newItems)))
	return len(newItems), nil
}

// ProcessDue attempts delivery for every non-terminal item whose attempt time
// has arrived, bounded by the worker count. A tick that fires while a
// previous one is still running is skipped so attempts are never
// double-counted.
func (q *WriteQueue) ProcessDue(ctx context.Context) {
	if !q.inFlight.CompareAndSwap(false, true) {
		q.logger.Debug("previous scan still in flight, skipping tick")
		return
	}
	defer q.inFlight.Store(false)

	due, err := q.collectDue(ctx)
	if err != nil {
		q.logger.Error("collecting due items", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	sem := semaphore.NewWeighted(int64(q.workerCount))
	var wg sync.WaitGroup
	for _, item := range due {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)

		go func(item types.QueueItem) {
			defer sem.Release(1)
			defer wg.Done()
			q.deliverItem(ctx, item)
		}(item)
	}
	wg.Wait()
}

// Kick triggers an immediate scan outside the regular tick cadence.
func (q *WriteQueue) Kick(ctx context.Context) {
	q.ProcessDue(ctx)
}

// List returns the full persisted item set for diagnostics.
func (q *WriteQueue) List(ctx context.Context) ([]types.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Load(ctx)
}

// Summary recomputes the summary projection from the persisted item list, so
// it can never be stale relative to the items.
func (q *WriteQueue) Summary(ctx context.Context) (types.QueueSummary, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil {
		return types.QueueSummary{}, err
	}
	return q.computeSummary(items), nil
}

// Subscribe registers fn for summary changes, including ones broadcast from
// other processes, and invokes it once immediately with the current summary.
// The returned function cancels the subscription.
func (q *WriteQueue) Subscribe(ctx context.Context, fn func(types.QueueSummary)) (func(), error) {
	current, err := q.Summary(ctx)
	if err != nil {
		return nil, err
	}
	fn(current)

	return q.bus.Subscribe(bus.TypeQueueUpdate, func(m bus.Message) {
		if m.Summary != nil {
			fn(*m.Summary)
		}
	})
}

// collectDue marks every due item retrying, persists the transition once, and
// returns copies for delivery.
func (q *WriteQueue) collectDue(ctx context.Context) ([]types.QueueItem, error) {
	q.mu.Lock()

	items, err := q.store.Load(ctx)
	if err != nil {
		q.mu.Unlock()
		return nil, err
	}

	now := q.clock.Now().UnixMilli()
	var due []types.QueueItem
	for i := range items {
		item := &items[i]
		if item.Terminal() || item.NextAttemptAt > now {
			continue
		}
		if !state.IsValidTransition(item.Status, state.StatusRetrying) {
			continue
		}
		item.Status = state.StatusRetrying
		item.UpdatedAt = now
		due = append(due, *item)
	}
	if len(due) == 0 {
		q.mu.Unlock()
		return nil, nil
	}

	summary := q.computeSummary(items)
	if err := q.store.Save(ctx, items, summary); err != nil {
		q.mu.Unlock()
		return nil, err
	}
	q.mu.Unlock()

	q.publishSummary(ctx, summary)
	return due, nil
}

// deliverItem runs one delivery attempt and applies the outcome.
func (q *WriteQueue) deliverItem(ctx context.Context, item types.QueueItem) {
	start := time.Now()
	err := q.deliverer.Upsert(ctx, item.Payload, MinimalSubset(item.Payload, q.minimalFields))
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordDelivery("failure", elapsed)
		q.logger.Warn("delivery attempt failed",
			zap.String("item", item.ID),
			zap.Int("attempt", item.Attempts+1),
			zap.Error(err))
	} else {
		metrics.RecordDelivery("success", elapsed)
	}

	if applyErr := q.applyResult(ctx, item.ID, err); applyErr != nil {
		q.logger.Error("applying delivery result", zap.String("item", item.ID), zap.Error(applyErr))
	}
}

// applyResult records a completed attempt: success goes terminal and fires a
// goals_updated broadcast; failure either schedules the next attempt with
// backoff or, once attempts are exhausted, goes permanently failed.
func (q *WriteQueue) applyResult(ctx context.Context, itemID string, deliveryErr error) error {
	q.mu.Lock()

	items, err := q.store.Load(ctx)
	if err != nil {
		q.mu.Unlock()
		return err
	}

	now := q.clock.Now().UnixMilli()
	var delivered bool
	for i := range items {
		item := &items[i]
		if item.ID != itemID || item.Terminal() {
			continue
		}

		item.Attempts++
		item.UpdatedAt = now

		switch {
		case deliveryErr == nil:
			item.Status = state.StatusSuccess
			item.LastError = ""
			delivered = true
		case item.Attempts >= q.maxAttempts:
			item.Status = state.StatusFailed
			item.LastError = deliveryErr.Error()
			metrics.PermanentFailuresTotal.Inc()
			q.logger.Error("item permanently failed",
				zap.String("item", item.ID),
				zap.Int("attempts", item.Attempts))
		default:
			item.Status = state.StatusRetrying
			item.LastError = deliveryErr.Error()
			item.NextAttemptAt = now + q.backoff.Delay(item.Attempts).Milliseconds()
		}
		break
	}

	summary := q.computeSummary(items)
	if err := q.store.Save(ctx, items, summary); err != nil {
		q.mu.Unlock()
		return err
	}
	q.mu.Unlock()

	q.publishSummary(ctx, summary)
	if delivered {
		q.publish(ctx, bus.Message{Type: bus.TypeGoalsUpdated, At: now})
	}
	return nil
}

func (q *WriteQueue) computeSummary(items []types.QueueItem) types.QueueSummary {
	summary := types.QueueSummary{
		Total: len(items),
		At:    q.clock.Now().UnixMilli(),
	}

	counts := make(map[state.QueueStatus]int, len(state.AllStatuses))
	for _, item := range items {
		counts[item.Status]++
		if !item.Terminal() {
			if summary.NextAttemptAt == 0 || item.NextAttemptAt < summary.NextAttemptAt {
				summary.NextAttemptAt = item.NextAttemptAt
			}
		}
	}

	summary.Queued = counts[state.StatusQueued]
	summary.Retrying = counts[state.StatusRetrying]
	summary.Success = counts[state.StatusSuccess]
	summary.Failed = counts[state.StatusFailed]

	for _, status := range state.AllStatuses {
		metrics.ItemsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return summary
}

func (q *WriteQueue) publishSummary(ctx context.Context, summary types.QueueSummary) {
	q.publish(ctx, bus.Message{
		Type:    bus.TypeQueueUpdate,
		Summary: &summary,
		At:      summary.At,
	})
}

func (q *WriteQueue) publish(ctx context.Context, msg bus.Message) {
	if err := q.bus.Publish(ctx, msg); err != nil {
		q.logger.Warn("publishing notification", zap.String("type", msg.Type), zap.Error(err))
	}
}

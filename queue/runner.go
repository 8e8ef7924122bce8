package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner drives the periodic due-item scan. The overlapping-tick guard lives
// in WriteQueue.ProcessDue, so a slow scan simply causes later ticks to be
// skipped.
type Runner struct {
	queue    *WriteQueue
	cron     *cron.Cron
	interval time.Duration
	logger   *zap.Logger
}

func NewRunner(q *WriteQueue, interval time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		queue:    q,
		cron:     cron.New(),
		interval: interval,
		logger:   logger,
	}
}

// Start begins ticking until Stop is called or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	schedule := fmt.Sprintf("@every %s", r.interval)
	_, err := r.cron.AddFunc(schedule, func() {
		r.queue.ProcessDue(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule queue ticker: %w", err)
	}

	r.cron.Start()
	r.logger.Info("queue runner started", zap.Duration("interval", r.interval))

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the ticker and waits for a running scan to finish.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.logger.Info("queue runner stopped")
}

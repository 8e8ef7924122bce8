package app

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"salestrack/internal/bus"
	"salestrack/internal/clock"
	"salestrack/internal/repository"
	"salestrack/internal/store"
	"salestrack/queue"
)

// ContainerOption configures Container creation. Used for testing and
// customization.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	db         *sql.DB
	redis      *redis.Client
	stateStore store.StateStore
	bus        bus.NotificationBus
	clock      clock.Clock
	deliverer  queue.Deliverer
	records    repository.MetricRecordRepository
	goals      repository.GoalRepository
}

// WithDB injects a custom database connection. Useful for testing.
func WithDB(db *sql.DB) ContainerOption {
	return func(c *containerConfig) {
		c.db = db
	}
}

// WithRedis injects a custom Redis client. Useful for testing.
func WithRedis(redis *redis.Client) ContainerOption {
	return func(c *containerConfig) {
		c.redis = redis
	}
}

// WithStateStore bypasses the driver selection for queue persistence.
func WithStateStore(st store.StateStore) ContainerOption {
	return func(c *containerConfig) {
		c.stateStore = st
	}
}

// WithBus bypasses the driver selection for notifications.
func WithBus(b bus.NotificationBus) ContainerOption {
	return func(c *containerConfig) {
		c.bus = b
	}
}

// WithClock injects a fake clock for deterministic tests.
func WithClock(clk clock.Clock) ContainerOption {
	return func(c *containerConfig) {
		c.clock = clk
	}
}

// WithDeliverer replaces the HTTP endpoint client.
func WithDeliverer(d queue.Deliverer) ContainerOption {
	return func(c *containerConfig) {
		c.deliverer = d
	}
}

// WithRecordRepository replaces the activity record store.
func WithRecordRepository(r repository.MetricRecordRepository) ContainerOption {
	return func(c *containerConfig) {
		c.records = r
	}
}

// WithGoalRepository replaces the goal and weight store.
func WithGoalRepository(g repository.GoalRepository) ContainerOption {
	return func(c *containerConfig) {
		c.goals = g
	}
}

package config

import "time"

const (
	// DefaultMaxAttempts bounds delivery attempts before an item is marked
	// permanently failed.
	DefaultMaxAttempts = 8

	// DefaultBaseDelay is the backoff delay after the first failure.
	DefaultBaseDelay = time.Second

	// DefaultMaxDelay caps the exponential backoff.
	DefaultMaxDelay = 5 * time.Minute

	// DefaultJitterRatio spreads retries by a uniform multiplier in
	// [1-ratio, 1+ratio].
	DefaultJitterRatio = 0.15

	// DefaultTickInterval is the cadence of the periodic due-item scan.
	DefaultTickInterval = 15 * time.Second

	// DefaultWorkerCount bounds concurrent deliveries per scan.
	DefaultWorkerCount = 4

	// DefaultRequestTimeout bounds each HTTP request to the endpoint; a
	// timeout is treated as a retryable soft failure.
	DefaultRequestTimeout = 15 * time.Second

	// DefaultWarmupRetries is how many challenged POSTs are retried within
	// one delivery attempt.
	DefaultWarmupRetries = 2

	// DefaultWarmupPause is the wait between warm-up and the retried POST.
	DefaultWarmupPause = 750 * time.Millisecond

	// DefaultDashboardPort serves the diagnostics JSON API.
	DefaultDashboardPort = 8080
)

// DefaultAllowedFields is the upsert field allow-list: the composite upsert
// key plus the value being written.
var DefaultAllowedFields = []string{"metric", "period", "role", "month", "userId", "value"}

// DefaultMinimalFields is the subset retried after a schema-shaped rejection.
var DefaultMinimalFields = []string{"metric", "period", "value"}

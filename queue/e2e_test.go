package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salestrack/internal/bus"
	"salestrack/internal/bus/memorybus"
	"salestrack/internal/clock"
	"salestrack/internal/endpoint"
	"salestrack/internal/state"
	"salestrack/internal/store/memory"
	"salestrack/types/config"
)

// collectionServer simulates the remote goals collection: the probe GET
// always answers JSON, and each POSTed metric fails a configured number of
// times before being accepted.
type collectionServer struct {
	mu           sync.Mutex
	failuresLeft map[string]int
	posts        int
}

func (s *collectionServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[]`))
			return
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		metric, _ := payload["metric"].(string)

		s.mu.Lock()
		s.posts++
		remaining := s.failuresLeft[metric]
		if remaining > 0 {
			s.failuresLeft[metric] = remaining - 1
		}
		s.mu.Unlock()

		if remaining > 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})
}

func TestEndToEnd_RetriesUntilDelivered(t *testing.T) {
	ctx := context.Background()

	server := &collectionServer{failuresLeft: map[string]int{
		"callsMade":  3,
		"emailsSent": 3,
	}}
	srv := httptest.NewServer(server.handler())
	defer srv.Close()

	cfg, err := config.NewConfig("e2e",
		config.WithEndpoint("goals", srv.URL+"/api"),
	)
	require.NoError(t, err)

	client := endpoint.NewClient(endpoint.Config{
		Collection:         cfg.Collection,
		BasePathCandidates: cfg.BasePathCandidates,
		RequestTimeout:     2 * time.Second,
		WarmupRetries:      1,
		WarmupPause:        time.Millisecond,
	}, zap.NewNop())

	st := memory.NewStore()
	nb := memorybus.NewBus()
	clk := clock.NewFake(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))
	q := New(cfg, st, nb, client, clk, zap.NewNop())

	var mu sync.Mutex
	var goalsUpdated int
	_, err = nb.Subscribe(bus.TypeGoalsUpdated, func(bus.Message) {
		mu.Lock()
		goalsUpdated++
		mu.Unlock()
	})
	require.NoError(t, err)

	_, err = q.EnqueueBatch(ctx, []map[string]any{
		{"metric": "callsMade", "period": "2026-W35", "value": 42},
		{"metric": "emailsSent", "period": "2026-W35", "value": 120},
	})
	require.NoError(t, err)

	// Three failing rounds, then the fourth delivers both items.
	for round := 0; round < 4; round++ {
		q.ProcessDue(ctx)
		clk.Advance(6 * time.Minute)
	}

	items, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, state.StatusSuccess, item.Status)
		assert.Equal(t, 4, item.Attempts)
		assert.Empty(t, item.LastError)
	}

	summary, err := q.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Success)
	assert.Zero(t, summary.NextAttemptAt)

	mu.Lock()
	assert.Equal(t, 2, goalsUpdated)
	mu.Unlock()
}

func TestEndToEnd_PersistentChallengeExhaustsItem(t *testing.T) {
	ctx := context.Background()

	// Probe GETs answer JSON so the base path resolves, but every POST is
	// served an HTML interstitial with 403 that never clears.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[]`))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<!DOCTYPE html><html><body>Verify you are human</body></html>`))
	}))
	defer srv.Close()

	cfg, err := config.NewConfig("e2e",
		config.WithEndpoint("goals", srv.URL+"/api"),
		config.WithRetryPolicy(8, time.Second, time.Minute),
	)
	require.NoError(t, err)

	client := endpoint.NewClient(endpoint.Config{
		Collection:         cfg.Collection,
		BasePathCandidates: cfg.BasePathCandidates,
		RequestTimeout:     2 * time.Second,
		WarmupRetries:      1,
		WarmupPause:        time.Millisecond,
	}, zap.NewNop())

	st := memory.NewStore()
	nb := memorybus.NewBus()
	clk := clock.NewFake(time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC))
	q := New(cfg, st, nb, client, clk, zap.NewNop())

	_, err = q.EnqueueBatch(ctx, []map[string]any{
		{"metric": "callsMade", "period": "2026-W35", "value": 42},
	})
	require.NoError(t, err)

	for round := 0; round < 8; round++ {
		q.ProcessDue(ctx)
		clk.Advance(2 * time.Minute)
	}

	items, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, state.StatusFailed, items[0].Status)
	assert.Equal(t, 8, items[0].Attempts)
	assert.Contains(t, items[0].LastError, "challenge")

	summary, err := q.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.NextAttemptAt)

	// Exhausted items stay put on later scans.
	clk.Advance(time.Hour)
	q.ProcessDue(ctx)
	after, err := q.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, after[0].Attempts)
}

package repository

import (
	"context"
	"sort"
	"sync"

	"salestrack/types"
)

// MemoryMetricRecordRepository is an in-process record store used by tests
// and the memory storage driver.
type MemoryMetricRecordRepository struct {
	mu      sync.RWMutex
	records []types.MetricRecord
}

func NewMemoryMetricRecordRepository(seed ...types.MetricRecord) *MemoryMetricRecordRepository {
	return &MemoryMetricRecordRepository{records: append([]types.MetricRecord(nil), seed...)}
}

func (r *MemoryMetricRecordRepository) Insert(_ context.Context, rec types.MetricRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryMetricRecordRepository) ListByPeriod(_ context.Context, period string) ([]types.MetricRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.MetricRecord
	for _, rec := range r.records {
		if period == "" || rec.Period == period {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryMetricRecordRepository) ListByUser(_ context.Context, userID, period string) ([]types.MetricRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.MetricRecord
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if period != "" && rec.Period != period {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// MemoryGoalRepository is the in-process goal and weight store.
type MemoryGoalRepository struct {
	mu      sync.RWMutex
	targets map[string]types.GoalTarget
	weights types.WeightTable
}

func NewMemoryGoalRepository() *MemoryGoalRepository {
	return &MemoryGoalRepository{targets: map[string]types.GoalTarget{}}
}

func goalKey(t types.GoalTarget) string {
	return t.Role + "|" + t.UserID + "|" + t.Metric + "|" + t.Period
}

func (r *MemoryGoalRepository) UpsertTarget(_ context.Context, target types.GoalTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[goalKey(target)] = target
	return nil
}

func (r *MemoryGoalRepository) ListTargets(_ context.Context, role, period string) ([]types.GoalTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.GoalTarget
	for _, t := range r.targets {
		if role != "" && t.Role != role {
			continue
		}
		if period != "" && t.Period != period {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Metric != out[j].Metric {
			return out[i].Metric < out[j].Metric
		}
		return out[i].Role < out[j].Role
	})
	return out, nil
}

func (r *MemoryGoalRepository) SaveWeights(_ context.Context, weights types.WeightTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make(types.WeightTable, len(weights))
	for k, v := range weights {
		copied[k] = v
	}
	r.weights = copied
	return nil
}

func (r *MemoryGoalRepository) LoadWeights(_ context.Context) (types.WeightTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(types.WeightTable, len(r.weights))
	for k, v := range r.weights {
		out[k] = v
	}
	return out, nil
}

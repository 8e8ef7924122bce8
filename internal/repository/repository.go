// Package repository persists the scoring inputs: raw activity records, goal
// targets, and the metric weight table. The queue never touches these; they
// are read by the dashboard service and written by goal-setting surfaces.
package repository

import (
	"context"

	"salestrack/types"
)

// MetricRecordRepository stores weekly activity records. Records are
// append-only inputs to aggregation.
type MetricRecordRepository interface {
	Insert(ctx context.Context, rec types.MetricRecord) error
	ListByPeriod(ctx context.Context, period string) ([]types.MetricRecord, error)
	ListByUser(ctx context.Context, userID, period string) ([]types.MetricRecord, error)
}

// GoalRepository stores goal targets and the scoring weight table.
type GoalRepository interface {
	UpsertTarget(ctx context.Context, target types.GoalTarget) error
	ListTargets(ctx context.Context, role, period string) ([]types.GoalTarget, error)
	SaveWeights(ctx context.Context, weights types.WeightTable) error
	LoadWeights(ctx context.Context) (types.WeightTable, error)
}

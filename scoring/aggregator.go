// Package scoring turns raw activity records into leaderboard scores,
// conversion-funnel rates, and goal-attainment projections. Everything here is
// pure and defensive: records are read-only inputs, missing fields count as
// zero, and no division ever yields NaN or Infinity.
package scoring

import (
	"encoding/json"

	"salestrack/types"
)

// SanityCeiling rejects field values numerically implausible as activity
// counters. Epoch-millisecond timestamps that slip into a record body land
// far above it and must not be summed into totals.
const SanityCeiling = 1e9

// bookkeepingFields are record body keys that are never metrics: identifiers,
// tags, and timestamps.
var bookkeepingFields = map[string]struct{}{
	"id":        {},
	"userId":    {},
	"user":      {},
	"role":      {},
	"category":  {},
	"type":      {},
	"period":    {},
	"week":      {},
	"month":     {},
	"createdAt": {},
	"updatedAt": {},
	"timestamp": {},
}

// AggregateUserMetrics sums every numeric counter across the records matching
// userID and period. Period "" matches all periods. Bookkeeping fields and
// values above the sanity ceiling are skipped; negative values are clamped to
// zero. Summation is commutative, so record order never changes the result.
func AggregateUserMetrics(records []types.MetricRecord, userID, period string) types.MetricTotals {
	totals := types.MetricTotals{}
	for _, rec := range records {
		if rec.UserID != userID {
			continue
		}
		if period != "" && rec.Period != period {
			continue
		}
		for field, raw := range rec.Fields {
			if _, skip := bookkeepingFields[field]; skip {
				continue
			}
			v, ok := numericValue(raw)
			if !ok || v > SanityCeiling {
				continue
			}
			if v < 0 {
				v = 0
			}
			totals[field] += v
		}
	}
	return totals
}

// numericValue coerces the value shapes a record body can carry after JSON
// decoding or in-process construction.
func numericValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ScoreFromTotals computes the weighted ranking scalar: the sum of
// totals[metric] * weights[metric] over metrics present in both maps. Metrics
// absent from the weight table contribute zero.
func ScoreFromTotals(totals types.MetricTotals, weights types.WeightTable) float64 {
	var score float64
	for metric, total := range totals {
		if weight, ok := weights[metric]; ok {
			score += total * weight
		}
	}
	return score
}

// SingleMetricScore is the single-metric ranking view: the raw total of one
// metric, zero when absent.
func SingleMetricScore(totals types.MetricTotals, metric string) float64 {
	return totals[metric]
}

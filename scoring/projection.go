package scoring

import (
	"math"

	"salestrack/types"
)

// ProjectEndOfPeriod extrapolates the current totals to the end of the period
// and classifies attainment against the goal targets. Each goal target
// contributes one metric projection; metrics without a target are not
// projected. daysElapsed <= 0 means no pace data yet, so the projection is
// just the current value.
func ProjectEndOfPeriod(current types.MetricTotals, daysElapsed, daysRemaining int, goals []types.GoalTarget) types.Projection {
	projection := types.Projection{Status: types.StatusOffTrack}

	var attainmentSum float64
	var withGoal int
	for _, goal := range goals {
		value := current[goal.Metric]

		var dailyPace float64
		if daysElapsed > 0 {
			dailyPace = value / float64(daysElapsed)
		}
		projected := value + dailyPace*float64(daysRemaining)

		var attainment float64
		if goal.Target > 0 {
			attainment = projected / goal.Target * 100
			attainmentSum += attainment
			withGoal++
		}

		projection.Metrics = append(projection.Metrics, types.MetricProjection{
			Metric:            goal.Metric,
			Current:           value,
			Goal:              goal.Target,
			DailyPace:         dailyPace,
			Projected:         projected,
			AttainmentPercent: attainment,
			RequiredDailyPace: requiredDailyPace(goal.Target, value, daysRemaining),
		})
	}

	if withGoal > 0 {
		projection.AverageAttainment = attainmentSum / float64(withGoal)
	}
	projection.Status = classifyAttainment(projection.AverageAttainment)
	return projection
}

// requiredDailyPace is the per-day rate still needed to hit the goal, never
// negative and zero once no days remain.
func requiredDailyPace(goal, current float64, daysRemaining int) float64 {
	if daysRemaining <= 0 {
		return 0
	}
	pace := math.Ceil((goal - current) / float64(daysRemaining))
	return math.Max(0, pace)
}

func classifyAttainment(average float64) string {
	switch {
	case average >= 100:
		return types.StatusExceeding
	case average >= 80:
		return types.StatusOnTrack
	case average >= 60:
		return types.StatusAtRisk
	default:
		return types.StatusOffTrack
	}
}

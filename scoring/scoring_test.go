package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salestrack/types"
)

func record(userID, period string, fields map[string]any) types.MetricRecord {
	return types.MetricRecord{UserID: userID, Role: "AE", Period: period, Fields: fields}
}

func TestAggregateUserMetrics_SumsMatchingRecords(t *testing.T) {
	records := []types.MetricRecord{
		record("u1", "2026-W35", map[string]any{"callsMade": 40, "emailsSent": 10.5}),
		record("u1", "2026-W35", map[string]any{"callsMade": 60, "meetingsBooked": 3}),
		record("u1", "2026-W34", map[string]any{"callsMade": 999}),
		record("u2", "2026-W35", map[string]any{"callsMade": 7}),
	}

	totals := AggregateUserMetrics(records, "u1", "2026-W35")
	assert.Equal(t, types.MetricTotals{
		"callsMade":      100,
		"emailsSent":     10.5,
		"meetingsBooked": 3,
	}, totals)
}

func TestAggregateUserMetrics_Commutative(t *testing.T) {
	a := record("u1", "2026-W35", map[string]any{"callsMade": 12, "emailsSent": 3})
	b := record("u1", "2026-W35", map[string]any{"callsMade": 8, "meetingsBooked": 2})

	forward := AggregateUserMetrics([]types.MetricRecord{a, b}, "u1", "2026-W35")
	reverse := AggregateUserMetrics([]types.MetricRecord{b, a}, "u1", "2026-W35")
	assert.Equal(t, forward, reverse)
}

func TestAggregateUserMetrics_SkipsBookkeepingAndImplausibleValues(t *testing.T) {
	records := []types.MetricRecord{
		record("u1", "2026-W35", map[string]any{
			"callsMade": 10,
			"id":        991,
			"week":      35,
			"createdAt": 1756000000000, // epoch ms, above the ceiling anyway
			"updatedAt": float64(1756000000123),
			"note":      "not numeric",
		}),
	}

	totals := AggregateUserMetrics(records, "u1", "2026-W35")
	assert.Equal(t, types.MetricTotals{"callsMade": 10}, totals)
}

func TestAggregateUserMetrics_ClampsNegativeValues(t *testing.T) {
	records := []types.MetricRecord{
		record("u1", "2026-W35", map[string]any{"callsMade": -5, "emailsSent": 4}),
	}

	totals := AggregateUserMetrics(records, "u1", "2026-W35")
	assert.Equal(t, float64(0), totals["callsMade"])
	assert.Equal(t, float64(4), totals["emailsSent"])
}

func TestAggregateUserMetrics_EmptyPeriodMatchesAll(t *testing.T) {
	records := []types.MetricRecord{
		record("u1", "2026-W34", map[string]any{"callsMade": 1}),
		record("u1", "2026-W35", map[string]any{"callsMade": 2}),
	}

	totals := AggregateUserMetrics(records, "u1", "")
	assert.Equal(t, float64(3), totals["callsMade"])
}

func TestScoreFromTotals_WeightedSum(t *testing.T) {
	totals := types.MetricTotals{
		"callsMade":              100,
		"meetingsBooked":         20,
		"meetingsConducted":      15,
		"opportunitiesGenerated": 5,
		"revenueClosed":          1,
	}
	weights := types.WeightTable{
		"callsMade":              5,
		"meetingsBooked":         10,
		"meetingsConducted":      15,
		"opportunitiesGenerated": 20,
		"revenueClosed":          0.002,
	}

	assert.InDelta(t, 1025.002, ScoreFromTotals(totals, weights), 1e-9)
}

func TestScoreFromTotals_UnweightedMetricsContributeZero(t *testing.T) {
	totals := types.MetricTotals{"callsMade": 100, "emailsSent": 500}
	weights := types.WeightTable{"callsMade": 2}

	assert.Equal(t, float64(200), ScoreFromTotals(totals, weights))
	assert.Zero(t, ScoreFromTotals(types.MetricTotals{}, weights))
}

func TestSingleMetricScore(t *testing.T) {
	totals := types.MetricTotals{"callsMade": 100}
	assert.Equal(t, float64(100), SingleMetricScore(totals, "callsMade"))
	assert.Zero(t, SingleMetricScore(totals, "emailsSent"))
}

func TestComputeConversionRates(t *testing.T) {
	rates := ComputeConversionRates(types.MetricTotals{
		"callsMade":              100,
		"meetingsBooked":         20,
		"meetingsConducted":      15,
		"opportunitiesGenerated": 5,
		"revenueClosed":          50000,
		"pipelineGenerated":      250000,
	})

	assert.Equal(t, float64(20), rates.CallToMeetingRate)
	assert.Equal(t, float64(75), rates.MeetingHeldRate)
	assert.Equal(t, float64(33), rates.MeetingToOppRate)
	assert.Equal(t, float64(20), rates.OppToCloseRate)
	assert.Equal(t, float64(50000), rates.AvgDealSize)
	assert.Equal(t, float64(20), rates.CloseRate)
}

func TestComputeConversionRates_ZeroGuard(t *testing.T) {
	rates := ComputeConversionRates(types.MetricTotals{})

	assert.Zero(t, rates.CallToMeetingRate)
	assert.Zero(t, rates.MeetingHeldRate)
	assert.Zero(t, rates.MeetingToOppRate)
	assert.Zero(t, rates.OppToCloseRate)
	assert.Zero(t, rates.AvgDealSize)
	assert.Zero(t, rates.CloseRate)
}

func TestProjectEndOfPeriod(t *testing.T) {
	goals := []types.GoalTarget{
		{Role: "AE", Metric: "callsMade", Period: "2026-08", Target: 200, Weeks: 4},
		{Role: "AE", Metric: "meetingsBooked", Period: "2026-08", Target: 40, Weeks: 4},
	}
	current := types.MetricTotals{"callsMade": 100, "meetingsBooked": 10}

	p := ProjectEndOfPeriod(current, 10, 10, goals)
	is := assert.New(t)
	is.Len(p.Metrics, 2)

	calls := p.Metrics[0]
	is.Equal(float64(10), calls.DailyPace)
	is.Equal(float64(200), calls.Projected)
	is.Equal(float64(100), calls.AttainmentPercent)
	is.Equal(float64(10), calls.RequiredDailyPace)

	meetings := p.Metrics[1]
	is.Equal(float64(20), meetings.Projected)
	is.Equal(float64(50), meetings.AttainmentPercent)
	is.Equal(float64(3), meetings.RequiredDailyPace)

	is.Equal(float64(75), p.AverageAttainment)
	is.Equal(types.StatusAtRisk, p.Status)
}

func TestProjectEndOfPeriod_NoDaysRemaining(t *testing.T) {
	goals := []types.GoalTarget{
		{Metric: "callsMade", Target: 200},
		{Metric: "meetingsBooked", Target: 40},
	}

	p := ProjectEndOfPeriod(types.MetricTotals{"callsMade": 50}, 20, 0, goals)
	for _, m := range p.Metrics {
		assert.Zero(t, m.RequiredDailyPace)
	}
}

func TestProjectEndOfPeriod_ZeroGuards(t *testing.T) {
	goals := []types.GoalTarget{{Metric: "callsMade", Target: 0}}

	p := ProjectEndOfPeriod(types.MetricTotals{"callsMade": 50}, 0, 5, goals)
	assert.Zero(t, p.Metrics[0].DailyPace)
	assert.Equal(t, float64(50), p.Metrics[0].Projected)
	assert.Zero(t, p.Metrics[0].AttainmentPercent)
	assert.Zero(t, p.AverageAttainment)
	assert.Equal(t, types.StatusOffTrack, p.Status)
}

func TestProjectEndOfPeriod_StatusBands(t *testing.T) {
	cases := []struct {
		current float64
		status  string
	}{
		{120, types.StatusExceeding},
		{90, types.StatusOnTrack},
		{65, types.StatusAtRisk},
		{10, types.StatusOffTrack},
	}
	goals := []types.GoalTarget{{Metric: "callsMade", Target: 100}}

	for _, tc := range cases {
		p := ProjectEndOfPeriod(types.MetricTotals{"callsMade": tc.current}, 1, 0, goals)
		assert.Equal(t, tc.status, p.Status, "current %v", tc.current)
	}
}

func TestRankLeaderboard_StableTies(t *testing.T) {
	entries := []types.LeaderboardEntry{
		{UserID: "u1", Score: 1025.002},
		{UserID: "u2", Score: 1025.002},
		{UserID: "u3", Score: 2000},
	}

	ranked := RankLeaderboard(entries)
	assert.Equal(t, "u3", ranked[0].UserID)
	assert.Equal(t, "u1", ranked[1].UserID)
	assert.Equal(t, "u2", ranked[2].UserID)
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})

	// Input untouched.
	assert.Zero(t, entries[0].Rank)
	assert.Equal(t, "u1", entries[0].UserID)
}

func TestBuildLeaderboard(t *testing.T) {
	records := []types.MetricRecord{
		record("u1", "2026-W35", map[string]any{"callsMade": 100}),
		record("u2", "2026-W35", map[string]any{"callsMade": 50}),
		record("u2", "2026-W35", map[string]any{"callsMade": 70}),
	}
	weights := types.WeightTable{"callsMade": 5}

	ranked := BuildLeaderboard(records, weights, "2026-W35")
	assert.Len(t, ranked, 2)
	assert.Equal(t, "u2", ranked[0].UserID)
	assert.Equal(t, float64(600), ranked[0].Score)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "u1", ranked[1].UserID)
	assert.Equal(t, 2, ranked[1].Rank)
}

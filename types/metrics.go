package types

// MetricRecord is one persisted weekly activity entry for a user. Fields holds
// the raw record body: named numeric counters mixed with bookkeeping values
// (ids, timestamps, tags) that aggregation filters out. Records are read-only
// inputs; multiple records per user/period are summed, never merged.
type MetricRecord struct {
	UserID   string         `json:"userId"`
	Role     string         `json:"role,omitempty"`
	Category string         `json:"category,omitempty"`
	Period   string         `json:"period"`
	Fields   map[string]any `json:"fields"`
}

// MetricTotals maps metric name to its summed counter value.
type MetricTotals map[string]float64

// WeightTable maps metric name to a non-negative scoring weight. Metrics
// absent from the table contribute zero to a weighted score.
type WeightTable map[string]float64

// GoalTarget is the target value for a (role, optional user, metric, period)
// tuple. Weeks is the number of sub-periods the target spans.
type GoalTarget struct {
	Role   string  `json:"role"`
	UserID string  `json:"userId,omitempty"`
	Metric string  `json:"metric"`
	Period string  `json:"period"`
	Target float64 `json:"target"`
	Weeks  int     `json:"weeks"`
}

// WeeklyTarget derives the week-equivalent target by simple division.
func (g GoalTarget) WeeklyTarget() float64 {
	if g.Weeks <= 0 {
		return 0
	}
	return g.Target / float64(g.Weeks)
}

// ConversionRates holds stage-to-stage rates for the fixed activity funnel:
// calls made -> meetings booked -> meetings conducted -> opportunities
// generated -> closed revenue. Stage rates are rounded whole percentages.
type ConversionRates struct {
	CallToMeetingRate float64 `json:"callToMeetingRate"`
	MeetingHeldRate   float64 `json:"meetingHeldRate"`
	MeetingToOppRate  float64 `json:"meetingToOppRate"`
	OppToCloseRate    float64 `json:"oppToCloseRate"`
	AvgDealSize       float64 `json:"avgDealSize"`
	CloseRate         float64 `json:"closeRate"`
}

// MetricProjection is the end-of-period outlook for one metric.
type MetricProjection struct {
	Metric            string  `json:"metric"`
	Current           float64 `json:"current"`
	Goal              float64 `json:"goal"`
	DailyPace         float64 `json:"dailyPace"`
	Projected         float64 `json:"projected"`
	AttainmentPercent float64 `json:"attainmentPercent"`
	RequiredDailyPace float64 `json:"requiredDailyPace"`
}

// Projection statuses, classified from the average attainment across metrics
// that have a goal.
const (
	StatusExceeding = "exceeding"
	StatusOnTrack   = "on-track"
	StatusAtRisk    = "at-risk"
	StatusOffTrack  = "off-track"
)

// Projection is the full end-of-period outlook given partial-period data.
type Projection struct {
	Metrics           []MetricProjection `json:"metrics"`
	AverageAttainment float64            `json:"averageAttainment"`
	Status            string             `json:"status"`
}

// LeaderboardEntry is one ranked row. Rank is assigned after a stable sort by
// score descending, so tied users keep their input order.
type LeaderboardEntry struct {
	UserID string       `json:"userId"`
	Role   string       `json:"role,omitempty"`
	Score  float64      `json:"score"`
	Totals MetricTotals `json:"totals,omitempty"`
	Rank   int          `json:"rank"`
}

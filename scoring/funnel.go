package scoring

import (
	"math"

	"salestrack/types"
)

// Funnel metric names in stage order. The last stage is treated as a boolean:
// any closed revenue counts as one conversion.
const (
	MetricCallsMade              = "callsMade"
	MetricMeetingsBooked         = "meetingsBooked"
	MetricMeetingsConducted      = "meetingsConducted"
	MetricOpportunitiesGenerated = "opportunitiesGenerated"
	MetricRevenueClosed          = "revenueClosed"
	MetricPipelineGenerated      = "pipelineGenerated"
)

// ComputeConversionRates derives stage-to-stage rates for the fixed activity
// funnel plus average deal size and close rate. Every rate with a zero
// upstream is 0.
func ComputeConversionRates(totals types.MetricTotals) types.ConversionRates {
	calls := totals[MetricCallsMade]
	booked := totals[MetricMeetingsBooked]
	conducted := totals[MetricMeetingsConducted]
	opps := totals[MetricOpportunitiesGenerated]
	revenue := totals[MetricRevenueClosed]
	pipeline := totals[MetricPipelineGenerated]

	closedStage := 0.0
	if revenue > 0 {
		closedStage = 1
	}

	return types.ConversionRates{
		CallToMeetingRate: stageRate(booked, calls),
		MeetingHeldRate:   stageRate(conducted, booked),
		MeetingToOppRate:  stageRate(opps, conducted),
		OppToCloseRate:    stageRate(closedStage, opps),
		AvgDealSize:       ratio(pipeline, opps),
		CloseRate:         ratio(revenue, pipeline) * 100,
	}
}

// stageRate is the rounded whole-percentage conversion between adjacent
// funnel stages.
func stageRate(downstream, upstream float64) float64 {
	if upstream == 0 {
		return 0
	}
	return math.Round(downstream / upstream * 100)
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

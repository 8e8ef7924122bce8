// Package dashboard serves the read side: leaderboards, funnel rates, and
// attainment projections computed from persisted activity records and goals.
package dashboard

import (
	"context"

	"go.uber.org/zap"

	"salestrack/internal/repository"
	"salestrack/scoring"
	"salestrack/types"
)

// Service composes the record and goal repositories with the scoring
// functions. It holds no state of its own; every call reads fresh data.
type Service struct {
	records repository.MetricRecordRepository
	goals   repository.GoalRepository
	logger  *zap.Logger
}

func NewService(records repository.MetricRecordRepository, goals repository.GoalRepository, logger *zap.Logger) *Service {
	return &Service{records: records, goals: goals, logger: logger}
}

// Leaderboard ranks every user with records in the period by weighted score.
// Period "" ranks across all periods.
func (s *Service) Leaderboard(ctx context.Context, period string) ([]types.LeaderboardEntry, error) {
	records, err := s.records.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	weights, err := s.goals.LoadWeights(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.BuildLeaderboard(records, weights, period), nil
}

// UserTotals sums one user's metric counters for the period.
func (s *Service) UserTotals(ctx context.Context, userID, period string) (types.MetricTotals, error) {
	records, err := s.records.ListByUser(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return scoring.AggregateUserMetrics(records, userID, period), nil
}

// Funnel computes the conversion rates for one user's activity in the period.
func (s *Service) Funnel(ctx context.Context, userID, period string) (types.ConversionRates, error) {
	totals, err := s.UserTotals(ctx, userID, period)
	if err != nil {
		return types.ConversionRates{}, err
	}
	return scoring.ComputeConversionRates(totals), nil
}

// Projection extrapolates a user's current totals to the end of the period
// against the goal targets for their role. With weekly set, each target
// spanning multiple weeks is scaled down to its week-equivalent value so a
// single week of activity is judged against a single week's goal.
func (s *Service) Projection(ctx context.Context, userID, role, period string, daysElapsed, daysRemaining int, weekly bool) (types.Projection, error) {
	totals, err := s.UserTotals(ctx, userID, period)
	if err != nil {
		return types.Projection{}, err
	}
	targets, err := s.goals.ListTargets(ctx, role, period)
	if err != nil {
		return types.Projection{}, err
	}
	if len(targets) == 0 {
		s.logger.Debug("no goal targets for projection",
			zap.String("role", role), zap.String("period", period))
	}
	if weekly {
		for i, t := range targets {
			if t.Weeks > 1 {
				targets[i].Target = t.WeeklyTarget()
				targets[i].Weeks = 1
			}
		}
	}
	return scoring.ProjectEndOfPeriod(totals, daysElapsed, daysRemaining, targets), nil
}

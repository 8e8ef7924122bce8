package scoring

import (
	"sort"

	"salestrack/types"
)

// RankLeaderboard sorts the entries by score descending and assigns ranks
// starting at 1. The sort is stable, so tied users keep their input order.
// The input slice is not modified.
func RankLeaderboard(entries []types.LeaderboardEntry) []types.LeaderboardEntry {
	ranked := make([]types.LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// BuildLeaderboard aggregates and scores every user in one pass: totals per
// user from their matching records, the weighted score from the weight table,
// then a stable descending ranking. Users appear in first-seen record order
// before ranking, which is what the stable sort preserves on ties.
func BuildLeaderboard(records []types.MetricRecord, weights types.WeightTable, period string) []types.LeaderboardEntry {
	var order []string
	roles := map[string]string{}
	seen := map[string]struct{}{}
	for _, rec := range records {
		if _, ok := seen[rec.UserID]; ok {
			continue
		}
		seen[rec.UserID] = struct{}{}
		order = append(order, rec.UserID)
		roles[rec.UserID] = rec.Role
	}

	entries := make([]types.LeaderboardEntry, 0, len(order))
	for _, userID := range order {
		totals := AggregateUserMetrics(records, userID, period)
		entries = append(entries, types.LeaderboardEntry{
			UserID: userID,
			Role:   roles[userID],
			Score:  ScoreFromTotals(totals, weights),
			Totals: totals,
		})
	}
	return RankLeaderboard(entries)
}

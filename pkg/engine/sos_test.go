package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// roundRobin builds aggregates for a small cohort from explicit results.
func roundRobin(t *testing.T, p Params, games []Game) map[string]*Aggregate {
	t.Helper()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	seen := map[string]bool{}
	var teams []Team
	for _, g := range games {
		for _, id := range []string{g.HomeTeamID, g.AwayTeamID} {
			if !seen[id] {
				seen[id] = true
				teams = append(teams, Team{ID: id})
			}
		}
	}

	aggs := AggregateGames(teams, games, p, asOf)
	ApplyShrinkage(aggs, p)
	return aggs
}

func cohortGames() []Game {
	played := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	results := []struct {
		home, away string
		hs, as     int16
	}{
		{"alpha", "bravo", 3, 1},
		{"alpha", "charlie", 4, 0},
		{"bravo", "charlie", 2, 1},
		{"delta", "alpha", 1, 2},
		{"delta", "bravo", 0, 1},
		{"delta", "charlie", 2, 2},
	}
	games := make([]Game, 0, len(results))
	for i, r := range results {
		games = append(games, Game{
			ID:         fmt.Sprintf("g%d", i),
			PlayedAt:   played.AddDate(0, 0, -i),
			HomeTeamID: r.home,
			AwayTeamID: r.away,
			HomeScore:  r.hs,
			AwayScore:  r.as,
		})
	}
	return games
}

func TestStrengthEstimatorConverges(t *testing.T) {
	p := DefaultParams()
	aggs := roundRobin(t, p, cohortGames())

	out := NewStrengthEstimator(aggs, p).Run()

	require.True(t, out.Converged)
	require.Less(t, out.Iterations, p.MaxIterations)
	require.Len(t, out.SOS, 4)
}

func TestStrengthEstimatorDeterministic(t *testing.T) {
	p := DefaultParams()

	first := NewStrengthEstimator(roundRobin(t, p, cohortGames()), p).Run()
	second := NewStrengthEstimator(roundRobin(t, p, cohortGames()), p).Run()

	require.Equal(t, first.Iterations, second.Iterations)
	for id, v := range first.Strength {
		require.Equal(t, v, second.Strength[id], id)
	}
	for id, v := range first.SOS {
		require.Equal(t, v, second.SOS[id], id)
	}
}

func TestStrengthEstimatorHitsCeilingWithoutError(t *testing.T) {
	p := DefaultParams()
	p.Tolerance = 0 // unreachable
	aggs := roundRobin(t, p, cohortGames())

	out := NewStrengthEstimator(aggs, p).Run()

	require.False(t, out.Converged)
	require.Equal(t, p.MaxIterations, out.Iterations)
	// Values are still produced for every scored team.
	require.Len(t, out.Strength, 4)
}

func TestStrongerScheduleEarnsHigherSOS(t *testing.T) {
	p := DefaultParams()
	played := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	// "tough" and "soft" both win 2-1 twice, but tough's opponents beat the
	// rest of the cohort while soft's opponents lose everything else.
	games := []Game{
		{ID: "t1", PlayedAt: played, HomeTeamID: "tough", AwayTeamID: "strong1", HomeScore: 2, AwayScore: 1},
		{ID: "t2", PlayedAt: played, HomeTeamID: "tough", AwayTeamID: "strong2", HomeScore: 2, AwayScore: 1},
		{ID: "s1", PlayedAt: played, HomeTeamID: "soft", AwayTeamID: "weak1", HomeScore: 2, AwayScore: 1},
		{ID: "s2", PlayedAt: played, HomeTeamID: "soft", AwayTeamID: "weak2", HomeScore: 2, AwayScore: 1},
		{ID: "x1", PlayedAt: played, HomeTeamID: "strong1", AwayTeamID: "weak1", HomeScore: 5, AwayScore: 0},
		{ID: "x2", PlayedAt: played, HomeTeamID: "strong2", AwayTeamID: "weak2", HomeScore: 5, AwayScore: 0},
		{ID: "x3", PlayedAt: played, HomeTeamID: "strong1", AwayTeamID: "weak2", HomeScore: 4, AwayScore: 0},
		{ID: "x4", PlayedAt: played, HomeTeamID: "strong2", AwayTeamID: "weak1", HomeScore: 4, AwayScore: 0},
	}

	aggs := roundRobin(t, p, games)
	out := NewStrengthEstimator(aggs, p).Run()

	require.Greater(t, out.SOS["tough"], out.SOS["soft"])
	require.Greater(t, out.Strength["tough"], out.Strength["soft"])
}

func TestBlowoutMarginBuysNoExtraScheduleCredit(t *testing.T) {
	p := DefaultParams()
	played := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	base := []Game{
		{ID: "n1", PlayedAt: played, HomeTeamID: "a", AwayTeamID: "b", HomeScore: 6, AwayScore: 0},
		{ID: "n2", PlayedAt: played, HomeTeamID: "b", AwayTeamID: "c", HomeScore: 1, AwayScore: 2},
		{ID: "n3", PlayedAt: played, HomeTeamID: "c", AwayTeamID: "a", HomeScore: 0, AwayScore: 1},
	}
	blowout := []Game{
		{ID: "n1", PlayedAt: played, HomeTeamID: "a", AwayTeamID: "b", HomeScore: 15, AwayScore: 0},
		{ID: "n2", PlayedAt: played, HomeTeamID: "b", AwayTeamID: "c", HomeScore: 1, AwayScore: 2},
		{ID: "n3", PlayedAt: played, HomeTeamID: "c", AwayTeamID: "a", HomeScore: 0, AwayScore: 1},
	}

	normal := NewStrengthEstimator(roundRobin(t, p, base), p)
	capped := NewStrengthEstimator(roundRobin(t, p, blowout), p)

	// Edge weights come from the capped margin, so 15-0 and 6-0 produce the
	// same schedule-strength graph.
	require.Equal(t, normal.ids, capped.ids)
	require.Equal(t, normal.edges, capped.edges)
}

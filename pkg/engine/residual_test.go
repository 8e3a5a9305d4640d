package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpectedMarginBoundedAndMonotone(t *testing.T) {
	p := DefaultParams()

	// Equal strengths predict a level game.
	require.Equal(t, 0.0, ExpectedMargin(0.5, 0.5, p))

	// Bounded by the margin scale even for absurd gaps.
	require.Less(t, ExpectedMargin(100, -100, p), p.MarginScale+1e-9)
	require.Greater(t, ExpectedMargin(-100, 100, p), -p.MarginScale-1e-9)

	// Monotone in the strength difference.
	prev := math.Inf(-1)
	for d := -2.0; d <= 2.0; d += 0.25 {
		m := ExpectedMargin(d, 0, p)
		require.Greater(t, m, prev)
		prev = m
	}

	// Antisymmetric: swapping sides flips the sign.
	require.InDelta(t, -ExpectedMargin(0.8, 0.2, p), ExpectedMargin(0.2, 0.8, p), 1e-12)
}

func TestOverperformanceRequiresMinimumGames(t *testing.T) {
	p := DefaultParams()
	p.MLMinGames = 6
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// "steady" plays 6 games, "fresh" only 3.
	var games []Game
	for i := 0; i < 6; i++ {
		games = append(games, Game{
			ID: string(rune('a' + i)), PlayedAt: asOf.AddDate(0, 0, -i-1),
			HomeTeamID: "steady", AwayTeamID: "fresh", HomeScore: 2, AwayScore: 0,
		})
	}
	teams := []Team{{ID: "steady"}, {ID: "fresh"}}

	aggs := AggregateGames(teams, games[:6], p, asOf)
	// Trim fresh's window to 3 games to simulate a short sample.
	aggs["fresh"].Window = aggs["fresh"].Window[:3]
	aggs["fresh"].GamesPlayed = 3

	strengths := map[string]float64{"steady": 0.6, "fresh": 0.4}
	out := Overperformance(aggs, strengths, p)

	require.Contains(t, out, "steady")
	require.NotContains(t, out, "fresh")
}

func TestNormalizeOverperformanceCentersOnZero(t *testing.T) {
	norm := NormalizeOverperformance(map[string]float64{
		"worst": -2, "mid": 0, "best": 2,
	})

	require.Equal(t, -0.5, norm["worst"])
	require.Equal(t, 0.0, norm["mid"])
	require.Equal(t, 0.5, norm["best"])
}

func TestResidualNudgeIsSmall(t *testing.T) {
	p := DefaultParams()

	// The largest possible nudge is alpha/2 in either direction, far below
	// a typical gap between adjacent composed scores.
	require.LessOrEqual(t, p.Alpha*0.5, 0.05)
}

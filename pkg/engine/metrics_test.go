package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecencyWeightHalfLife(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.InDelta(t, 1.0, RecencyWeight(asOf, asOf, 120), 1e-12)
	require.InDelta(t, 0.5, RecencyWeight(asOf.AddDate(0, 0, -120), asOf, 120), 1e-9)
	require.InDelta(t, 0.25, RecencyWeight(asOf.AddDate(0, 0, -240), asOf, 120), 1e-9)

	// Future-dated games clamp instead of exceeding 1.
	require.Equal(t, 1.0, RecencyWeight(asOf.AddDate(0, 0, 7), asOf, 120))
}

func TestCapMarginIsIdempotent(t *testing.T) {
	for _, margin := range []int16{-20, -6, -3, 0, 3, 6, 20} {
		once := CapMargin(margin, 6)
		require.Equal(t, once, CapMargin(once, 6))
		require.LessOrEqual(t, once, int16(6))
		require.GreaterOrEqual(t, once, int16(-6))
	}

	// A 10-0 blowout and a 6-0 win credit the same capped margin.
	require.Equal(t, CapMargin(10, 6), CapMargin(6, 6))
}

func TestAggregateGamesWindowKeepsMostRecent(t *testing.T) {
	p := DefaultParams()
	p.WindowCap = 3
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	teams := []Team{{ID: "a"}, {ID: "b"}}
	var games []Game
	for i := 0; i < 5; i++ {
		games = append(games, Game{
			ID:         fmt.Sprintf("g%d", i),
			PlayedAt:   asOf.AddDate(0, 0, -10*(i+1)),
			HomeTeamID: "a",
			AwayTeamID: "b",
			HomeScore:  2,
			AwayScore:  1,
		})
	}

	aggs := AggregateGames(teams, games, p, asOf)
	a := aggs["a"]

	// All five games count toward the true record, only three score.
	require.Equal(t, 5, a.TotalGames)
	require.Equal(t, 5, a.Wins)
	require.Equal(t, 3, a.GamesPlayed)

	// The scoring window holds the newest games.
	for _, tg := range a.Window {
		require.True(t, tg.playedAt.After(asOf.AddDate(0, 0, -31)))
	}
}

func TestAggregateGamesZeroGameTeamStaysPresent(t *testing.T) {
	p := DefaultParams()
	asOf := time.Now().UTC()

	aggs := AggregateGames([]Team{{ID: "lonely"}}, nil, p, asOf)
	require.Contains(t, aggs, "lonely")
	require.Equal(t, 0, aggs["lonely"].GamesPlayed)
	require.Equal(t, 0.0, aggs["lonely"].NEff)
}

func TestAggregateGamesRejectsNegativeScores(t *testing.T) {
	p := DefaultParams()
	asOf := time.Now().UTC()

	games := []Game{{ID: "bad", PlayedAt: asOf, HomeTeamID: "a", AwayTeamID: "b", HomeScore: -1, AwayScore: 2}}
	aggs := AggregateGames([]Team{{ID: "a"}, {ID: "b"}}, games, p, asOf)

	require.Equal(t, 0, aggs["a"].GamesPlayed)
	require.Equal(t, 0, aggs["b"].GamesPlayed)
}

package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
)

func pipelineInput() CohortInput {
	played := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	return CohortInput{
		Cohort: Cohort{AgeGroup: "U12", Gender: "M"},
		Teams: []Team{
			{ID: "t-alpha", Name: "Alpha FC", State: "CA"},
			{ID: "t-bravo", Name: "Bravo SC", State: "CA"},
			{ID: "t-charlie", Name: "Charlie United", State: "TX"},
			{ID: "t-idle", Name: "Idle Rovers", State: "TX"},
		},
		Games: []Game{
			{ID: "g1", PlayedAt: played, HomeTeamID: "t-alpha", AwayTeamID: "t-bravo", HomeScore: 3, AwayScore: 1},
			{ID: "g2", PlayedAt: played.AddDate(0, 0, -3), HomeTeamID: "t-alpha", AwayTeamID: "t-charlie", HomeScore: 2, AwayScore: 0},
			{ID: "g3", PlayedAt: played.AddDate(0, 0, -5), HomeTeamID: "t-bravo", AwayTeamID: "t-charlie", HomeScore: 1, AwayScore: 1},
			{ID: "g4", PlayedAt: played.AddDate(0, 0, -8), HomeTeamID: "t-charlie", AwayTeamID: "t-alpha", HomeScore: 0, AwayScore: 2},
		},
	}
}

func TestComputeCohortRanksAreDense(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := ComputeCohort(pipelineInput(), RankBaselines{}, p, "run-1", now)
	require.Len(t, res.Snapshots, 4)

	var active, idle []*rankmodels.Snapshot
	for _, s := range res.Snapshots {
		if s.Status == rankmodels.StatusActive {
			active = append(active, s)
		} else {
			idle = append(idle, s)
		}
	}
	require.Len(t, active, 3)
	require.Len(t, idle, 1)

	// Ranks over active teams are exactly 1..K with no gaps.
	seen := make(map[uint32]bool)
	for _, s := range active {
		require.NotNil(t, s.RankInCohortFinal)
		seen[*s.RankInCohortFinal] = true
	}
	for r := uint32(1); r <= uint32(len(active)); r++ {
		require.True(t, seen[r], "missing rank %d", r)
	}

	// The zero-game team carries status, not a rank or metrics.
	require.Equal(t, rankmodels.StatusNotEnoughGames, idle[0].Status)
	require.Nil(t, idle[0].RankInCohortFinal)
	require.Nil(t, idle[0].PowerScoreML)
	require.Equal(t, "t-idle", idle[0].TeamID)
}

func TestComputeCohortDeterministicForSameRun(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	first := ComputeCohort(pipelineInput(), RankBaselines{}, p, "run-1", now)
	second := ComputeCohort(pipelineInput(), RankBaselines{}, p, "run-1", now)

	require.Equal(t, len(first.Snapshots), len(second.Snapshots))
	for i := range first.Snapshots {
		require.Equal(t, first.Snapshots[i], second.Snapshots[i])
	}
}

func TestComputeCohortUndefeatedTopsTable(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := ComputeCohort(pipelineInput(), RankBaselines{}, p, "run-1", now)

	byID := make(map[string]*rankmodels.Snapshot)
	for _, s := range res.Snapshots {
		byID[s.TeamID] = s
	}

	// Alpha won all three games and should lead the cohort.
	require.Equal(t, uint32(1), *byID["t-alpha"].RankInCohortFinal)
	require.Equal(t, uint32(3), byID["t-alpha"].Wins)
}

func TestComputeCohortStateRanks(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	res := ComputeCohort(pipelineInput(), RankBaselines{}, p, "run-1", now)

	byID := make(map[string]*rankmodels.Snapshot)
	for _, s := range res.Snapshots {
		byID[s.TeamID] = s
	}

	// Alpha and Bravo are the only scored CA teams.
	require.Equal(t, uint32(1), *byID["t-alpha"].RankInStateFinal)
	require.Equal(t, uint32(2), *byID["t-bravo"].RankInStateFinal)
	// Charlie is the only scored TX team.
	require.Equal(t, uint32(1), *byID["t-charlie"].RankInStateFinal)
}

func TestComputeCohortRankDeltasFromBaselines(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	base := RankBaselines{
		Cohort7: map[string]uint32{"t-alpha": 3, "t-bravo": 1},
	}
	res := ComputeCohort(pipelineInput(), base, p, "run-2", now)

	byID := make(map[string]*rankmodels.Snapshot)
	for _, s := range res.Snapshots {
		byID[s.TeamID] = s
	}

	// Alpha climbed from 3 to 1: delta is old minus new, positive.
	require.NotNil(t, byID["t-alpha"].RankChange7d)
	require.Equal(t, int32(2), *byID["t-alpha"].RankChange7d)

	// Charlie has no baseline and gets a null delta, not zero.
	require.Nil(t, byID["t-charlie"].RankChange7d)
}

// Two equal-size schedules, opposite quality: an unbeaten run against the
// cohort's cellar must not outrank a winning record against its summit.
func TestComputeCohortStrongScheduleOutranksUnbeatenWeakSchedule(t *testing.T) {
	p := DefaultParams()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	played := now.AddDate(0, 0, -10)

	teams := []Team{
		{ID: "t-ace", Name: "Ace FC", State: "CA"},
		{ID: "t-grind", Name: "Grind SC", State: "CA"},
	}
	for _, id := range []string{"t-s1", "t-s2", "t-s3", "t-w1", "t-w2", "t-w3"} {
		teams = append(teams, Team{ID: id, Name: id, State: "TX"})
	}

	var games []Game
	add := func(home, away string, hs, as int16) {
		games = append(games, Game{
			ID:         fmt.Sprintf("g%02d", len(games)+1),
			PlayedAt:   played,
			HomeTeamID: home,
			AwayTeamID: away,
			HomeScore:  hs,
			AwayScore:  as,
		})
	}

	// The strong trio demolishes the weak trio.
	for _, s := range []string{"t-s1", "t-s2", "t-s3"} {
		for _, w := range []string{"t-w1", "t-w2", "t-w3"} {
			add(s, w, 8, 0)
		}
	}
	// Ace stays unbeaten but only ever plays the weak trio.
	add("t-ace", "t-w1", 3, 1)
	add("t-w1", "t-ace", 1, 1)
	add("t-ace", "t-w2", 3, 1)
	add("t-ace", "t-w2", 2, 0)
	add("t-ace", "t-w3", 3, 1)
	add("t-ace", "t-w3", 2, 0)
	// Grind goes 3-2-1, every game against the strong trio.
	add("t-grind", "t-s1", 2, 1)
	add("t-s1", "t-grind", 2, 1)
	add("t-grind", "t-s2", 2, 1)
	add("t-s2", "t-grind", 2, 1)
	add("t-grind", "t-s3", 2, 1)
	add("t-grind", "t-s3", 2, 2)

	in := CohortInput{Cohort: Cohort{AgeGroup: "U14", Gender: "F"}, Teams: teams, Games: games}
	res := ComputeCohort(in, RankBaselines{}, p, "run-1", now)

	byID := make(map[string]*rankmodels.Snapshot)
	for _, s := range res.Snapshots {
		byID[s.TeamID] = s
	}
	ace, grind := byID["t-ace"], byID["t-grind"]

	require.Equal(t, uint32(5), ace.Wins)
	require.Zero(t, ace.Losses)
	require.Equal(t, uint32(3), grind.Wins)
	require.Equal(t, uint32(2), grind.Losses)

	// Schedule strength separates them completely.
	require.Greater(t, *grind.SOSNorm, *ace.SOSNorm)
	// And the composed score honors it: the record against strong
	// opposition outranks the padded one.
	require.Greater(t, *grind.PowerScoreML, *ace.PowerScoreML)
	require.Less(t, *grind.RankInCohortFinal, *ace.RankInCohortFinal)
}

func TestBaselinesFromHistoryHonorsTolerance(t *testing.T) {
	target := time.Date(2026, 5, 25, 0, 0, 0, 0, time.UTC)
	tol := 72 * time.Hour

	r1 := uint32(4)
	r2 := uint32(9)
	rows := []*rankmodels.History{
		{TeamID: "close", SnapshotDate: target.AddDate(0, 0, -1), RankInCohort: &r1},
		{TeamID: "far", SnapshotDate: target.AddDate(0, 0, -10), RankInCohort: &r2},
	}

	cohort, _ := BaselinesFromHistory(rows, target, tol)

	require.Equal(t, uint32(4), cohort["close"])
	_, ok := cohort["far"]
	require.False(t, ok)
}

func TestHistoryRowsNormalizeToDay(t *testing.T) {
	now := time.Date(2026, 6, 1, 14, 30, 12, 0, time.UTC)
	r := uint32(2)
	snaps := []*rankmodels.Snapshot{
		{TeamID: "t1", AgeGroup: "U12", Gender: "M", State: "CA", RankInCohortFinal: &r},
	}

	rows := HistoryRows(snaps, "run-9", now)

	require.Len(t, rows, 1)
	require.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), rows[0].SnapshotDate)
	require.Equal(t, "run-9", rows[0].RunID)
	require.Equal(t, uint32(2), *rows[0].RankInCohort)
}

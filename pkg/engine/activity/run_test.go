package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zaptest"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	ledgermodels "github.com/scoreline/powerrank/pkg/db/models/ledger"
	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
	"github.com/scoreline/powerrank/pkg/engine"
	"github.com/scoreline/powerrank/pkg/identity"
)

func TestRunRankingsWritesSnapshotsAndHistory(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	played := asOf.AddDate(0, 0, -10)

	identityStore := &fakeIdentityStore{
		teams: []*identitymodels.Team{
			{ID: "alpha", Name: "Alpha FC", AgeGroup: "U12", Gender: "M", State: "CA", IsCanonical: true},
			{ID: "bravo", Name: "Bravo SC", AgeGroup: "U12", Gender: "M", State: "TX", IsCanonical: true},
		},
	}
	ledgerStore := &fakeLedgerStore{
		games: []*ledgermodels.Game{
			{GameID: "g1", PlayedAt: played, HomeTeamID: "alpha", AwayTeamID: "bravo", HomeScore: 2, AwayScore: 1, AgeGroup: "U12", Gender: "M"},
			{GameID: "g2", PlayedAt: played.AddDate(0, 0, 2), HomeTeamID: "bravo", AwayTeamID: "alpha", HomeScore: 0, AwayScore: 3, AgeGroup: "U12", Gender: "M"},
		},
	}
	rankingsStore := &fakeRankingsStore{}

	ctx := &Context{
		Logger:     zaptest.NewLogger(t),
		IdentityDB: identityStore,
		LedgerDB:   ledgerStore,
		RankingsDB: rankingsStore,
		Params:     engine.DefaultParams(),
	}

	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(ctx.RunRankings)

	val, err := env.ExecuteActivity(ctx.RunRankings, RunInput{RunID: "run-test", AsOf: asOf})
	require.NoError(t, err)

	var summary RunSummary
	require.NoError(t, val.Get(&summary))
	require.Equal(t, "run-test", summary.RunID)
	require.Equal(t, 1, summary.Cohorts)
	require.Equal(t, 2, summary.Snapshots)
	require.Zero(t, summary.FlaggedCohorts)

	require.Len(t, rankingsStore.snapshots, 2)
	require.Len(t, rankingsStore.history, 2)
	for _, s := range rankingsStore.snapshots {
		require.Equal(t, "run-test", s.RunID)
		require.Equal(t, rankmodels.StatusActive, s.Status)
	}
}

func TestRunRankingsAttributesMergedGamesToSurvivor(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	played := asOf.AddDate(0, 0, -5)

	// "bravo-old" was merged into "bravo"; its recorded games must count
	// for the survivor without rewriting the ledger.
	identityStore := &fakeIdentityStore{
		teams: []*identitymodels.Team{
			{ID: "alpha", Name: "Alpha FC", AgeGroup: "U12", Gender: "M", State: "CA", IsCanonical: true},
			{ID: "bravo", Name: "Bravo SC", AgeGroup: "U12", Gender: "M", State: "TX", IsCanonical: true},
		},
		edges: []identitymodels.MergeEdge{
			{DeprecatedTeamID: "bravo-old", CanonicalTeamID: "bravo"},
		},
	}
	ledgerStore := &fakeLedgerStore{
		games: []*ledgermodels.Game{
			{GameID: "g1", PlayedAt: played, HomeTeamID: "alpha", AwayTeamID: "bravo-old", HomeScore: 1, AwayScore: 2, AgeGroup: "U12", Gender: "M"},
			{GameID: "g2", PlayedAt: played.AddDate(0, 0, 1), HomeTeamID: "bravo", AwayTeamID: "alpha", HomeScore: 2, AwayScore: 0, AgeGroup: "U12", Gender: "M"},
		},
	}
	rankingsStore := &fakeRankingsStore{}

	ctx := &Context{
		Logger:     zaptest.NewLogger(t),
		IdentityDB: identityStore,
		LedgerDB:   ledgerStore,
		RankingsDB: rankingsStore,
		Params:     engine.DefaultParams(),
	}

	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(ctx.RunRankings)

	_, err := env.ExecuteActivity(ctx.RunRankings, RunInput{RunID: "run-merge", AsOf: asOf})
	require.NoError(t, err)

	byID := make(map[string]*rankmodels.Snapshot)
	for _, s := range rankingsStore.snapshots {
		byID[s.TeamID] = s
	}

	// No snapshot exists for the deprecated id.
	require.NotContains(t, byID, "bravo-old")
	// Both games landed on the survivor.
	require.Equal(t, uint16(2), byID["bravo"].GamesPlayed)
	require.Equal(t, uint32(2), byID["bravo"].Wins)
}

func TestRunRankingsDropsSelfGamesAfterResolution(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	played := asOf.AddDate(0, 0, -5)

	identityStore := &fakeIdentityStore{
		teams: []*identitymodels.Team{
			{ID: "alpha", Name: "Alpha FC", AgeGroup: "U12", Gender: "M", State: "CA", IsCanonical: true},
		},
		edges: []identitymodels.MergeEdge{
			{DeprecatedTeamID: "alpha-old", CanonicalTeamID: "alpha"},
		},
	}
	// A game between a team and its merged-away duplicate collapses to a
	// self-game and must not score.
	ledgerStore := &fakeLedgerStore{
		games: []*ledgermodels.Game{
			{GameID: "g1", PlayedAt: played, HomeTeamID: "alpha", AwayTeamID: "alpha-old", HomeScore: 4, AwayScore: 0, AgeGroup: "U12", Gender: "M"},
		},
	}
	rankingsStore := &fakeRankingsStore{}

	ctx := &Context{
		Logger:     zaptest.NewLogger(t),
		IdentityDB: identityStore,
		LedgerDB:   ledgerStore,
		RankingsDB: rankingsStore,
		Params:     engine.DefaultParams(),
	}

	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(ctx.RunRankings)

	_, err := env.ExecuteActivity(ctx.RunRankings, RunInput{RunID: "run-self", AsOf: asOf})
	require.NoError(t, err)

	require.Len(t, rankingsStore.snapshots, 1)
	require.Equal(t, rankmodels.StatusNotEnoughGames, rankingsStore.snapshots[0].Status)
}

func TestRunRankingsRejectsEmptyRunID(t *testing.T) {
	ctx := &Context{
		Logger:     zaptest.NewLogger(t),
		IdentityDB: &fakeIdentityStore{},
		LedgerDB:   &fakeLedgerStore{},
		RankingsDB: &fakeRankingsStore{},
		Params:     engine.DefaultParams(),
	}

	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivity(ctx.RunRankings)

	_, err := env.ExecuteActivity(ctx.RunRankings, RunInput{})
	require.Error(t, err)
}

type fakeIdentityStore struct {
	teams []*identitymodels.Team
	edges []identitymodels.MergeEdge
}

func (f *fakeIdentityStore) InitializeDB(context.Context) error { return nil }

func (f *fakeIdentityStore) ListTeams(context.Context) ([]*identitymodels.Team, error) {
	return f.teams, nil
}

func (f *fakeIdentityStore) GetTeam(_ context.Context, id string) (*identitymodels.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentityStore) CreateTeam(_ context.Context, team *identitymodels.Team) error {
	f.teams = append(f.teams, team)
	return nil
}

func (f *fakeIdentityStore) ListMergeEdges(context.Context) ([]identitymodels.MergeEdge, error) {
	return f.edges, nil
}

func (f *fakeIdentityStore) GetMergeEdge(_ context.Context, deprecatedTeamID string) (*identitymodels.MergeEdge, error) {
	for _, e := range f.edges {
		if e.DeprecatedTeamID == deprecatedTeamID {
			edge := e
			return &edge, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentityStore) ExecuteMerge(context.Context, identity.MergeRequest) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeIdentityStore) CreateCorrection(context.Context, *identitymodels.CorrectionRequest) error {
	return nil
}

func (f *fakeIdentityStore) GetCorrection(context.Context, int64) (*identitymodels.CorrectionRequest, error) {
	return nil, nil
}

func (f *fakeIdentityStore) ListCorrections(context.Context, string) ([]*identitymodels.CorrectionRequest, error) {
	return nil, nil
}

func (f *fakeIdentityStore) ReviewCorrection(context.Context, int64, bool, string) (*identitymodels.CorrectionRequest, error) {
	return nil, nil
}

func (f *fakeIdentityStore) Close() {}

type fakeLedgerStore struct {
	games []*ledgermodels.Game
}

func (f *fakeLedgerStore) DatabaseName() string               { return "fake_ledger" }
func (f *fakeLedgerStore) InitializeDB(context.Context) error { return nil }

func (f *fakeLedgerStore) InsertGames(_ context.Context, games []*ledgermodels.Game) error {
	f.games = append(f.games, games...)
	return nil
}

func (f *fakeLedgerStore) AppendCorrection(_ context.Context, game *ledgermodels.Game) error {
	f.games = append(f.games, game)
	return nil
}

func (f *fakeLedgerStore) ListCurrentGames(_ context.Context, since time.Time) ([]*ledgermodels.Game, error) {
	var out []*ledgermodels.Game
	for _, g := range f.games {
		if !g.PlayedAt.Before(since) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) GetCurrentGame(_ context.Context, gameID string) (*ledgermodels.Game, error) {
	for _, g := range f.games {
		if g.GameID == gameID {
			return g, nil
		}
	}
	return nil, nil
}

func (f *fakeLedgerStore) CurrentRevision(_ context.Context, gameID string) (int64, error) {
	rev := int64(-1)
	for _, g := range f.games {
		if g.GameID == gameID && int64(g.Revision) > rev {
			rev = int64(g.Revision)
		}
	}
	return rev, nil
}

func (f *fakeLedgerStore) CountGamesForTeams(_ context.Context, teamIDs []string) (uint64, error) {
	ids := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		ids[id] = true
	}
	var n uint64
	for _, g := range f.games {
		if ids[g.HomeTeamID] || ids[g.AwayTeamID] {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedgerStore) Close() error { return nil }

type fakeRankingsStore struct {
	snapshots []*rankmodels.Snapshot
	history   []*rankmodels.History
}

func (f *fakeRankingsStore) DatabaseName() string               { return "fake_rankings" }
func (f *fakeRankingsStore) InitializeDB(context.Context) error { return nil }

func (f *fakeRankingsStore) InsertSnapshots(_ context.Context, snapshots []*rankmodels.Snapshot) error {
	f.snapshots = append(f.snapshots, snapshots...)
	return nil
}

func (f *fakeRankingsStore) InsertHistory(_ context.Context, rows []*rankmodels.History) error {
	f.history = append(f.history, rows...)
	return nil
}

func (f *fakeRankingsStore) LatestRunID(context.Context) (string, error) {
	if len(f.snapshots) == 0 {
		return "", nil
	}
	return f.snapshots[len(f.snapshots)-1].RunID, nil
}

func (f *fakeRankingsStore) ListCohortSnapshots(context.Context, string, string, string, string, int, int) ([]*rankmodels.Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeRankingsStore) GetTeamSnapshot(_ context.Context, runID, teamID string) (*rankmodels.Snapshot, error) {
	for _, s := range f.snapshots {
		if s.RunID == runID && s.TeamID == teamID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeRankingsStore) ListMovers(context.Context, string, string, string, int) ([]*rankmodels.Snapshot, error) {
	return nil, nil
}

func (f *fakeRankingsStore) ListHistoryWindow(context.Context, time.Time, time.Duration) ([]*rankmodels.History, error) {
	return f.history, nil
}

func (f *fakeRankingsStore) Close() error { return nil }

package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scoreline/powerrank/app/query/types"
	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
	"github.com/scoreline/powerrank/pkg/identity"
)

func TestHandleTeamFollowsMergeRedirect(t *testing.T) {
	identityStore := &fakeQueryIdentityStore{
		teams: []*identitymodels.Team{
			{ID: "bravo", Name: "Bravo SC", AgeGroup: "U12", Gender: "M", State: "TX", IsCanonical: true},
			{ID: "bravo-old", Name: "Bravo Old", AgeGroup: "U12", Gender: "M", State: "TX", IsCanonical: false},
		},
		edges: []identitymodels.MergeEdge{
			{DeprecatedTeamID: "bravo-old", CanonicalTeamID: "bravo"},
		},
	}
	rankingsStore := &fakeQueryRankingsStore{
		snapshots: []*rankmodels.Snapshot{
			{RunID: "run-1", TeamID: "bravo", TeamName: "Bravo SC", Status: rankmodels.StatusActive},
		},
	}
	c := NewController(&types.App{
		IdentityDB: identityStore,
		RankingsDB: rankingsStore,
		Logger:     zaptest.NewLogger(t),
	})

	r := httptest.NewRequest(http.MethodGet, "/teams/bravo-old?run_id=run-1", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "bravo-old"})
	w := httptest.NewRecorder()

	c.HandleTeam(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		RunID string              `json:"run_id"`
		Team  rankmodels.Snapshot `json:"team"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "run-1", body.RunID)
	require.Equal(t, "bravo", body.Team.TeamID)

	// The redirect is resolved with a single-edge lookup, never by
	// scanning the whole edge table.
	require.Equal(t, 1, identityStore.getEdgeCalls)
	require.Zero(t, identityStore.listEdgeCalls)
}

func TestHandleTeamUnknownIDReturnsNotFound(t *testing.T) {
	c := NewController(&types.App{
		IdentityDB: &fakeQueryIdentityStore{},
		RankingsDB: &fakeQueryRankingsStore{},
		Logger:     zaptest.NewLogger(t),
	})

	r := httptest.NewRequest(http.MethodGet, "/teams/ghost?run_id=run-1", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "ghost"})
	w := httptest.NewRecorder()

	c.HandleTeam(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}

type fakeQueryIdentityStore struct {
	teams         []*identitymodels.Team
	edges         []identitymodels.MergeEdge
	getEdgeCalls  int
	listEdgeCalls int
}

func (f *fakeQueryIdentityStore) InitializeDB(context.Context) error { return nil }

func (f *fakeQueryIdentityStore) ListTeams(context.Context) ([]*identitymodels.Team, error) {
	return f.teams, nil
}

func (f *fakeQueryIdentityStore) GetTeam(_ context.Context, id string) (*identitymodels.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeQueryIdentityStore) CreateTeam(_ context.Context, team *identitymodels.Team) error {
	f.teams = append(f.teams, team)
	return nil
}

func (f *fakeQueryIdentityStore) ListMergeEdges(context.Context) ([]identitymodels.MergeEdge, error) {
	f.listEdgeCalls++
	return f.edges, nil
}

func (f *fakeQueryIdentityStore) GetMergeEdge(_ context.Context, deprecatedTeamID string) (*identitymodels.MergeEdge, error) {
	f.getEdgeCalls++
	for _, e := range f.edges {
		if e.DeprecatedTeamID == deprecatedTeamID {
			edge := e
			return &edge, nil
		}
	}
	return nil, nil
}

func (f *fakeQueryIdentityStore) ExecuteMerge(context.Context, identity.MergeRequest) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeQueryIdentityStore) CreateCorrection(context.Context, *identitymodels.CorrectionRequest) error {
	return nil
}

func (f *fakeQueryIdentityStore) GetCorrection(context.Context, int64) (*identitymodels.CorrectionRequest, error) {
	return nil, nil
}

func (f *fakeQueryIdentityStore) ListCorrections(context.Context, string) ([]*identitymodels.CorrectionRequest, error) {
	return nil, nil
}

func (f *fakeQueryIdentityStore) ReviewCorrection(context.Context, int64, bool, string) (*identitymodels.CorrectionRequest, error) {
	return nil, nil
}

func (f *fakeQueryIdentityStore) Close() {}

type fakeQueryRankingsStore struct {
	snapshots []*rankmodels.Snapshot
}

func (f *fakeQueryRankingsStore) DatabaseName() string               { return "fake_rankings" }
func (f *fakeQueryRankingsStore) InitializeDB(context.Context) error { return nil }

func (f *fakeQueryRankingsStore) InsertSnapshots(_ context.Context, snapshots []*rankmodels.Snapshot) error {
	f.snapshots = append(f.snapshots, snapshots...)
	return nil
}

func (f *fakeQueryRankingsStore) InsertHistory(context.Context, []*rankmodels.History) error {
	return nil
}

func (f *fakeQueryRankingsStore) LatestRunID(context.Context) (string, error) {
	if len(f.snapshots) == 0 {
		return "", nil
	}
	return f.snapshots[len(f.snapshots)-1].RunID, nil
}

func (f *fakeQueryRankingsStore) ListCohortSnapshots(context.Context, string, string, string, string, int, int) ([]*rankmodels.Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeQueryRankingsStore) GetTeamSnapshot(_ context.Context, runID, teamID string) (*rankmodels.Snapshot, error) {
	for _, s := range f.snapshots {
		if s.RunID == runID && s.TeamID == teamID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeQueryRankingsStore) ListMovers(context.Context, string, string, string, int) ([]*rankmodels.Snapshot, error) {
	return nil, nil
}

func (f *fakeQueryRankingsStore) ListHistoryWindow(context.Context, time.Time, time.Duration) ([]*rankmodels.History, error) {
	return nil, nil
}

func (f *fakeQueryRankingsStore) Close() error { return nil }

package activity

import (
	"context"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	ledgermodels "github.com/scoreline/powerrank/pkg/db/models/ledger"
	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
	"github.com/scoreline/powerrank/pkg/engine"
	"github.com/scoreline/powerrank/pkg/identity"
	"github.com/scoreline/powerrank/pkg/utils"
)

// RunInput identifies one ranking run. RunID is derived deterministically
// from the schedule window, so a retried or re-fired run overwrites its own
// snapshot instead of duplicating it.
type RunInput struct {
	RunID string    `json:"run_id"`
	AsOf  time.Time `json:"as_of"`
}

// RunSummary is what a completed run reports back to the workflow.
type RunSummary struct {
	RunID          string `json:"run_id"`
	Cohorts        int    `json:"cohorts"`
	Teams          int    `json:"teams"`
	Snapshots      int    `json:"snapshots"`
	FlaggedCohorts int    `json:"flagged_cohorts"`
}

// RunRankings executes a full ranking run: load identity, load the current
// ledger view, resolve references, compute every cohort, persist snapshots
// and history, then announce the run. The whole run is one activity so a
// retry replays it from a consistent read of the stores.
func (c *Context) RunRankings(ctx context.Context, in RunInput) (*RunSummary, error) {
	if in.RunID == "" {
		return nil, temporal.NewNonRetryableApplicationError("run id is required", "bad_input", nil)
	}
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	started := time.Now()
	c.Logger.Info("Starting ranking run", zap.String("run_id", in.RunID), zap.Time("as_of", asOf))

	resolver, teamRows, err := c.loadIdentity(ctx)
	if err != nil {
		return nil, err
	}

	lookbackDays := utils.EnvInt("ENGINE_LOOKBACK_DAYS", 730)
	since := asOf.AddDate(0, 0, -lookbackDays)
	rows, err := c.LedgerDB.ListCurrentGames(ctx, since)
	if err != nil {
		return nil, temporal.NewApplicationError("load_games_failed", err.Error(), nil)
	}

	inputs := buildCohortInputs(teamRows, rows, resolver)

	base, err := c.loadBaselines(ctx, asOf)
	if err != nil {
		return nil, err
	}

	results, err := c.computeCohorts(ctx, inputs, base, in.RunID, asOf)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*rankmodels.Snapshot, 0, len(teamRows))
	flagged := 0
	for _, key := range sortedKeys(results) {
		res, _ := results.Load(key)
		if !res.Converged {
			flagged++
			c.Logger.Warn("Cohort strength iteration hit the ceiling",
				zap.String("cohort", key),
				zap.String("run_id", in.RunID),
				zap.Int("iterations", res.Iterations))
		}
		snapshots = append(snapshots, res.Snapshots...)
	}

	if err := c.RankingsDB.InsertSnapshots(ctx, snapshots); err != nil {
		return nil, temporal.NewApplicationError("insert_snapshots_failed", err.Error(), nil)
	}
	if err := c.RankingsDB.InsertHistory(ctx, engine.HistoryRows(snapshots, in.RunID, asOf)); err != nil {
		return nil, temporal.NewApplicationError("insert_history_failed", err.Error(), nil)
	}

	if c.RedisClient != nil {
		c.RedisClient.PublishRunCompleted(ctx, in.RunID, len(inputs), flagged)
	}

	summary := &RunSummary{
		RunID:          in.RunID,
		Cohorts:        len(inputs),
		Teams:          len(teamRows),
		Snapshots:      len(snapshots),
		FlaggedCohorts: flagged,
	}
	c.Logger.Info("Ranking run complete",
		zap.String("run_id", in.RunID),
		zap.Int("cohorts", summary.Cohorts),
		zap.Int("teams", summary.Teams),
		zap.Int("snapshots", summary.Snapshots),
		zap.Int("flagged_cohorts", summary.FlaggedCohorts),
		zap.Duration("elapsed", time.Since(started)))
	return summary, nil
}

// loadIdentity reads the full team roster and merge graph. A merge graph
// that fails resolver validation means corrupted identity state, which no
// amount of retrying fixes.
func (c *Context) loadIdentity(ctx context.Context) (*identity.Resolver, []*identitymodels.Team, error) {
	edges, err := c.IdentityDB.ListMergeEdges(ctx)
	if err != nil {
		return nil, nil, temporal.NewApplicationError("load_merge_edges_failed", err.Error(), nil)
	}
	resolver, err := identity.NewResolver(edges)
	if err != nil {
		return nil, nil, temporal.NewNonRetryableApplicationError("merge graph is invalid", "bad_merge_graph", err)
	}

	rows, err := c.IdentityDB.ListTeams(ctx)
	if err != nil {
		return nil, nil, temporal.NewApplicationError("load_teams_failed", err.Error(), nil)
	}
	teams := rows[:0]
	for _, t := range rows {
		if t.IsCanonical {
			teams = append(teams, t)
		}
	}
	return resolver, teams, nil
}

func (c *Context) loadBaselines(ctx context.Context, asOf time.Time) (engine.RankBaselines, error) {
	base := engine.RankBaselines{}
	tol := c.Params.HistoryTolerance

	rows7, err := c.RankingsDB.ListHistoryWindow(ctx, asOf.AddDate(0, 0, -7), tol)
	if err != nil {
		return base, temporal.NewApplicationError("load_history_7d_failed", err.Error(), nil)
	}
	base.Cohort7, base.State7 = engine.BaselinesFromHistory(rows7, asOf.AddDate(0, 0, -7), tol)

	rows30, err := c.RankingsDB.ListHistoryWindow(ctx, asOf.AddDate(0, 0, -30), tol)
	if err != nil {
		return base, temporal.NewApplicationError("load_history_30d_failed", err.Error(), nil)
	}
	base.Cohort30, base.State30 = engine.BaselinesFromHistory(rows30, asOf.AddDate(0, 0, -30), tol)

	return base, nil
}

// computeCohorts fans cohort computations out over the shared pool. Cohorts
// share nothing, so results only need to be reassembled in a stable order.
func (c *Context) computeCohorts(ctx context.Context, inputs map[string]*engine.CohortInput, base engine.RankBaselines, runID string, asOf time.Time) (*xsync.Map[string, engine.CohortResult], error) {
	results := xsync.NewMap[string, engine.CohortResult]()

	group := c.cohortBatchPool().NewGroupContext(ctx)
	for key, in := range inputs {
		group.Submit(func() {
			results.Store(key, engine.ComputeCohort(*in, base, c.Params, runID, asOf))
		})
	}
	if err := group.Wait(); err != nil {
		return nil, temporal.NewApplicationError("compute_cohorts_failed", err.Error(), nil)
	}

	return results, nil
}

// buildCohortInputs seeds one cohort per (age group, gender) seen on the
// canonical roster, then canonicalizes team references on every ledger row
// and attaches games to their cohort. Seeding from the roster keeps
// zero-game teams in the run so they surface as "Not Enough Ranked Games"
// instead of vanishing. Games whose two sides collapse to the same
// canonical team after resolution are artifacts of a merge and are dropped.
func buildCohortInputs(teams []*identitymodels.Team, rows []*ledgermodels.Game, resolver *identity.Resolver) map[string]*engine.CohortInput {
	inputs := make(map[string]*engine.CohortInput)
	cohortTeams := make(map[string]map[string]bool)

	ensure := func(ageGroup, gender string) *engine.CohortInput {
		key := engine.Cohort{AgeGroup: ageGroup, Gender: gender}.Key()
		in, ok := inputs[key]
		if !ok {
			in = &engine.CohortInput{Cohort: engine.Cohort{AgeGroup: ageGroup, Gender: gender}}
			inputs[key] = in
			cohortTeams[key] = make(map[string]bool)
		}
		return in
	}
	addTeam := func(in *engine.CohortInput, t engine.Team) {
		key := in.Cohort.Key()
		if cohortTeams[key][t.ID] {
			return
		}
		cohortTeams[key][t.ID] = true
		in.Teams = append(in.Teams, t)
	}

	for _, t := range teams {
		in := ensure(t.AgeGroup, t.Gender)
		addTeam(in, engine.Team{ID: t.ID, Name: t.Name, State: t.State})
	}

	for _, g := range rows {
		home := resolver.Resolve(g.HomeTeamID)
		away := resolver.Resolve(g.AwayTeamID)
		if home == away {
			continue
		}

		in := ensure(g.AgeGroup, g.Gender)
		in.Games = append(in.Games, engine.Game{
			ID:         g.GameID,
			PlayedAt:   g.PlayedAt,
			HomeTeamID: home,
			AwayTeamID: away,
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
		})
		// Teams can show up in the ledger before they have an identity row.
		addTeam(in, engine.Team{ID: home})
		addTeam(in, engine.Team{ID: away})
	}

	for _, in := range inputs {
		sort.Slice(in.Teams, func(i, j int) bool { return in.Teams[i].ID < in.Teams[j].ID })
		sort.Slice(in.Games, func(i, j int) bool { return in.Games[i].ID < in.Games[j].ID })
	}
	return inputs
}

func sortedKeys(m *xsync.Map[string, engine.CohortResult]) []string {
	keys := make([]string, 0, m.Size())
	m.Range(func(key string, _ engine.CohortResult) bool {
		keys = append(keys, key)
		return true
	})
	sort.Strings(keys)
	return keys
}

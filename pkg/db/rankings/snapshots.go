package rankings

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/scoreline/powerrank/pkg/db/clickhouse"
	"github.com/scoreline/powerrank/pkg/db/models"
	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
)

// InsertSnapshots writes one run's snapshot rows in a single batch.
func (db *DB) InsertSnapshots(ctx context.Context, snapshots []*rankmodels.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s)`,
		db.Name, rankmodels.SnapshotsTableName, models.ColumnNames(rankmodels.SnapshotColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, s := range snapshots {
		err = batch.Append(
			s.RunID, s.TeamID, s.TeamName, s.AgeGroup, s.Gender, s.State, s.Status,
			s.GamesPlayed, s.TotalGamesPlayed, s.Wins, s.Losses, s.Draws, s.WinPct,
			s.RawOff, s.RawDef, s.OffShrunk, s.DefShrunk, s.PerfDelta,
			s.SOS, s.SOSNorm, s.SOSNormState, s.SOSRankNational, s.SOSRankState,
			s.OffNorm, s.DefNorm, s.PowerPreSOS, s.ProvisionalMult, s.PowerScoreAdj,
			s.Anchor, s.AbsStrength,
			s.MLOverperf, s.MLNorm, s.PowerScoreML,
			s.RankInCohortFinal, s.RankInStateFinal,
			s.RankChange7d, s.RankChange30d, s.RankChange7dState, s.RankChange30dState,
			s.Converged, s.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("append snapshot for team %s: %w", s.TeamID, err)
		}
	}

	return batch.Send()
}

// LatestRunID returns the run id of the most recently computed snapshot, or
// an empty string when no run has completed yet.
func (db *DB) LatestRunID(ctx context.Context) (string, error) {
	query := fmt.Sprintf(`
		SELECT run_id
		FROM "%s"."%s"
		ORDER BY computed_at DESC
		LIMIT 1
	`, db.Name, rankmodels.SnapshotsTableName)

	var runID string
	if err := db.QueryRow(ctx, query).Scan(&runID); err != nil {
		if clickhouse.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("latest run id: %w", err)
	}
	return runID, nil
}

// ListCohortSnapshots returns one cohort's snapshot rows for a run, ranked
// teams first in rank order, optionally restricted to a state.
func (db *DB) ListCohortSnapshots(ctx context.Context, runID, ageGroup, gender, state string, limit, offset int) ([]*rankmodels.Snapshot, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	stateFilter := ""
	args := []interface{}{runID, ageGroup, gender}
	if state != "" {
		stateFilter = "AND state = ?"
		args = append(args, state)
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM "%s"."%s" FINAL
		WHERE run_id = ? AND age_group = ? AND gender = ? %s
		ORDER BY rank_in_cohort_final ASC NULLS LAST, team_id ASC
		LIMIT ? OFFSET ?
	`, models.ColumnNames(rankmodels.SnapshotColumns), db.Name, rankmodels.SnapshotsTableName, stateFilter)

	var snapshots []*rankmodels.Snapshot
	if err := db.Select(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("list cohort snapshots: %w", err)
	}
	return snapshots, nil
}

// GetTeamSnapshot returns one team's row from the given run, or nil when the
// team is absent from it.
func (db *DB) GetTeamSnapshot(ctx context.Context, runID, teamID string) (*rankmodels.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM "%s"."%s" FINAL
		WHERE run_id = ? AND team_id = ?
		LIMIT 1
	`, models.ColumnNames(rankmodels.SnapshotColumns), db.Name, rankmodels.SnapshotsTableName)

	var snapshots []*rankmodels.Snapshot
	if err := db.Select(ctx, &snapshots, query, runID, teamID); err != nil {
		return nil, fmt.Errorf("get team snapshot: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return snapshots[0], nil
}

// ListMovers returns the cohort's teams with the largest 7-day rank swings,
// biggest absolute movement first.
func (db *DB) ListMovers(ctx context.Context, runID, ageGroup, gender string, limit int) ([]*rankmodels.Snapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM "%s"."%s" FINAL
		WHERE run_id = ? AND age_group = ? AND gender = ?
			AND rank_change_7d IS NOT NULL
		ORDER BY abs(rank_change_7d) DESC, team_id ASC
		LIMIT ?
	`, models.ColumnNames(rankmodels.SnapshotColumns), db.Name, rankmodels.SnapshotsTableName)

	var snapshots []*rankmodels.Snapshot
	if err := db.Select(ctx, &snapshots, query, runID, ageGroup, gender, limit); err != nil {
		return nil, fmt.Errorf("list movers: %w", err)
	}
	return snapshots, nil
}

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/scoreline/powerrank/pkg/db/clickhouse"
	"github.com/scoreline/powerrank/pkg/db/models"
	ledgermodels "github.com/scoreline/powerrank/pkg/db/models/ledger"
)

// InsertGames appends game rows in one batch.
func (db *DB) InsertGames(ctx context.Context, games []*ledgermodels.Game) error {
	if len(games) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s)`,
		db.Name, ledgermodels.GamesTableName, models.ColumnNames(ledgermodels.GameColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, g := range games {
		err = batch.Append(
			g.GameID,
			g.PlayedAt,
			g.HomeTeamID,
			g.AwayTeamID,
			g.HomeScore,
			g.AwayScore,
			g.AgeGroup,
			g.Gender,
			g.Revision,
			g.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("append game %s: %w", g.GameID, err)
		}
	}

	return batch.Send()
}

// AppendCorrection appends a correction row for an existing game. The caller
// is responsible for having bumped the revision past CurrentRevision; the
// original rows stay in place untouched.
func (db *DB) AppendCorrection(ctx context.Context, game *ledgermodels.Game) error {
	if game.Revision == 0 {
		return fmt.Errorf("correction for game %s must carry revision > 0", game.GameID)
	}
	return db.InsertGames(ctx, []*ledgermodels.Game{game})
}

// ListCurrentGames returns the current view of the ledger: the highest
// revision of every game played on or after since, oldest first.
func (db *DB) ListCurrentGames(ctx context.Context, since time.Time) ([]*ledgermodels.Game, error) {
	query := fmt.Sprintf(`
		SELECT
			game_id,
			argMax(played_at, revision)    AS played_at,
			argMax(home_team_id, revision) AS home_team_id,
			argMax(away_team_id, revision) AS away_team_id,
			argMax(home_score, revision)   AS home_score,
			argMax(away_score, revision)   AS away_score,
			argMax(age_group, revision)    AS age_group,
			argMax(gender, revision)       AS gender,
			max(revision)                  AS revision,
			argMax(recorded_at, revision)  AS recorded_at
		FROM "%s"."%s"
		WHERE played_at >= ?
		GROUP BY game_id
		ORDER BY played_at ASC, game_id ASC
	`, db.Name, ledgermodels.GamesTableName)

	var games []*ledgermodels.Game
	if err := db.Select(ctx, &games, query, since); err != nil {
		return nil, fmt.Errorf("list current games: %w", err)
	}
	return games, nil
}

// GetCurrentGame returns the highest-revision view of one game, or nil when
// the game has never been recorded.
func (db *DB) GetCurrentGame(ctx context.Context, gameID string) (*ledgermodels.Game, error) {
	query := fmt.Sprintf(`
		SELECT
			game_id,
			argMax(played_at, revision)    AS played_at,
			argMax(home_team_id, revision) AS home_team_id,
			argMax(away_team_id, revision) AS away_team_id,
			argMax(home_score, revision)   AS home_score,
			argMax(away_score, revision)   AS away_score,
			argMax(age_group, revision)    AS age_group,
			argMax(gender, revision)       AS gender,
			max(revision)                  AS revision,
			argMax(recorded_at, revision)  AS recorded_at
		FROM "%s"."%s"
		WHERE game_id = ?
		GROUP BY game_id
	`, db.Name, ledgermodels.GamesTableName)

	var game ledgermodels.Game
	if err := db.QueryRow(ctx, query, gameID).ScanStruct(&game); err != nil {
		if clickhouse.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current game %s: %w", gameID, err)
	}
	return &game, nil
}

// CurrentRevision returns the highest revision recorded for gameID, or -1
// when no row exists.
func (db *DB) CurrentRevision(ctx context.Context, gameID string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT max(revision), count()
		FROM "%s"."%s"
		WHERE game_id = ?
	`, db.Name, ledgermodels.GamesTableName)

	var rev uint16
	var count uint64
	if err := db.QueryRow(ctx, query, gameID).Scan(&rev, &count); err != nil {
		return -1, fmt.Errorf("current revision for %s: %w", gameID, err)
	}
	if count == 0 {
		return -1, nil
	}
	return int64(rev), nil
}

// CountGamesForTeams counts current-view games that reference any of the
// given team ids on either side.
func (db *DB) CountGamesForTeams(ctx context.Context, teamIDs []string) (uint64, error) {
	if len(teamIDs) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		SELECT count()
		FROM (
			SELECT
				game_id,
				argMax(home_team_id, revision) AS home_team_id,
				argMax(away_team_id, revision) AS away_team_id
			FROM "%s"."%s"
			GROUP BY game_id
		)
		WHERE home_team_id IN (?) OR away_team_id IN (?)
	`, db.Name, ledgermodels.GamesTableName)

	var total uint64
	if err := db.QueryRow(ctx, query, teamIDs, teamIDs).Scan(&total); err != nil {
		return 0, fmt.Errorf("count games for teams: %w", err)
	}
	return total, nil
}

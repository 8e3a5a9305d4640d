package rankings

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/scoreline/powerrank/pkg/db/models"
	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
)

// InsertHistory appends one run's rank-history rows in a single batch.
func (db *DB) InsertHistory(ctx context.Context, rows []*rankmodels.History) error {
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s)`,
		db.Name, rankmodels.HistoryTableName, models.ColumnNames(rankmodels.HistoryColumns))

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, h := range rows {
		err = batch.Append(
			h.SnapshotDate,
			h.TeamID,
			h.AgeGroup,
			h.Gender,
			h.State,
			h.RankInCohort,
			h.RankInState,
			h.RunID,
			h.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("append history for team %s: %w", h.TeamID, err)
		}
	}

	return batch.Send()
}

// ListHistoryWindow returns history rows whose snapshot_date falls within
// tolerance of center. Callers pick the closest row per team.
func (db *DB) ListHistoryWindow(ctx context.Context, center time.Time, tolerance time.Duration) ([]*rankmodels.History, error) {
	from := center.Add(-tolerance)
	to := center.Add(tolerance)

	query := fmt.Sprintf(`
		SELECT %s
		FROM "%s"."%s" FINAL
		WHERE snapshot_date >= ? AND snapshot_date <= ?
		ORDER BY snapshot_date ASC, team_id ASC
	`, models.ColumnNames(rankmodels.HistoryColumns), db.Name, rankmodels.HistoryTableName)

	var rows []*rankmodels.History
	if err := db.Select(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("list history window: %w", err)
	}
	return rows, nil
}

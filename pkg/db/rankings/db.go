package rankings

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/powerrank/pkg/db/clickhouse"
	"github.com/scoreline/powerrank/pkg/db/models"
	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
)

// Store describes the snapshot/history operations used by the engine worker
// (writes) and the query/admin apps (reads). The presentation layer never
// recomputes ranks; it reads the precomputed columns written here.
type Store interface {
	DatabaseName() string
	InitializeDB(ctx context.Context) error

	InsertSnapshots(ctx context.Context, snapshots []*rankmodels.Snapshot) error
	InsertHistory(ctx context.Context, rows []*rankmodels.History) error

	LatestRunID(ctx context.Context) (string, error)
	ListCohortSnapshots(ctx context.Context, runID, ageGroup, gender, state string, limit, offset int) ([]*rankmodels.Snapshot, error)
	GetTeamSnapshot(ctx context.Context, runID, teamID string) (*rankmodels.Snapshot, error)
	ListMovers(ctx context.Context, runID, ageGroup, gender string, limit int) ([]*rankmodels.Snapshot, error)

	// ListHistoryWindow returns history rows with snapshot_date inside
	// [center-tolerance, center+tolerance]; callers pick the closest row per
	// team.
	ListHistoryWindow(ctx context.Context, center time.Time, tolerance time.Duration) ([]*rankmodels.History, error)

	Close() error
}

// DB implements Store on ClickHouse.
type DB struct {
	clickhouse.Client
	Name string
}

// New connects to the rankings database and ensures its tables exist.
func New(ctx context.Context, logger *zap.Logger, dbName string) (*DB, error) {
	name := clickhouse.SanitizeName(dbName)

	client, err := clickhouse.New(ctx, logger.With(zap.String("db", name)), name)
	if err != nil {
		return nil, err
	}

	db := &DB{Client: client, Name: name}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) DatabaseName() string { return db.Name }

// InitializeDB creates the snapshot and history tables when missing.
// team_snapshots dedups on (run_id, team_id) by computed_at so a retried run
// overwrites its own rows; ranking_history dedups on (snapshot_date, team_id)
// so re-running the same day replaces that day's baseline.
func (db *DB) InitializeDB(ctx context.Context) error {
	snapshots := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s(computed_at)
		ORDER BY (run_id, team_id)
	`, db.Name, rankmodels.SnapshotsTableName, models.ColumnsSQL(rankmodels.SnapshotColumns), clickhouse.ReplacingMergeTree)

	if err := db.Exec(ctx, snapshots); err != nil {
		return fmt.Errorf("create team_snapshots table: %w", err)
	}

	history := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s(recorded_at)
		PARTITION BY toYYYYMM(snapshot_date)
		ORDER BY (snapshot_date, team_id)
	`, db.Name, rankmodels.HistoryTableName, models.ColumnsSQL(rankmodels.HistoryColumns), clickhouse.ReplacingMergeTree)

	if err := db.Exec(ctx, history); err != nil {
		return fmt.Errorf("create ranking_history table: %w", err)
	}
	return nil
}

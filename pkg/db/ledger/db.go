package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/powerrank/pkg/db/clickhouse"
	"github.com/scoreline/powerrank/pkg/db/models"
	ledgermodels "github.com/scoreline/powerrank/pkg/db/models/ledger"
)

// Store describes the game-ledger operations the engine and admin surfaces
// need. The ledger is append-only: there is deliberately no update or delete
// path for game rows.
type Store interface {
	DatabaseName() string
	InitializeDB(ctx context.Context) error

	InsertGames(ctx context.Context, games []*ledgermodels.Game) error
	AppendCorrection(ctx context.Context, game *ledgermodels.Game) error

	// ListCurrentGames streams the current view of the ledger: one row per
	// game_id at its highest revision, restricted to games on or after since.
	ListCurrentGames(ctx context.Context, since time.Time) ([]*ledgermodels.Game, error)
	// GetCurrentGame returns one game at its highest revision, or nil when
	// the game does not exist.
	GetCurrentGame(ctx context.Context, gameID string) (*ledgermodels.Game, error)
	// CurrentRevision returns the highest revision recorded for a game, or
	// -1 when the game does not exist.
	CurrentRevision(ctx context.Context, gameID string) (int64, error)
	// CountGamesForTeams counts current-view games referencing any of the
	// given team ids (home or away). Used to report merge impact.
	CountGamesForTeams(ctx context.Context, teamIDs []string) (uint64, error)

	Close() error
}

// DB implements Store on ClickHouse.
type DB struct {
	clickhouse.Client
	Name string
}

// New connects to the ledger database and ensures its tables exist.
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

// InitializeDB creates the ledger tables when missing. Plain MergeTree:
// rows are immutable and corrections arrive as new rows, so there is
// nothing to replace or deduplicate at the storage layer.
func (db *DB) InitializeDB(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY toYYYYMM(played_at)
		ORDER BY (played_at, game_id, revision)
	`, db.Name, ledgermodels.GamesTableName, models.ColumnsSQL(ledgermodels.GameColumns), clickhouse.MergeTree)

	if err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create games table: %w", err)
	}
	return nil
}

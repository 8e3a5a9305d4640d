package identity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	"github.com/scoreline/powerrank/pkg/db/postgres"
	"github.com/scoreline/powerrank/pkg/identity"
)

// Store describes the team-identity operations backed by Postgres. Team rows
// and merge edges are the only mutable state in the system, and the merge
// path is the only mutation exposed to operators.
type Store interface {
	InitializeDB(ctx context.Context) error

	ListTeams(ctx context.Context) ([]*identitymodels.Team, error)
	GetTeam(ctx context.Context, id string) (*identitymodels.Team, error)
	CreateTeam(ctx context.Context, team *identitymodels.Team) error

	ListMergeEdges(ctx context.Context) ([]identitymodels.MergeEdge, error)
	// GetMergeEdge returns the redirect edge for a deprecated team id, or
	// nil when the id was never merged away.
	GetMergeEdge(ctx context.Context, deprecatedTeamID string) (*identitymodels.MergeEdge, error)
	// ExecuteMerge applies a merge in one serializable transaction. Returns
	// aliasesUpdated and cascadedTeams; validation failures surface the
	// typed errors from pkg/identity with no partial write.
	ExecuteMerge(ctx context.Context, req identity.MergeRequest) (aliasesUpdated, cascadedTeams int64, err error)

	CreateCorrection(ctx context.Context, req *identitymodels.CorrectionRequest) error
	GetCorrection(ctx context.Context, id int64) (*identitymodels.CorrectionRequest, error)
	ListCorrections(ctx context.Context, status string) ([]*identitymodels.CorrectionRequest, error)
	ReviewCorrection(ctx context.Context, id int64, approved bool, reviewer string) (*identitymodels.CorrectionRequest, error)

	Close()
}

// DB implements Store on Postgres.
type DB struct {
	postgres.Client
}

// New connects to Postgres and ensures the identity schema exists.
func New(ctx context.Context, logger *zap.Logger) (*DB, error) {
	client, err := postgres.New(ctx, logger.With(zap.String("store", "identity")))
	if err != nil {
		return nil, err
	}

	db := &DB{Client: client}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// InitializeDB creates the identity tables when missing.
func (db *DB) InitializeDB(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			age_group     TEXT NOT NULL,
			gender        TEXT NOT NULL,
			state         TEXT NOT NULL DEFAULT '',
			is_canonical  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			deprecated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS team_merge_edges (
			deprecated_team_id TEXT PRIMARY KEY REFERENCES teams(id),
			canonical_team_id  TEXT NOT NULL REFERENCES teams(id),
			reason             TEXT NOT NULL DEFAULT '',
			confidence         DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			merged_by          TEXT NOT NULL DEFAULT '',
			merged_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (deprecated_team_id <> canonical_team_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_edges_canonical
			ON team_merge_edges (canonical_team_id)`,
		`CREATE TABLE IF NOT EXISTS team_aliases (
			provider     TEXT NOT NULL,
			external_key TEXT NOT NULL,
			team_id      TEXT NOT NULL REFERENCES teams(id),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (provider, external_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_aliases_team
			ON team_aliases (team_id)`,
		`CREATE TABLE IF NOT EXISTS correction_requests (
			id           BIGSERIAL PRIMARY KEY,
			game_id      TEXT NOT NULL,
			home_score   SMALLINT,
			away_score   SMALLINT,
			home_team_id TEXT,
			away_team_id TEXT,
			played_at    DATE,
			reason       TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'pending',
			created_by   TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			reviewed_by  TEXT,
			reviewed_at  TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_corrections_status
			ON correction_requests (status, created_at)`,
	}

	for _, stmt := range schema {
		if err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("initialize identity schema: %w", err)
		}
	}
	return nil
}

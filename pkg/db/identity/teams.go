package identity

import (
	"context"
	"fmt"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	"github.com/scoreline/powerrank/pkg/db/postgres"
)

const teamColumns = "id, name, age_group, gender, state, is_canonical, created_at, deprecated_at"

// ListTeams returns every team, canonical and deprecated alike, ordered by id
// for deterministic downstream iteration.
func (db *DB) ListTeams(ctx context.Context) ([]*identitymodels.Team, error) {
	rows, err := db.Query(ctx, fmt.Sprintf("SELECT %s FROM teams ORDER BY id", teamColumns))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*identitymodels.Team
	for rows.Next() {
		var t identitymodels.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.AgeGroup, &t.Gender, &t.State,
			&t.IsCanonical, &t.CreatedAt, &t.DeprecatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

// GetTeam returns one team by id, or nil when it does not exist.
func (db *DB) GetTeam(ctx context.Context, id string) (*identitymodels.Team, error) {
	var t identitymodels.Team
	err := db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM teams WHERE id = $1", teamColumns), id).
		Scan(&t.ID, &t.Name, &t.AgeGroup, &t.Gender, &t.State,
			&t.IsCanonical, &t.CreatedAt, &t.DeprecatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team %s: %w", id, err)
	}
	return &t, nil
}

// CreateTeam inserts a new canonical team.
func (db *DB) CreateTeam(ctx context.Context, team *identitymodels.Team) error {
	err := db.Exec(ctx, `
		INSERT INTO teams (id, name, age_group, gender, state, is_canonical)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, team.ID, team.Name, team.AgeGroup, team.Gender, team.State)
	if err != nil {
		return fmt.Errorf("create team %s: %w", team.ID, err)
	}
	return nil
}

package identity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	"github.com/scoreline/powerrank/pkg/db/postgres"
	"github.com/scoreline/powerrank/pkg/identity"
)

// ListMergeEdges returns the full redirect graph.
func (db *DB) ListMergeEdges(ctx context.Context) ([]identitymodels.MergeEdge, error) {
	rows, err := db.Query(ctx, `
		SELECT deprecated_team_id, canonical_team_id, reason, confidence, merged_by, merged_at
		FROM team_merge_edges
		ORDER BY deprecated_team_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list merge edges: %w", err)
	}
	defer rows.Close()

	var edges []identitymodels.MergeEdge
	for rows.Next() {
		var e identitymodels.MergeEdge
		if err := rows.Scan(&e.DeprecatedTeamID, &e.CanonicalTeamID, &e.Reason,
			&e.Confidence, &e.MergedBy, &e.MergedAt); err != nil {
			return nil, fmt.Errorf("scan merge edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// GetMergeEdge returns the redirect edge for a deprecated team id, or nil
// when the id was never merged away.
func (db *DB) GetMergeEdge(ctx context.Context, deprecatedTeamID string) (*identitymodels.MergeEdge, error) {
	var e identitymodels.MergeEdge
	err := db.QueryRow(ctx, `
		SELECT deprecated_team_id, canonical_team_id, reason, confidence, merged_by, merged_at
		FROM team_merge_edges
		WHERE deprecated_team_id = $1
	`, deprecatedTeamID).Scan(&e.DeprecatedTeamID, &e.CanonicalTeamID, &e.Reason,
		&e.Confidence, &e.MergedBy, &e.MergedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merge edge: %w", err)
	}
	return &e, nil
}

// ExecuteMerge applies req in one serializable transaction:
//
//  1. lock both teams and validate (exists, not self, source still canonical)
//  2. if the target is itself deprecated, follow its single edge; landing
//     back on the source is a cycle and rejects the merge
//  3. cascade: rewrite edges pointing at the source to point at the target
//  4. insert the new edge and rewrite the source's aliases
//  5. mark the source deprecated
//
// Any validation failure rolls back with no partial effect.
func (db *DB) ExecuteMerge(ctx context.Context, req identity.MergeRequest) (aliasesUpdated, cascadedTeams int64, err error) {
	if req.DeprecatedTeamID == req.CanonicalTeamID {
		return 0, 0, identity.ErrSelfMerge
	}

	txErr := db.BeginSerializableFunc(ctx, func(tx pgx.Tx) error {
		var srcCanonical bool
		if scanErr := tx.QueryRow(ctx,
			`SELECT is_canonical FROM teams WHERE id = $1 FOR UPDATE`,
			req.DeprecatedTeamID).Scan(&srcCanonical); scanErr != nil {
			if postgres.IsNoRows(scanErr) {
				return fmt.Errorf("deprecated team %s: %w", req.DeprecatedTeamID, identity.ErrTeamNotFound)
			}
			return scanErr
		}
		if !srcCanonical {
			return fmt.Errorf("team %s: %w", req.DeprecatedTeamID, identity.ErrAlreadyDeprecated)
		}

		target := req.CanonicalTeamID
		var targetCanonical bool
		if scanErr := tx.QueryRow(ctx,
			`SELECT is_canonical FROM teams WHERE id = $1 FOR UPDATE`,
			target).Scan(&targetCanonical); scanErr != nil {
			if postgres.IsNoRows(scanErr) {
				return fmt.Errorf("canonical team %s: %w", target, identity.ErrTeamNotFound)
			}
			return scanErr
		}

		if !targetCanonical {
			// The target was merged away earlier; follow its one redirect.
			var resolved string
			if scanErr := tx.QueryRow(ctx,
				`SELECT canonical_team_id FROM team_merge_edges WHERE deprecated_team_id = $1`,
				target).Scan(&resolved); scanErr != nil {
				return fmt.Errorf("resolve deprecated target %s: %w", target, scanErr)
			}
			if resolved == req.DeprecatedTeamID {
				return fmt.Errorf("merge %s into %s: %w", req.DeprecatedTeamID, target, identity.ErrMergeCycle)
			}
			target = resolved
		}

		// Cascade existing edges pointing at the source so no chain survives.
		tag, execErr := tx.Exec(ctx, `
			UPDATE team_merge_edges
			SET canonical_team_id = $1
			WHERE canonical_team_id = $2
		`, target, req.DeprecatedTeamID)
		if execErr != nil {
			return fmt.Errorf("cascade merge edges: %w", execErr)
		}
		cascadedTeams = tag.RowsAffected()

		if _, execErr = tx.Exec(ctx, `
			INSERT INTO team_merge_edges (deprecated_team_id, canonical_team_id, reason, confidence, merged_by)
			VALUES ($1, $2, $3, $4, $5)
		`, req.DeprecatedTeamID, target, req.Reason, req.Confidence, req.MergedBy); execErr != nil {
			return fmt.Errorf("insert merge edge: %w", execErr)
		}

		tag, execErr = tx.Exec(ctx, `
			UPDATE team_aliases SET team_id = $1 WHERE team_id = $2
		`, target, req.DeprecatedTeamID)
		if execErr != nil {
			return fmt.Errorf("rewrite aliases: %w", execErr)
		}
		aliasesUpdated = tag.RowsAffected()

		if _, execErr = tx.Exec(ctx, `
			UPDATE teams SET is_canonical = FALSE, deprecated_at = now() WHERE id = $1
		`, req.DeprecatedTeamID); execErr != nil {
			return fmt.Errorf("deprecate team: %w", execErr)
		}

		return nil
	})
	if txErr != nil {
		return 0, 0, txErr
	}
	return aliasesUpdated, cascadedTeams, nil
}

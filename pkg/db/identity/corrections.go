package identity

import (
	"context"
	"fmt"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	"github.com/scoreline/powerrank/pkg/db/postgres"
)

const correctionColumns = `id, game_id, home_score, away_score, home_team_id, away_team_id,
	played_at, reason, status, created_by, created_at, reviewed_by, reviewed_at`

// CreateCorrection records a pending correction request. The ledger row it
// targets is untouched until a reviewer approves it.
func (db *DB) CreateCorrection(ctx context.Context, req *identitymodels.CorrectionRequest) error {
	err := db.QueryRow(ctx, `
		INSERT INTO correction_requests
			(game_id, home_score, away_score, home_team_id, away_team_id, played_at, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at
	`, req.GameID, req.HomeScore, req.AwayScore, req.HomeTeamID, req.AwayTeamID,
		req.PlayedAt, req.Reason, req.CreatedBy).
		Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create correction for game %s: %w", req.GameID, err)
	}
	return nil
}

// GetCorrection returns one correction request, or nil when absent.
func (db *DB) GetCorrection(ctx context.Context, id int64) (*identitymodels.CorrectionRequest, error) {
	var c identitymodels.CorrectionRequest
	err := db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM correction_requests WHERE id = $1", correctionColumns), id).
		Scan(&c.ID, &c.GameID, &c.HomeScore, &c.AwayScore, &c.HomeTeamID, &c.AwayTeamID,
			&c.PlayedAt, &c.Reason, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.ReviewedBy, &c.ReviewedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get correction %d: %w", id, err)
	}
	return &c, nil
}

// ListCorrections returns correction requests, optionally filtered by status.
func (db *DB) ListCorrections(ctx context.Context, status string) ([]*identitymodels.CorrectionRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM correction_requests", correctionColumns)
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT 500"

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	defer rows.Close()

	var out []*identitymodels.CorrectionRequest
	for rows.Next() {
		var c identitymodels.CorrectionRequest
		if err := rows.Scan(&c.ID, &c.GameID, &c.HomeScore, &c.AwayScore, &c.HomeTeamID, &c.AwayTeamID,
			&c.PlayedAt, &c.Reason, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.ReviewedBy, &c.ReviewedAt); err != nil {
			return nil, fmt.Errorf("scan correction: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ReviewCorrection transitions a pending request to approved or rejected and
// returns the updated record. Requests that are not pending are not
// re-reviewable.
func (db *DB) ReviewCorrection(ctx context.Context, id int64, approved bool, reviewer string) (*identitymodels.CorrectionRequest, error) {
	status := identitymodels.CorrectionRejected
	if approved {
		status = identitymodels.CorrectionApproved
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE correction_requests
		SET status = $1, reviewed_by = $2, reviewed_at = now()
		WHERE id = $3 AND status = $4
	`, status, reviewer, id, identitymodels.CorrectionPending)
	if err != nil {
		return nil, fmt.Errorf("review correction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("correction %d is not pending", id)
	}

	return db.GetCorrection(ctx, id)
}

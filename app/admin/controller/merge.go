package controller

import (
	"errors"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
	"github.com/scoreline/powerrank/pkg/identity"
)

// HandleTeamMerge folds one team identity into another. The merge rewrites
// the redirect graph and aliases atomically; the game ledger is left
// untouched because resolution happens at read time.
func (c *Controller) HandleTeamMerge(w http.ResponseWriter, r *http.Request) {
	var req identity.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}
	if req.CanonicalTeamID == "" || req.DeprecatedTeamID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "canonical_team_id and deprecated_team_id are required"})
		return
	}
	if req.MergedBy == "" {
		req.MergedBy = c.currentUser(r)
	}

	// Snapshot the incoming edges first: the merge rewrites them to the
	// survivor, after which the lineage is no longer distinguishable.
	lineage := []string{req.DeprecatedTeamID}
	if edges, listErr := c.App.IdentityDB.ListMergeEdges(r.Context()); listErr == nil {
		lineage = mergedLineage(edges, req.DeprecatedTeamID)
	}

	aliasesUpdated, cascadedTeams, err := c.App.IdentityDB.ExecuteMerge(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrSelfMerge), errors.Is(err, identity.ErrMergeCycle):
			w.WriteHeader(http.StatusUnprocessableEntity)
		case errors.Is(err, identity.ErrTeamNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, identity.ErrAlreadyDeprecated):
			w.WriteHeader(http.StatusConflict)
		default:
			c.App.Logger.Error("Merge failed", zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	// Count on the ledger side so operators see the blast radius. The count
	// covers the deprecated team plus everything that now redirects to the
	// canonical survivor.
	gamesAffected, countErr := c.App.LedgerDB.CountGamesForTeams(r.Context(), lineage)
	if countErr != nil {
		c.App.Logger.Warn("Failed to count merged games", zap.Error(countErr))
	}

	c.App.Logger.Info("Teams merged",
		zap.String("canonical", req.CanonicalTeamID),
		zap.String("deprecated", req.DeprecatedTeamID),
		zap.String("merged_by", req.MergedBy),
		zap.Uint64("games_affected", gamesAffected),
		zap.Int64("cascaded_teams", cascadedTeams))

	_ = json.NewEncoder(w).Encode(identity.MergeResult{
		Merged:         true,
		GamesAffected:  gamesAffected,
		AliasesUpdated: aliasesUpdated,
		CascadedTeams:  cascadedTeams,
	})
}

// mergedLineage returns the deprecated id plus every id that redirected to
// it, i.e. every ledger reference the merge re-attributes.
func mergedLineage(edges []identitymodels.MergeEdge, deprecatedID string) []string {
	ids := []string{deprecatedID}
	for _, e := range edges {
		if e.CanonicalTeamID == deprecatedID {
			ids = append(ids, e.DeprecatedTeamID)
		}
	}
	return ids
}

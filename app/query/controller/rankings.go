package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// resolveRunID picks the run to serve: ?run_id= pins a historical run,
// otherwise the latest completed one.
func (c *Controller) resolveRunID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if pinned := r.URL.Query().Get("run_id"); pinned != "" {
		return pinned, true
	}
	runID, err := c.App.CurrentRunID(r.Context())
	if err != nil {
		c.App.Logger.Error("Failed to resolve latest run", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unable to resolve latest run"})
		return "", false
	}
	if runID == "" {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no completed runs yet"})
		return "", false
	}
	return runID, true
}

// HandleLatestRun returns the id of the newest completed run.
func (c *Controller) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	runID, err := c.App.CurrentRunID(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if runID == "" {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no completed runs yet"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
}

// HandleCohortRankings serves the ranked table for one cohort, optionally
// filtered to a state.
func (c *Controller) HandleCohortRankings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	age, gender := vars["age"], vars["gender"]

	page, err := parsePageSpec(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	runID, ok := c.resolveRunID(w, r)
	if !ok {
		return
	}

	state := r.URL.Query().Get("state")
	rows, err := c.App.RankingsDB.ListCohortSnapshots(r.Context(), runID, age, gender, state, page.Limit, page.Offset)
	if err != nil {
		c.App.Logger.Error("Failed to list cohort snapshots", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":    runID,
		"age_group": age,
		"gender":    gender,
		"state":     state,
		"teams":     rows,
	})
}

// HandleMovers serves teams ordered by the size of their 7-day rank move.
func (c *Controller) HandleMovers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	age, gender := vars["age"], vars["gender"]

	page, err := parsePageSpec(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	runID, ok := c.resolveRunID(w, r)
	if !ok {
		return
	}

	rows, err := c.App.RankingsDB.ListMovers(r.Context(), runID, age, gender, page.Limit)
	if err != nil {
		c.App.Logger.Error("Failed to list movers", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":    runID,
		"age_group": age,
		"gender":    gender,
		"teams":     rows,
	})
}

// HandleTeam serves one team's snapshot from the latest run, following
// merge redirects so retired ids keep resolving.
func (c *Controller) HandleTeam(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]

	runID, ok := c.resolveRunID(w, r)
	if !ok {
		return
	}

	snap, err := c.App.RankingsDB.GetTeamSnapshot(r.Context(), runID, teamID)
	if err != nil {
		c.App.Logger.Error("Failed to load team snapshot", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	if snap == nil {
		// The id may belong to a merged-away team; follow the redirect.
		team, err := c.App.IdentityDB.GetTeam(r.Context(), teamID)
		if err == nil && team != nil && !team.IsCanonical {
			if canonical := c.canonicalID(r, teamID); canonical != teamID {
				snap, err = c.App.RankingsDB.GetTeamSnapshot(r.Context(), runID, canonical)
				if err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
					return
				}
			}
		}
	}
	if snap == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "team not found in this run"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"team":   snap,
	})
}

// canonicalID resolves a possibly-deprecated id through its single redirect
// edge. Chains never exceed one hop, so one lookup settles it.
func (c *Controller) canonicalID(r *http.Request, teamID string) string {
	edge, err := c.App.IdentityDB.GetMergeEdge(r.Context(), teamID)
	if err != nil || edge == nil {
		return teamID
	}
	return edge.CanonicalTeamID
}

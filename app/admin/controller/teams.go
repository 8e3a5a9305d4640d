package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
)

// HandleTeamsList returns the full team roster, deprecated teams included.
func (c *Controller) HandleTeamsList(w http.ResponseWriter, r *http.Request) {
	teams, err := c.App.IdentityDB.ListTeams(r.Context())
	if err != nil {
		c.App.Logger.Error("Failed to list teams", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"teams": teams})
}

// HandleTeamCreate registers a new canonical team.
func (c *Controller) HandleTeamCreate(w http.ResponseWriter, r *http.Request) {
	var in identitymodels.Team
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}
	if in.Name == "" || in.AgeGroup == "" || in.Gender == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "name, age_group and gender are required"})
		return
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	in.IsCanonical = true
	in.DeprecatedAt = nil

	if err := c.App.IdentityDB.CreateTeam(r.Context(), &in); err != nil {
		c.App.Logger.Error("Failed to create team", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "insert failed"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(in)
}

// HandleTeamDetail returns one team row by id.
func (c *Controller) HandleTeamDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	team, err := c.App.IdentityDB.GetTeam(r.Context(), id)
	if err != nil {
		c.App.Logger.Error("Failed to load team", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	if team == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "team not found"})
		return
	}
	_ = json.NewEncoder(w).Encode(team)
}

package controller

import (
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	ledgermodels "github.com/scoreline/powerrank/pkg/db/models/ledger"
)

// HandleGamesIngest appends a batch of game results to the ledger at
// revision 0. The ledger is append-only; fixing a recorded score goes
// through the correction workflow, never through re-ingest.
func (c *Controller) HandleGamesIngest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Games []ledgermodels.Game `json:"games"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}
	if len(in.Games) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no games in payload"})
		return
	}

	now := time.Now().UTC()
	rows := make([]*ledgermodels.Game, 0, len(in.Games))
	for i := range in.Games {
		g := in.Games[i]
		if g.HomeTeamID == "" || g.AwayTeamID == "" || g.PlayedAt.IsZero() || g.AgeGroup == "" || g.Gender == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "each game needs home_team_id, away_team_id, played_at, age_group and gender"})
			return
		}
		if g.HomeTeamID == g.AwayTeamID {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "a team cannot play itself"})
			return
		}
		if g.GameID == "" {
			g.GameID = uuid.NewString()
		}
		g.Revision = 0
		g.RecordedAt = now
		rows = append(rows, &g)
	}

	if err := c.App.LedgerDB.InsertGames(r.Context(), rows); err != nil {
		c.App.Logger.Error("Failed to ingest games", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "insert failed"})
		return
	}

	ids := make([]string, len(rows))
	for i, g := range rows {
		ids[i] = g.GameID
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"inserted": len(rows), "game_ids": ids})
}

// HandleGameDetail returns the current view of one game.
func (c *Controller) HandleGameDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	game, err := c.App.LedgerDB.GetCurrentGame(r.Context(), id)
	if err != nil {
		c.App.Logger.Error("Failed to load game", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	if game == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
		return
	}
	_ = json.NewEncoder(w).Encode(game)
}

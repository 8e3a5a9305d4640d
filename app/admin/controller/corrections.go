package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	identitymodels "github.com/scoreline/powerrank/pkg/db/models/identity"
)

// HandleCorrectionsList lists correction requests, optionally filtered by
// ?status=pending|approved|rejected.
func (c *Controller) HandleCorrectionsList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	rows, err := c.App.IdentityDB.ListCorrections(r.Context(), status)
	if err != nil {
		c.App.Logger.Error("Failed to list corrections", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"corrections": rows})
}

// HandleCorrectionCreate files a correction request against a recorded game.
func (c *Controller) HandleCorrectionCreate(w http.ResponseWriter, r *http.Request) {
	var in identitymodels.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}
	if in.GameID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "game_id is required"})
		return
	}
	if in.HomeScore == nil && in.AwayScore == nil && in.HomeTeamID == nil && in.AwayTeamID == nil && in.PlayedAt == nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "correction changes nothing"})
		return
	}

	// The game must exist before a correction can target it.
	game, err := c.App.LedgerDB.GetCurrentGame(r.Context(), in.GameID)
	if err != nil {
		c.App.Logger.Error("Failed to check game", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	if game == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
		return
	}

	in.Status = identitymodels.CorrectionPending
	in.CreatedBy = c.currentUser(r)

	if err := c.App.IdentityDB.CreateCorrection(r.Context(), &in); err != nil {
		c.App.Logger.Error("Failed to create correction", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "insert failed"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(in)
}

// HandleCorrectionDetail returns one correction request.
func (c *Controller) HandleCorrectionDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid id"})
		return
	}

	row, err := c.App.IdentityDB.GetCorrection(r.Context(), id)
	if err != nil {
		c.App.Logger.Error("Failed to load correction", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "query failed"})
		return
	}
	if row == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "correction not found"})
		return
	}
	_ = json.NewEncoder(w).Encode(row)
}

// HandleCorrectionReview approves or rejects a pending correction. Approval
// appends a new ledger row for the game with the revision bumped; the
// original row stays in place for audit.
func (c *Controller) HandleCorrectionReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid id"})
		return
	}

	var in struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad json"})
		return
	}

	reviewer := c.currentUser(r)
	row, err := c.App.IdentityDB.ReviewCorrection(r.Context(), id, in.Approve, reviewer)
	if err != nil {
		c.App.Logger.Error("Failed to review correction", zap.Int64("id", id), zap.Error(err))
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	if in.Approve {
		if err := c.applyCorrection(r, row); err != nil {
			c.App.Logger.Error("Failed to apply approved correction", zap.Int64("id", id), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "correction approved but ledger append failed: " + err.Error()})
			return
		}
	}

	_ = json.NewEncoder(w).Encode(row)
}

// applyCorrection materializes an approved correction as the next revision
// of the game row.
func (c *Controller) applyCorrection(r *http.Request, correction *identitymodels.CorrectionRequest) error {
	ctx := r.Context()

	game, err := c.App.LedgerDB.GetCurrentGame(ctx, correction.GameID)
	if err != nil {
		return err
	}
	if game == nil {
		return errGameVanished
	}

	if correction.HomeScore != nil {
		game.HomeScore = *correction.HomeScore
	}
	if correction.AwayScore != nil {
		game.AwayScore = *correction.AwayScore
	}
	if correction.HomeTeamID != nil {
		game.HomeTeamID = *correction.HomeTeamID
	}
	if correction.AwayTeamID != nil {
		game.AwayTeamID = *correction.AwayTeamID
	}
	if correction.PlayedAt != nil {
		game.PlayedAt = *correction.PlayedAt
	}
	game.Revision++
	game.RecordedAt = time.Now().UTC()

	return c.App.LedgerDB.AppendCorrection(ctx, game)
}

var errGameVanished = &reviewError{msg: "game disappeared from the ledger"}

type reviewError struct{ msg string }

func (e *reviewError) Error() string { return e.msg }

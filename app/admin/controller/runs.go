package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"
)

// HandleTriggerRun fires the ranking run schedule immediately instead of
// waiting for the next tick.
func (c *Controller) HandleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if err := c.App.TriggerRun(r.Context()); err != nil {
		c.App.Logger.Error("Failed to trigger ranking run", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	c.App.Logger.Info("Ranking run triggered", zap.String("triggered_by", c.currentUser(r)))
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "triggered"})
}

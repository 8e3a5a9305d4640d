package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scoreline/powerrank/app/query/types"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	r.HandleFunc("/runs/latest", c.HandleLatestRun).Methods(http.MethodGet)
	r.HandleFunc("/rankings/{age}/{gender}", c.HandleCohortRankings).Methods(http.MethodGet)
	r.HandleFunc("/rankings/{age}/{gender}/movers", c.HandleMovers).Methods(http.MethodGet)
	r.HandleFunc("/teams/{id}", c.HandleTeam).Methods(http.MethodGet)

	r.HandleFunc("/ws", c.HandleWebSocket)

	return r, nil
}

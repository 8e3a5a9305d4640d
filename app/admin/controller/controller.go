package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/scoreline/powerrank/app/admin/types"
	"github.com/scoreline/powerrank/pkg/utils"
)

type Controller struct {
	App        *types.App
	AdminToken string
	AuthUser   string
	Users      map[string]types.User
	AuthHash   []byte
	JWTSecret  []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminToken := utils.Env("ADMIN_TOKEN", "devtoken")
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminUsersJSON := utils.Env("ADMIN_USERS", "")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	jwtSecret := []byte(utils.Env("SESSION_SECRET", "change-me-please"))

	phash, _ := utils.HashOrRead(adminPass)
	users := map[string]types.User{}
	users[adminUser] = types.User{Username: adminUser, Hash: phash, Role: "admin"}
	if adminUsersJSON != "" {
		_ = json.Unmarshal([]byte(adminUsersJSON), &users)
	}

	return &Controller{
		App:        app,
		AdminToken: adminToken,
		AuthUser:   adminUser,
		Users:      users,
		AuthHash:   phash,
		JWTSecret:  jwtSecret,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: echo back the origin to allow credentials with any origin
		// TODO: Restrict this in production to specific domains
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodPut+", "+http.MethodPatch+", "+http.MethodDelete+", "+http.MethodOptions)

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

	r.Handle("/api/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	// Login/Logout
	r.HandleFunc("/api/auth/login", c.HandleAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", c.HandleAdminLogout).Methods(http.MethodPost)

	// Team identity
	r.Handle("/api/teams", c.RequireAuth(http.HandlerFunc(c.HandleTeamsList))).Methods(http.MethodGet)
	r.Handle("/api/teams", c.RequireAuth(http.HandlerFunc(c.HandleTeamCreate))).Methods(http.MethodPost)
	r.Handle("/api/teams/{id}", c.RequireAuth(http.HandlerFunc(c.HandleTeamDetail))).Methods(http.MethodGet)
	// Merges rewrite the identity graph; admin only.
	r.Handle("/api/teams/merge", c.RequireAdmin(http.HandlerFunc(c.HandleTeamMerge))).Methods(http.MethodPost)

	// Game ingest (append-only)
	r.Handle("/api/games", c.RequireAuth(http.HandlerFunc(c.HandleGamesIngest))).Methods(http.MethodPost)
	r.Handle("/api/games/{id}", c.RequireAuth(http.HandlerFunc(c.HandleGameDetail))).Methods(http.MethodGet)

	// Score corrections
	r.Handle("/api/corrections", c.RequireAuth(http.HandlerFunc(c.HandleCorrectionsList))).Methods(http.MethodGet)
	r.Handle("/api/corrections", c.RequireAuth(http.HandlerFunc(c.HandleCorrectionCreate))).Methods(http.MethodPost)
	r.Handle("/api/corrections/{id}", c.RequireAuth(http.HandlerFunc(c.HandleCorrectionDetail))).Methods(http.MethodGet)
	r.Handle("/api/corrections/{id}/review", c.RequireAdmin(http.HandlerFunc(c.HandleCorrectionReview))).Methods(http.MethodPost)

	// Manual run trigger
	r.Handle("/api/runs/trigger", c.RequireAdmin(http.HandlerFunc(c.HandleTriggerRun))).Methods(http.MethodPost)

	return r, nil
}

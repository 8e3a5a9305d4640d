package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	identitystore "github.com/scoreline/powerrank/pkg/db/identity"
	ledgerstore "github.com/scoreline/powerrank/pkg/db/ledger"
	rankstore "github.com/scoreline/powerrank/pkg/db/rankings"
	"github.com/scoreline/powerrank/pkg/redis"
)

type App struct {
	IdentityDB identitystore.Store
	LedgerDB   ledgerstore.Store
	RankingsDB rankstore.Store
	// RedisClient feeds the websocket with run events; nil disables it.
	RedisClient *redis.Client
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// CurrentRunID resolves the run id to read from: the Redis cache when warm,
// otherwise the newest run recorded in the rankings store.
func (a *App) CurrentRunID(ctx context.Context) (string, error) {
	if a.RedisClient != nil {
		if id, err := a.RedisClient.LatestRunID(ctx); err == nil && id != "" {
			return id, nil
		}
	}
	return a.RankingsDB.LatestRunID(ctx)
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.RankingsDB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
	if err := a.LedgerDB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
	a.IdentityDB.Close()

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("Query server stopped")
}

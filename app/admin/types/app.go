package types

import (
	"context"
	"net/http"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	identitystore "github.com/scoreline/powerrank/pkg/db/identity"
	ledgerstore "github.com/scoreline/powerrank/pkg/db/ledger"
	rankstore "github.com/scoreline/powerrank/pkg/db/rankings"
	"github.com/scoreline/powerrank/pkg/temporal"
)

// User is an operator account for the admin surface.
type User struct {
	Username string `json:"username"`
	Hash     []byte `json:"hash"`
	Role     string `json:"role"`
}

type App struct {
	IdentityDB identitystore.Store
	LedgerDB   ledgerstore.Store
	RankingsDB rankstore.Store

	TemporalClient *temporal.Client

	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// TriggerRun fires the ranking run schedule immediately. Overlap policy
// buffers the trigger if a run is already in flight.
func (a *App) TriggerRun(ctx context.Context) error {
	handle := a.TemporalClient.TSClient.GetHandle(ctx, a.TemporalClient.RankingRunScheduleID)
	return handle.Trigger(ctx, client.ScheduleTriggerOptions{
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
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
	a.TemporalClient.Close()

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("Admin server stopped")
}

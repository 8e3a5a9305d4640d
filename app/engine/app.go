package workerengine

import (
	"context"
	"time"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	identitystore "github.com/scoreline/powerrank/pkg/db/identity"
	ledgerstore "github.com/scoreline/powerrank/pkg/db/ledger"
	rankstore "github.com/scoreline/powerrank/pkg/db/rankings"
	"github.com/scoreline/powerrank/pkg/engine"
	"github.com/scoreline/powerrank/pkg/engine/activity"
	"github.com/scoreline/powerrank/pkg/engine/workflow"
	"github.com/scoreline/powerrank/pkg/logging"
	"github.com/scoreline/powerrank/pkg/redis"
	"github.com/scoreline/powerrank/pkg/temporal"
	"github.com/scoreline/powerrank/pkg/utils"
)

type App struct {
	Worker         worker.Worker
	TemporalClient *temporal.Client
	Logger         *zap.Logger
}

// Start starts the worker and blocks until the context is canceled.
func (a *App) Start(ctx context.Context) {
	err := a.Worker.Start()
	if err != nil {
		a.Logger.Fatal("Unable to start worker", zap.Error(err))
	}
	<-ctx.Done()
	a.Stop()
}

// Stop stops the worker.
func (a *App) Stop() {
	a.Worker.Stop()
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("Engine worker stopped")
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	identityDb, err := identitystore.New(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize identity database", zap.Error(err))
	}
	ledgerDb, err := ledgerstore.New(ctx, logger, utils.Env("LEDGER_DB", "powerrank_ledger"))
	if err != nil {
		logger.Fatal("Unable to initialize ledger database", zap.Error(err))
	}
	rankingsDb, err := rankstore.New(ctx, logger, utils.Env("RANKINGS_DB", "powerrank_rankings"))
	if err != nil {
		logger.Fatal("Unable to initialize rankings database", zap.Error(err))
	}

	temporalClient, err := temporal.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to establish temporal connection", zap.Error(err))
	}

	redisClient, err := redis.NewClient(ctx, logger)
	if err != nil {
		// Run events are best-effort; the engine still computes without them.
		logger.Warn("Unable to connect to Redis, run events disabled", zap.Error(err))
		redisClient = nil
	}

	activityContext := &activity.Context{
		Logger:         logger,
		IdentityDB:     identityDb,
		LedgerDB:       ledgerDb,
		RankingsDB:     rankingsDb,
		RedisClient:    redisClient,
		TemporalClient: temporalClient,
		Params:         engine.DefaultParams(),
	}
	workflowContext := workflow.Context{
		ActivityContext: activityContext,
	}

	wkr := worker.New(
		temporalClient.TClient,
		temporalClient.RankingsQueue,
		worker.Options{},
	)

	// Register the workflow
	wkr.RegisterWorkflow(workflowContext.RankingRunWorkflow)
	// Register all the activities
	wkr.RegisterActivity(activityContext.RunRankings)

	return &App{
		Worker:         wkr,
		TemporalClient: temporalClient,
		Logger:         logger,
	}
}

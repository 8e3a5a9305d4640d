package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/scoreline/powerrank/app/query/types"
	identitystore "github.com/scoreline/powerrank/pkg/db/identity"
	ledgerstore "github.com/scoreline/powerrank/pkg/db/ledger"
	rankstore "github.com/scoreline/powerrank/pkg/db/rankings"
	"github.com/scoreline/powerrank/pkg/logging"
	"github.com/scoreline/powerrank/pkg/redis"
	"github.com/scoreline/powerrank/pkg/utils"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
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

	// Redis feeds the websocket with run events (optional)
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - websocket run events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for websocket run events")
		}
	} else {
		logger.Info("Redis disabled - websocket run events will not be available")
	}

	app := &types.App{
		IdentityDB:  identityDb,
		LedgerDB:    ledgerDb,
		RankingsDB:  rankingsDb,
		RedisClient: redisClient,
		Logger:      logger,
	}

	return app
}

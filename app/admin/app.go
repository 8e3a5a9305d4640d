package admin

import (
	"context"

	"go.uber.org/zap"

	"github.com/scoreline/powerrank/app/admin/types"
	identitystore "github.com/scoreline/powerrank/pkg/db/identity"
	ledgerstore "github.com/scoreline/powerrank/pkg/db/ledger"
	rankstore "github.com/scoreline/powerrank/pkg/db/rankings"
	"github.com/scoreline/powerrank/pkg/logging"
	"github.com/scoreline/powerrank/pkg/temporal"
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

	temporalClient, err := temporal.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to establish temporal connection", zap.Error(err))
	}

	return &types.App{
		IdentityDB:     identityDb,
		LedgerDB:       ledgerDb,
		RankingsDB:     rankingsDb,
		TemporalClient: temporalClient,
		Logger:         logger,
	}
}

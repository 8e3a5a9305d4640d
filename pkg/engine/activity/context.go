package activity

import (
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	identitystore "github.com/scoreline/powerrank/pkg/db/identity"
	ledgerstore "github.com/scoreline/powerrank/pkg/db/ledger"
	rankstore "github.com/scoreline/powerrank/pkg/db/rankings"
	"github.com/scoreline/powerrank/pkg/engine"
	"github.com/scoreline/powerrank/pkg/redis"
	temporalclient "github.com/scoreline/powerrank/pkg/temporal"
)

type Context struct {
	Logger *zap.Logger

	IdentityDB identitystore.Store
	LedgerDB   ledgerstore.Store
	RankingsDB rankstore.Store

	// For publishing run lifecycle events
	RedisClient *redis.Client
	// For scheduling workflows
	TemporalClient *temporalclient.Client

	Params engine.Params

	// ComputeMaxParallelism allows overriding the default cohort pool size.
	ComputeMaxParallelism int
	cohortPoolOnce        sync.Once
	cohortPool            pond.Pool
	cohortPoolSize        int
}

// cohortBatchPool returns a shared worker pool for per-cohort computation.
// Pool size defaults to one worker per CPU (with sensible caps) but can be
// overridden; cohort computation is CPU-bound, not IO-bound.
func (c *Context) cohortBatchPool() pond.Pool {
	c.cohortPoolOnce.Do(func() {
		maxWorkers := ComputeParallelism(c.ComputeMaxParallelism)
		c.cohortPoolSize = maxWorkers
		c.cohortPool = pond.NewPool(maxWorkers)
	})

	return c.cohortPool
}

// CohortPoolSize exposes the configured pool size for logging purposes.
func (c *Context) CohortPoolSize() int {
	if c.cohortPoolSize != 0 {
		return c.cohortPoolSize
	}
	return ComputeParallelism(c.ComputeMaxParallelism)
}

// ComputeParallelism resolves the cohort pool size: the override when
// positive, otherwise NumCPU clamped to [2, 16].
func ComputeParallelism(override int) int {
	if override > 0 {
		return override
	}
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	if n > 16 {
		n = 16
	}
	return n
}

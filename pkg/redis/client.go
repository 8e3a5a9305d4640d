package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scoreline/powerrank/pkg/utils"
)

const (
	// RunStream is the stream carrying run lifecycle events for the
	// websocket fan-out and digest jobs.
	RunStream = "powerrank:runs"

	// latestRunKey caches the id of the most recently completed run so the
	// query app resolves "current snapshot" without touching ClickHouse.
	latestRunKey = "powerrank:latest_run"

	// DefaultStreamMaxLen caps retained run events.
	DefaultStreamMaxLen = 1000
)

// Client wraps the Redis client for run-event notifications and the
// latest-run cache.
type Client struct {
	client       *redis.Client
	logger       *zap.Logger
	streamMaxLen int64
}

// NewClient creates a new Redis client using environment variables for
// configuration (REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB).
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)
	streamMaxLen := utils.EnvInt64("REDIS_STREAM_MAXLEN", DefaultStreamMaxLen)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))

	return &Client{
		client:       rdb,
		logger:       logger,
		streamMaxLen: streamMaxLen,
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// PublishRunCompleted records the run as latest and appends a run.completed
// event to the run stream. Best-effort: a ranking run that computed and
// persisted its snapshot must not fail because notification plumbing is
// down, so errors are logged, not returned.
func (c *Client) PublishRunCompleted(ctx context.Context, runID string, cohorts, flagged int) {
	if err := c.client.Set(ctx, latestRunKey, runID, 0).Err(); err != nil {
		c.logger.Warn("Failed to cache latest run id", zap.String("run_id", runID), zap.Error(err))
	}

	args := &redis.XAddArgs{
		Stream: RunStream,
		Values: map[string]interface{}{
			"event":   "run.completed",
			"run_id":  runID,
			"cohorts": cohorts,
			"flagged": flagged,
			"at":      time.Now().UTC().Format(time.RFC3339),
		},
	}
	if c.streamMaxLen > 0 {
		args.MaxLen = c.streamMaxLen
		args.Approx = true
	}
	if err := c.client.XAdd(ctx, args).Err(); err != nil {
		c.logger.Warn("Failed to publish run event", zap.String("run_id", runID), zap.Error(err))
	}
}

// LatestRunID returns the cached latest run id, or empty when unset.
func (c *Client) LatestRunID(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, latestRunKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// ReadRunEvents blocks up to block for new entries on the run stream after
// lastID ("$" for only-new). Used by the websocket fan-out.
func (c *Client) ReadRunEvents(ctx context.Context, lastID string, block time.Duration) ([]redis.XMessage, string, error) {
	if lastID == "" {
		lastID = "$"
	}
	streams, err := c.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{RunStream, lastID},
		Count:   100,
		Block:   block,
	}).Result()
	if err == redis.Nil {
		return nil, lastID, nil
	}
	if err != nil {
		return nil, lastID, err
	}

	var msgs []redis.XMessage
	next := lastID
	for _, s := range streams {
		msgs = append(msgs, s.Messages...)
		if len(s.Messages) > 0 {
			next = s.Messages[len(s.Messages)-1].ID
		}
	}
	return msgs, next, nil
}

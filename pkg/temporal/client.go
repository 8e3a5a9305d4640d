package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/scoreline/powerrank/pkg/utils"
	"go.uber.org/zap"

	taskqueuepb "go.temporal.io/api/taskqueue/v1"
	workflowservicepb "go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

type Client struct {
	TClient   client.Client
	TSClient  client.ScheduleClient
	Namespace string

	// Task Queues
	RankingsQueue string // rankings - the batch engine worker queue

	// Schedule IDs
	RankingRunScheduleID string

	// Workflow IDs
	RankingRunWorkflowID string
}

type Health struct {
	ConnectionOK  bool                      `json:"connection_ok"`
	RankingsQueue []*taskqueuepb.PollerInfo `json:"rankings_queue"`
}

func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("TEMPORAL_HOSTPORT", "localhost:7233")
	ns := utils.Env("TEMPORAL_NAMESPACE", "powerrank")
	loggerWrapper := NewZapAdapter(logger)

	logger.Info("Connecting to Temporal", zap.String("host", host), zap.String("namespace", ns))
	tClient, err := Dial(ctx, host, ns, loggerWrapper)
	if err != nil {
		return nil, err
	}

	if _, err = tClient.CheckHealth(ctx, nil); err != nil {
		return nil, err
	}

	return &Client{
		TClient:              tClient,
		TSClient:             tClient.ScheduleClient(),
		Namespace:            ns,
		RankingsQueue:        "rankings",
		RankingRunScheduleID: "rankings:run",
		RankingRunWorkflowID: "rankings:run:%s",
	}, nil
}

// Dial connects to Temporal using the provided hostPort and namespace.
func Dial(ctx context.Context, hostPort, namespace string, logger log.Logger) (client.Client, error) {
	return client.DialContext(
		ctx,
		client.Options{
			HostPort:  hostPort,
			Namespace: namespace,
			Logger:    logger,
		},
	)
}

// GetRankingRunWorkflowID formats the workflow id for a ranking run. The
// schedule action uses it as the id stem; Temporal appends the fire time,
// so every window lands on its own workflow id.
func (c *Client) GetRankingRunWorkflowID(stem string) string {
	return fmt.Sprintf(c.RankingRunWorkflowID, stem)
}

// GetScheduleSpec returns a schedule spec for the given interval.
func (c *Client) GetScheduleSpec(interval time.Duration) client.ScheduleSpec {
	return client.ScheduleSpec{
		Intervals: []client.ScheduleIntervalSpec{{Every: interval}},
	}
}

// CheckHealth pings the server and describes the rankings task queue.
func (c *Client) CheckHealth(ctx context.Context) Health {
	h := Health{}
	if _, err := c.TClient.CheckHealth(ctx, nil); err != nil {
		return h
	}
	h.ConnectionOK = true

	resp, err := c.TClient.WorkflowService().DescribeTaskQueue(ctx, &workflowservicepb.DescribeTaskQueueRequest{
		Namespace: c.Namespace,
		TaskQueue: &taskqueuepb.TaskQueue{Name: c.RankingsQueue},
	})
	if err == nil {
		h.RankingsQueue = resp.GetPollers()
	}
	return h
}

// Close closes the underlying connection.
func (c *Client) Close() {
	if c.TClient != nil {
		c.TClient.Close()
	}
}

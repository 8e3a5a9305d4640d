package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/scoreline/powerrank/pkg/engine/activity"
)

// RankingRunWorkflowName is the registered name, for schedule actions that
// reference the workflow without holding a Context.
const RankingRunWorkflowName = "RankingRunWorkflow"

// RankingRunWorkflow runs one complete ranking pass. The run id is derived
// from the workflow clock, which is deterministic under replay, so a run
// that retries lands on the same snapshot rows instead of forking a second
// run.
func (c *Context) RankingRunWorkflow(ctx workflow.Context) error {
	asOf := workflow.Now(ctx).UTC()
	runID := asOf.Format("20060102T150405Z")

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
		TaskQueue: c.ActivityContext.TemporalClient.RankingsQueue,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	in := activity.RunInput{RunID: runID, AsOf: asOf}
	var summary activity.RunSummary
	return workflow.ExecuteActivity(ctx, (*activity.Context).RunRankings, in).Get(ctx, &summary)
}

package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetRankingRunWorkflowID(t *testing.T) {
	c := &Client{RankingRunWorkflowID: "rankings:run:%s"}

	require.Equal(t, "rankings:run:scheduled", c.GetRankingRunWorkflowID("scheduled"))
}

func TestGetScheduleSpec(t *testing.T) {
	c := &Client{}

	spec := c.GetScheduleSpec(24 * time.Hour)
	require.Len(t, spec.Intervals, 1)
	require.Equal(t, 24*time.Hour, spec.Intervals[0].Every)
}

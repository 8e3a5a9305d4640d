package rankings

import (
	"time"

	"github.com/scoreline/powerrank/pkg/db/models"
)

const HistoryTableName = "ranking_history"

// HistoryColumns defines the schema for point-in-time rank history.
// One row per team per run date, kept only to compute rank deltas over
// rolling windows. Ranks are nullable: a team absent from the ranked set in
// a given snapshot has a null baseline rather than an inferred rank.
var HistoryColumns = []models.ColumnDef{
	{Name: "snapshot_date", Type: "Date", Codec: "DoubleDelta, ZSTD(1)"},
	{Name: "team_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "age_group", Type: "LowCardinality(String)"},
	{Name: "gender", Type: "LowCardinality(String)"},
	{Name: "state", Type: "LowCardinality(String)"},
	{Name: "rank_in_cohort", Type: "Nullable(UInt32)"},
	{Name: "rank_in_state", Type: "Nullable(UInt32)"},
	{Name: "run_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "recorded_at", Type: "DateTime64(6)", Codec: "DoubleDelta, ZSTD(1)"},
}

// History is a persisted copy of one team's ranks at one snapshot date.
type History struct {
	SnapshotDate time.Time `ch:"snapshot_date" json:"snapshot_date"`
	TeamID       string    `ch:"team_id" json:"team_id"`
	AgeGroup     string    `ch:"age_group" json:"age_group"`
	Gender       string    `ch:"gender" json:"gender"`
	State        string    `ch:"state" json:"state"`
	RankInCohort *uint32   `ch:"rank_in_cohort" json:"rank_in_cohort"`
	RankInState  *uint32   `ch:"rank_in_state" json:"rank_in_state"`
	RunID        string    `ch:"run_id" json:"run_id"`
	RecordedAt   time.Time `ch:"recorded_at" json:"recorded_at"`
}

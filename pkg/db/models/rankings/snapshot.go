package rankings

import (
	"time"

	"github.com/scoreline/powerrank/pkg/db/models"
)

const SnapshotsTableName = "team_snapshots"

// Team status values surfaced to the presentation layer. Deprecated teams
// never get a snapshot row; their games count for the canonical survivor.
const (
	StatusActive         = "Active"
	StatusNotEnoughGames = "Not Enough Ranked Games"
)

// SnapshotColumns defines the schema for per-run team metric snapshots.
// One row per canonical team per ranking run. ReplacingMergeTree keyed by
// (run_id, team_id) with computed_at as the version column, so a retried run
// overwrites its own rows instead of duplicating them.
var SnapshotColumns = []models.ColumnDef{
	// Identity
	{Name: "run_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "team_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "team_name", Type: "String", Codec: "ZSTD(1)"},
	{Name: "age_group", Type: "LowCardinality(String)"},
	{Name: "gender", Type: "LowCardinality(String)"},
	{Name: "state", Type: "LowCardinality(String)"},
	{Name: "status", Type: "LowCardinality(String)"},

	// Record over the capped scoring window
	{Name: "games_played", Type: "UInt16"},
	// Uncapped totals, display only
	{Name: "total_games_played", Type: "UInt32"},
	{Name: "wins", Type: "UInt32"},
	{Name: "losses", Type: "UInt32"},
	{Name: "draws", Type: "UInt32"},
	{Name: "win_pct", Type: "Float64"},

	// Raw and shrunk rates
	{Name: "raw_off", Type: "Nullable(Float64)"},
	{Name: "raw_def", Type: "Nullable(Float64)"},
	{Name: "off_shrunk", Type: "Nullable(Float64)"},
	{Name: "def_shrunk", Type: "Nullable(Float64)"},
	{Name: "perf_delta", Type: "Nullable(Float64)"},

	// Strength of schedule
	{Name: "sos", Type: "Nullable(Float64)"},
	{Name: "sos_norm", Type: "Nullable(Float64)"},
	{Name: "sos_norm_state", Type: "Nullable(Float64)"},
	{Name: "sos_rank_national", Type: "Nullable(UInt32)"},
	{Name: "sos_rank_state", Type: "Nullable(UInt32)"},

	// Normalized performance and composed scores
	{Name: "off_norm", Type: "Nullable(Float64)"},
	{Name: "def_norm", Type: "Nullable(Float64)"},
	{Name: "power_presos", Type: "Nullable(Float64)"},
	{Name: "provisional_mult", Type: "Float64"},
	{Name: "powerscore_adj", Type: "Nullable(Float64)"},
	{Name: "anchor", Type: "Float64"},
	{Name: "abs_strength", Type: "Nullable(Float64)"},

	// ML residual layer
	{Name: "ml_overperf", Type: "Nullable(Float64)"},
	{Name: "ml_norm", Type: "Nullable(Float64)"},
	{Name: "powerscore_ml", Type: "Nullable(Float64)"},

	// Ranks; null for teams outside the ranked set
	{Name: "rank_in_cohort_final", Type: "Nullable(UInt32)"},
	{Name: "rank_in_state_final", Type: "Nullable(UInt32)"},
	{Name: "rank_change_7d", Type: "Nullable(Int32)"},
	{Name: "rank_change_30d", Type: "Nullable(Int32)"},
	{Name: "rank_change_7d_state", Type: "Nullable(Int32)"},
	{Name: "rank_change_30d_state", Type: "Nullable(Int32)"},

	// Run metadata
	{Name: "converged", Type: "UInt8"},
	{Name: "computed_at", Type: "DateTime64(6)", Codec: "DoubleDelta, ZSTD(1)"},
}

// Snapshot is the full metric row produced for one team by one ranking run.
// Superseded wholesale by the next run; never merged in place.
type Snapshot struct {
	RunID    string `ch:"run_id" json:"run_id"`
	TeamID   string `ch:"team_id" json:"team_id"`
	TeamName string `ch:"team_name" json:"team_name"`
	AgeGroup string `ch:"age_group" json:"age_group"`
	Gender   string `ch:"gender" json:"gender"`
	State    string `ch:"state" json:"state"`
	Status   string `ch:"status" json:"status"`

	GamesPlayed      uint16  `ch:"games_played" json:"games_played"`
	TotalGamesPlayed uint32  `ch:"total_games_played" json:"total_games_played"`
	Wins             uint32  `ch:"wins" json:"wins"`
	Losses           uint32  `ch:"losses" json:"losses"`
	Draws            uint32  `ch:"draws" json:"draws"`
	WinPct           float64 `ch:"win_pct" json:"win_pct"`

	RawOff    *float64 `ch:"raw_off" json:"raw_off"`
	RawDef    *float64 `ch:"raw_def" json:"raw_def"`
	OffShrunk *float64 `ch:"off_shrunk" json:"off_shrunk"`
	DefShrunk *float64 `ch:"def_shrunk" json:"def_shrunk"`
	PerfDelta *float64 `ch:"perf_delta" json:"perf_delta"`

	SOS             *float64 `ch:"sos" json:"sos"`
	SOSNorm         *float64 `ch:"sos_norm" json:"sos_norm"`
	SOSNormState    *float64 `ch:"sos_norm_state" json:"sos_norm_state"`
	SOSRankNational *uint32  `ch:"sos_rank_national" json:"sos_rank_national"`
	SOSRankState    *uint32  `ch:"sos_rank_state" json:"sos_rank_state"`

	OffNorm         *float64 `ch:"off_norm" json:"off_norm"`
	DefNorm         *float64 `ch:"def_norm" json:"def_norm"`
	PowerPreSOS     *float64 `ch:"power_presos" json:"power_presos"`
	ProvisionalMult float64  `ch:"provisional_mult" json:"provisional_mult"`
	PowerScoreAdj   *float64 `ch:"powerscore_adj" json:"powerscore_adj"`
	Anchor          float64  `ch:"anchor" json:"anchor"`
	AbsStrength     *float64 `ch:"abs_strength" json:"abs_strength"`

	MLOverperf   *float64 `ch:"ml_overperf" json:"ml_overperf"`
	MLNorm       *float64 `ch:"ml_norm" json:"ml_norm"`
	PowerScoreML *float64 `ch:"powerscore_ml" json:"powerscore_ml"`

	RankInCohortFinal  *uint32 `ch:"rank_in_cohort_final" json:"rank_in_cohort_final"`
	RankInStateFinal   *uint32 `ch:"rank_in_state_final" json:"rank_in_state_final"`
	RankChange7d       *int32  `ch:"rank_change_7d" json:"rank_change_7d"`
	RankChange30d      *int32  `ch:"rank_change_30d" json:"rank_change_30d"`
	RankChange7dState  *int32  `ch:"rank_change_7d_state" json:"rank_change_7d_state"`
	RankChange30dState *int32  `ch:"rank_change_30d_state" json:"rank_change_30d_state"`

	Converged  uint8     `ch:"converged" json:"converged"`
	ComputedAt time.Time `ch:"computed_at" json:"computed_at"`
}

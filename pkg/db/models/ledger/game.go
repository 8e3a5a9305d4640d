package ledger

import (
	"time"

	"github.com/scoreline/powerrank/pkg/db/models"
)

const GamesTableName = "games"

// GameColumns defines the schema for the append-only game ledger.
// Games are never updated or deleted: an approved correction is a new row
// with the same game_id and a higher revision, and readers resolve the
// current view with argMax(..., revision).
//
// Compression strategy:
// - ZSTD(1) for ids and enum-like strings (low cardinality)
// - DoubleDelta for dates (mostly monotonic inserts)
var GameColumns = []models.ColumnDef{
	{Name: "game_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "played_at", Type: "Date", Codec: "DoubleDelta, ZSTD(1)"},

	// Team references as recorded; may point at since-deprecated team ids.
	{Name: "home_team_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "away_team_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "home_score", Type: "Int16"},
	{Name: "away_score", Type: "Int16"},

	// Cohort the game was reported under.
	{Name: "age_group", Type: "LowCardinality(String)"},
	{Name: "gender", Type: "LowCardinality(String)"},

	// 0 for the original record, >0 for approved corrections.
	{Name: "revision", Type: "UInt16"},
	{Name: "recorded_at", Type: "DateTime64(6)", Codec: "DoubleDelta, ZSTD(1)"},
}

// Game is one row of the game ledger.
type Game struct {
	GameID     string    `ch:"game_id" json:"game_id"`
	PlayedAt   time.Time `ch:"played_at" json:"played_at"`
	HomeTeamID string    `ch:"home_team_id" json:"home_team_id"`
	AwayTeamID string    `ch:"away_team_id" json:"away_team_id"`
	HomeScore  int16     `ch:"home_score" json:"home_score"`
	AwayScore  int16     `ch:"away_score" json:"away_score"`
	AgeGroup   string    `ch:"age_group" json:"age_group"`
	Gender     string    `ch:"gender" json:"gender"`
	Revision   uint16    `ch:"revision" json:"revision"`
	RecordedAt time.Time `ch:"recorded_at" json:"recorded_at"`
}

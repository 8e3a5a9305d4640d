package engine

import "time"

// Cohort is the national ranking partition: age group crossed with gender.
// State cohorts are derived inside the pipeline by further splitting on the
// team's state.
type Cohort struct {
	AgeGroup string
	Gender   string
}

func (c Cohort) Key() string { return c.AgeGroup + "/" + c.Gender }

// Team is a canonical team as seen by the engine: identity resolution has
// already happened by the time one of these exists.
type Team struct {
	ID    string
	Name  string
	State string // empty when unknown; such teams get no state rank
}

// Game is a ledger record with both team references already resolved to
// canonical ids. Scores are as recorded; margin capping happens at the
// point of use, never by rewriting the record.
type Game struct {
	ID         string
	PlayedAt   time.Time
	HomeTeamID string
	AwayTeamID string
	HomeScore  int16
	AwayScore  int16
}

// teamGame is one game from a single team's perspective.
type teamGame struct {
	playedAt     time.Time
	opponentID   string
	goalsFor     int16
	goalsAgainst int16
	weight       float64 // recency weight at the run's as-of instant
}

// Aggregate is the per-team output of the metric aggregation stage. Rates
// are recency-weighted; totals are uncapped and display-only.
type Aggregate struct {
	Team Team

	// Capped, recency-bounded scoring window
	GamesPlayed int
	Window      []teamGame
	NEff        float64 // sum of recency weights across the window
	RawOff      float64 // weighted goals-for per game
	RawDef      float64 // weighted goals-against per game (weakness)
	PerfDelta   float64 // weighted capped margin per game

	// Uncapped career totals (display only; never feed the score)
	TotalGames int
	Wins       int
	Losses     int
	Draws      int

	// Filled by later stages
	OffShrunk float64
	DefShrunk float64
}

// WinPct returns the true uncapped win percentage.
func (a *Aggregate) WinPct() float64 {
	if a.TotalGames == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.TotalGames)
}

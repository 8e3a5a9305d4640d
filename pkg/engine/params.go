package engine

import (
	"time"

	"github.com/scoreline/powerrank/pkg/utils"
)

// Params carries every tunable constant of one ranking run. Cohort workers
// receive it by value; nothing here mutates mid-run.
type Params struct {
	// Metric aggregation
	WindowCap    int     // most recent N games feeding the score
	HalfLifeDays float64 // recency decay half-life, in days
	MarginCap    int16   // max credited goal differential per game

	// Shrinkage
	ShrinkageK float64 // ridge constant; larger = stronger pull to cohort mean

	// Opponent-quality re-weighting (second aggregation pass)
	OppQualityWeight float64 // strength sensitivity of the per-goal factor
	OppFactorMin     float64 // clamp on the factor; bounds one opponent's pull
	OppFactorMax     float64

	// SOS fixed point
	SOSWeight     float64 // weight of SOS feedback inside the iteration
	Damping       float64 // fraction of each update applied per iteration
	Tolerance     float64 // max per-team delta considered converged
	MaxIterations int     // iteration ceiling; bounds worst-case runtime

	// Power score composition
	OffWeight     float64
	DefWeight     float64
	SOSNormWeight float64

	// Cross-cohort anchoring
	ReferenceGoalRate float64 // goals per team per game on the global scale
	AnchorMin         float64
	AnchorMax         float64
	AbsStrengthCap    float64

	// ML residual layer
	MarginScale float64 // max expected goal margin
	MarginSlope float64 // steepness of the strength-difference link
	MLMinGames  int     // suppress the adjustment below this sample size
	Alpha       float64 // contribution of ml_norm to the final score

	// Provisional multiplier boundaries
	ProvisionalMidGames  int // below this: 0.85
	ProvisionalFullGames int // below this: 0.95, at or above: 1.0

	// Rank history
	HistoryTolerance time.Duration // snapshot match window for rank deltas
}

// DefaultParams returns the production constants, each overridable by env.
func DefaultParams() Params {
	return Params{
		WindowCap:    utils.EnvInt("ENGINE_WINDOW_CAP", 30),
		HalfLifeDays: utils.EnvFloat("ENGINE_HALF_LIFE_DAYS", 120),
		MarginCap:    int16(utils.EnvInt("ENGINE_MARGIN_CAP", 6)),

		ShrinkageK: utils.EnvFloat("ENGINE_SHRINKAGE_K", 6),

		OppQualityWeight: utils.EnvFloat("ENGINE_OPP_QUALITY_WEIGHT", 0.25),
		OppFactorMin:     0.5,
		OppFactorMax:     1.5,

		SOSWeight:     utils.EnvFloat("ENGINE_SOS_WEIGHT", 0.25),
		Damping:       utils.EnvFloat("ENGINE_SOS_DAMPING", 0.5),
		Tolerance:     utils.EnvFloat("ENGINE_SOS_TOLERANCE", 1e-6),
		MaxIterations: utils.EnvInt("ENGINE_SOS_MAX_ITERATIONS", 100),

		OffWeight:     0.40,
		DefWeight:     0.40,
		SOSNormWeight: 0.20,

		ReferenceGoalRate: utils.EnvFloat("ENGINE_REFERENCE_GOAL_RATE", 3.2),
		AnchorMin:         0.6,
		AnchorMax:         1.4,
		AbsStrengthCap:    1.5,

		MarginScale: utils.EnvFloat("ENGINE_MARGIN_SCALE", 6),
		MarginSlope: utils.EnvFloat("ENGINE_MARGIN_SLOPE", 1.5),
		MLMinGames:  utils.EnvInt("ENGINE_ML_MIN_GAMES", 6),
		Alpha:       utils.EnvFloat("ENGINE_ML_ALPHA", 0.04),

		ProvisionalMidGames:  5,
		ProvisionalFullGames: 15,

		HistoryTolerance: 72 * time.Hour,
	}
}

package engine

import "math"

// ProvisionalMult returns the small-sample discount for a team's scoring
// window. Monotonically non-decreasing in games played and always one of
// {0.85, 0.95, 1.0}: a deliberate, discrete policy so newly tracked teams
// cannot out-rank established ones on a hot streak.
func ProvisionalMult(gamesPlayed int, p Params) float64 {
	switch {
	case gamesPlayed < p.ProvisionalMidGames:
		return 0.85
	case gamesPlayed < p.ProvisionalFullGames:
		return 0.95
	default:
		return 1.0
	}
}

// ComposeCore combines cohort-normalized offense, defense and SOS into the
// pre-anchor core score. SOS carries a deliberately smaller weight than own
// performance: schedule strength informs the score but must not dominate
// actual results.
func ComposeCore(offNorm, defNorm, sosNorm float64, p Params) float64 {
	return p.OffWeight*offNorm + p.DefWeight*defNorm + p.SOSNormWeight*sosNorm
}

// Anchor computes a cohort's rescaling factor onto the shared global scale
// from its scoring rate: cohorts that score like the reference anchor at
// 1.0, clipped so no cohort's outliers distort the global ordering.
func Anchor(cohortGoalRate float64, p Params) float64 {
	if cohortGoalRate <= 0 {
		return 1.0
	}
	a := p.ReferenceGoalRate / cohortGoalRate
	return clamp(a, p.AnchorMin, p.AnchorMax)
}

// AbsStrength maps an anchored score onto the bounded cross-cohort scale.
func AbsStrength(powerAdj, anchor float64, p Params) float64 {
	return clamp(powerAdj*anchor, 0, p.AbsStrengthCap)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package engine

import "math"

// ExpectedMargin predicts the goal margin of home over away from their
// pre-adjustment strengths: a bounded monotone link so even large strength
// gaps predict finite margins.
func ExpectedMargin(homeStrength, awayStrength float64, p Params) float64 {
	return p.MarginScale * math.Tanh(p.MarginSlope*(homeStrength-awayStrength))
}

// Overperformance aggregates, per team, the recency-weighted gap between
// actual (capped) and expected margins across its scoring window. Teams
// below MLMinGames get no value: with tiny samples the residual is noise,
// not signal.
//
// strengths must hold the pre-adjustment strength of every scored team.
func Overperformance(aggs map[string]*Aggregate, strengths map[string]float64, p Params) map[string]float64 {
	out := make(map[string]float64)

	for id, a := range aggs {
		if a.GamesPlayed < p.MLMinGames {
			continue
		}
		own, ok := strengths[id]
		if !ok {
			continue
		}

		var wSum, resSum float64
		for _, tg := range a.Window {
			opp, ok := strengths[tg.opponentID]
			if !ok {
				continue
			}
			actual := float64(CapMargin(tg.goalsFor-tg.goalsAgainst, p.MarginCap))
			expected := ExpectedMargin(own, opp, p)
			resSum += tg.weight * (actual - expected)
			wSum += tg.weight
		}
		if wSum > 0 {
			out[id] = resSum / wSum
		}
	}

	return out
}

// NormalizeOverperformance maps per-team overperformance onto [-0.5, +0.5]
// within the cohort, centered so the median team adjusts by zero.
func NormalizeOverperformance(overperf map[string]float64) map[string]float64 {
	pct := percentileOf(overperf)
	out := make(map[string]float64, len(pct))
	for id, p := range pct {
		out[id] = p - 0.5
	}
	return out
}

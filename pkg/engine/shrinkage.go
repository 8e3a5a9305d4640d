package engine

// Shrink regresses a raw per-team rate toward the cohort mean. The pull is
// inversely proportional to the effective sample size: with no games the
// estimate is the cohort mean, with many games it converges on the raw rate.
// K is the ridge constant controlling the floor.
//
// Pure function of its arguments; no cross-team iteration happens here.
func Shrink(raw, nEff, cohortMean, k float64) float64 {
	if nEff <= 0 {
		return cohortMean
	}
	return (nEff*raw + k*cohortMean) / (nEff + k)
}

// cohortRateMeans returns the weighted cohort means of raw offense and raw
// defensive weakness over teams with at least one game.
func cohortRateMeans(aggs map[string]*Aggregate) (offMean, defMean float64) {
	var offSum, defSum, wSum float64
	for _, a := range aggs {
		if a.GamesPlayed == 0 {
			continue
		}
		offSum += a.RawOff * a.NEff
		defSum += a.RawDef * a.NEff
		wSum += a.NEff
	}
	if wSum == 0 {
		return 0, 0
	}
	return offSum / wSum, defSum / wSum
}

// ApplyShrinkage fills OffShrunk/DefShrunk on every aggregate with games.
func ApplyShrinkage(aggs map[string]*Aggregate, p Params) {
	offMean, defMean := cohortRateMeans(aggs)
	for _, a := range aggs {
		if a.GamesPlayed == 0 {
			continue
		}
		a.OffShrunk = Shrink(a.RawOff, a.NEff, offMean, p.ShrinkageK)
		a.DefShrunk = Shrink(a.RawDef, a.NEff, defMean, p.ShrinkageK)
	}
}

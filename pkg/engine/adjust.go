package engine

import "sort"

// oppFactor converts an opponent's settled strength into a multiplicative
// weight for goals in a game against them. Strength sits on the z-difference
// scale of the fixed point, so the factor is clamped: one extreme opponent
// cannot swing a whole rate.
func oppFactor(strength float64, p Params) float64 {
	return clamp(1+p.OppQualityWeight*strength, p.OppFactorMin, p.OppFactorMax)
}

// OpponentAdjustedRates is the second aggregation pass: the raw rates seed
// the fixed point, then the refined strengths come back here to re-weight
// each game's goals by the quality of the opponent they came against. Goals
// scored on a strong opponent count for more; goals conceded to a weak
// opponent count against more. Without this pass, rates inflated against
// weak opposition dominate the composition no matter what the SOS term says.
//
// The adjusted rates are shrunk toward their cohort means exactly like the
// raw rates, so thin samples cannot ride one opponent-quality outlier.
// Teams are processed in sorted-id order; runs over identical inputs are
// bit-for-bit identical.
func OpponentAdjustedRates(aggs map[string]*Aggregate, strengths map[string]float64, p Params) (off, defWeak map[string]float64) {
	ids := make([]string, 0, len(aggs))
	for id, a := range aggs {
		if a.GamesPlayed > 0 && a.NEff > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	off = make(map[string]float64, len(ids))
	defWeak = make(map[string]float64, len(ids))
	var offMeanSum, defMeanSum, wSum float64

	for _, id := range ids {
		a := aggs[id]
		var offSum, defSum float64
		for _, tg := range a.Window {
			s := strengths[tg.opponentID]
			offSum += tg.weight * float64(tg.goalsFor) * oppFactor(s, p)
			defSum += tg.weight * float64(tg.goalsAgainst) * oppFactor(-s, p)
		}
		off[id] = offSum / a.NEff
		defWeak[id] = defSum / a.NEff

		offMeanSum += offSum
		defMeanSum += defSum
		wSum += a.NEff
	}
	if wSum == 0 {
		return off, defWeak
	}

	offMean := offMeanSum / wSum
	defMean := defMeanSum / wSum
	for _, id := range ids {
		nEff := aggs[id].NEff
		off[id] = Shrink(off[id], nEff, offMean, p.ShrinkageK)
		defWeak[id] = Shrink(defWeak[id], nEff, defMean, p.ShrinkageK)
	}
	return off, defWeak
}

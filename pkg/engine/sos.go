package engine

import (
	"math"
	"sort"
)

// StrengthEstimator separates "compute one iteration" from "decide
// convergence" so each half can be unit tested on its own.
type StrengthEstimator interface {
	// Iterate performs one refinement pass over every team and returns the
	// maximum absolute per-team strength change it produced.
	Iterate() float64
	// Converged reports whether the given iteration delta settles the
	// fixed point.
	Converged(maxDelta float64) bool
}

// SOSOutput is the per-team result of the fixed-point refinement.
type SOSOutput struct {
	SOS        map[string]float64 // raw schedule strength
	Strength   map[string]float64 // refined working strength (base + SOS feedback)
	Base       map[string]float64 // pre-SOS strength from shrunk off/def alone
	Iterations int
	Converged  bool
}

type sosEdge struct {
	opp    int
	weight float64
}

// fixedPointSOS iterates a cohort's strength estimates over dense arrays.
// Teams are indexed in sorted-id order so runs are deterministic for
// identical inputs.
type fixedPointSOS struct {
	p        Params
	ids      []string
	base     []float64
	strength []float64
	sos      []float64
	edges    [][]sosEdge
}

// NewStrengthEstimator builds the iteration state for one cohort from its
// aggregates. Zero-game teams are excluded; opponents outside the cohort's
// team set are skipped. Blowout margins are capped before they contribute
// to edge weights, so score-running buys no schedule credit.
func NewStrengthEstimator(aggs map[string]*Aggregate, p Params) *fixedPointSOS {
	ids := make([]string, 0, len(aggs))
	for id, a := range aggs {
		if a.GamesPlayed > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	// Base strength from shrunk rates alone: offense up, weakness down.
	offs := make(map[string]float64, len(ids))
	defs := make(map[string]float64, len(ids))
	for _, id := range ids {
		offs[id] = aggs[id].OffShrunk
		defs[id] = aggs[id].DefShrunk
	}
	offZ := zscoreOf(offs)
	defZ := zscoreOf(defs)

	fp := &fixedPointSOS{
		p:        p,
		ids:      ids,
		base:     make([]float64, len(ids)),
		strength: make([]float64, len(ids)),
		sos:      make([]float64, len(ids)),
		edges:    make([][]sosEdge, len(ids)),
	}
	for i, id := range ids {
		fp.base[i] = offZ[id] - defZ[id]
		fp.strength[i] = fp.base[i]

		for _, tg := range aggs[id].Window {
			oppIdx, ok := index[tg.opponentID]
			if !ok {
				continue
			}
			capped := CapMargin(tg.goalsFor-tg.goalsAgainst, p.MarginCap)
			quality := 1 + 0.5*math.Abs(float64(capped))/float64(p.MarginCap)
			fp.edges[i] = append(fp.edges[i], sosEdge{
				opp:    oppIdx,
				weight: tg.weight * quality,
			})
		}
	}

	return fp
}

// Iterate recomputes every team's SOS from current opponent strengths and
// moves each working strength a damped step toward base + SOSWeight * SOS.
func (fp *fixedPointSOS) Iterate() float64 {
	next := make([]float64, len(fp.strength))
	var maxDelta float64

	for i := range fp.ids {
		var wSum, sSum float64
		for _, e := range fp.edges[i] {
			wSum += e.weight
			sSum += e.weight * fp.strength[e.opp]
		}
		if wSum > 0 {
			fp.sos[i] = sSum / wSum
		} else {
			fp.sos[i] = 0
		}

		target := fp.base[i] + fp.p.SOSWeight*fp.sos[i]
		next[i] = fp.strength[i] + fp.p.Damping*(target-fp.strength[i])

		if d := math.Abs(next[i] - fp.strength[i]); d > maxDelta {
			maxDelta = d
		}
	}

	copy(fp.strength, next)
	return maxDelta
}

// Converged reports whether maxDelta is within tolerance.
func (fp *fixedPointSOS) Converged(maxDelta float64) bool {
	return maxDelta < fp.p.Tolerance
}

// Run drives the estimator to its fixed point or the iteration ceiling,
// whichever comes first. Non-convergence is not an error: the last
// iteration's values are still the best available estimate, and the caller
// flags the cohort instead of failing the run.
func (fp *fixedPointSOS) Run() SOSOutput {
	out := SOSOutput{
		SOS:      make(map[string]float64, len(fp.ids)),
		Strength: make(map[string]float64, len(fp.ids)),
		Base:     make(map[string]float64, len(fp.ids)),
	}

	for out.Iterations < fp.p.MaxIterations {
		delta := fp.Iterate()
		out.Iterations++
		if fp.Converged(delta) {
			out.Converged = true
			break
		}
	}

	for i, id := range fp.ids {
		out.SOS[id] = fp.sos[i]
		out.Strength[id] = fp.strength[i]
		out.Base[id] = fp.base[i]
	}
	return out
}

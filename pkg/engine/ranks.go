package engine

import (
	"math"
	"time"

	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
)

// RankBaselines holds, per team id, the prior rank closest to each rolling
// window's target date. A team absent from a map has no baseline and gets a
// null delta rather than an inferred one.
type RankBaselines struct {
	Cohort7  map[string]uint32
	Cohort30 map[string]uint32
	State7   map[string]uint32
	State30  map[string]uint32
}

// BaselinesFromHistory reduces raw history rows to the closest row per team
// around the target date, honoring the match tolerance. Rows with null ranks
// contribute no baseline.
func BaselinesFromHistory(rows []*rankmodels.History, target time.Time, tolerance time.Duration) (cohort, state map[string]uint32) {
	cohort = make(map[string]uint32)
	state = make(map[string]uint32)
	best := make(map[string]time.Duration)

	for _, h := range rows {
		dist := h.SnapshotDate.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if dist > tolerance {
			continue
		}
		if prev, seen := best[h.TeamID]; seen && prev <= dist {
			continue
		}
		best[h.TeamID] = dist

		delete(cohort, h.TeamID)
		delete(state, h.TeamID)
		if h.RankInCohort != nil {
			cohort[h.TeamID] = *h.RankInCohort
		}
		if h.RankInState != nil {
			state[h.TeamID] = *h.RankInState
		}
	}
	return cohort, state
}

// rankDelta returns old − new: positive means the team climbed.
func rankDelta(baseline map[string]uint32, teamID string, current uint32) *int32 {
	old, ok := baseline[teamID]
	if !ok {
		return nil
	}
	d := int32(old) - int32(current)
	return &d
}

// stateRanks assigns dense per-state ranks from per-team scores, skipping
// teams without a state.
func stateRanks(scores map[string]float64, states map[string]string) map[string]uint32 {
	byState := make(map[string]map[string]float64)
	for id, s := range scores {
		st := states[id]
		if st == "" {
			continue
		}
		if byState[st] == nil {
			byState[st] = make(map[string]float64)
		}
		byState[st][id] = s
	}

	out := make(map[string]uint32)
	for _, group := range byState {
		for id, r := range ranksOf(group) {
			out[id] = r
		}
	}
	return out
}

// statePercentiles computes per-state percentiles of a per-team metric,
// again skipping stateless teams.
func statePercentiles(values map[string]float64, states map[string]string) map[string]float64 {
	byState := make(map[string]map[string]float64)
	for id, v := range values {
		st := states[id]
		if st == "" {
			continue
		}
		if byState[st] == nil {
			byState[st] = make(map[string]float64)
		}
		byState[st][id] = v
	}

	out := make(map[string]float64)
	for _, group := range byState {
		for id, p := range percentileOf(group) {
			out[id] = p
		}
	}
	return out
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

package engine

import (
	"math"
	"sort"
	"time"
)

// RecencyWeight returns the decay weight of a game played at playedAt as of
// asOf: 0.5^(age_days/half_life). Future-dated games clamp to weight 1.
func RecencyWeight(playedAt, asOf time.Time, halfLifeDays float64) float64 {
	ageDays := asOf.Sub(playedAt).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	return math.Pow(0.5, ageDays/halfLifeDays)
}

// CapMargin clamps a goal margin to ±cap. Idempotent: capping an already
// capped margin changes nothing, so SOS contributions are identical for any
// actual margin at or beyond the cap.
func CapMargin(margin, cap int16) int16 {
	if margin > cap {
		return cap
	}
	if margin < -cap {
		return -cap
	}
	return margin
}

// AggregateGames computes per-team raw metrics for one cohort. Teams with
// zero valid games still appear in the result with GamesPlayed == 0 so later
// stages can emit their "Not Enough Ranked Games" snapshot row.
func AggregateGames(teams []Team, games []Game, p Params, asOf time.Time) map[string]*Aggregate {
	out := make(map[string]*Aggregate, len(teams))
	for _, t := range teams {
		out[t.ID] = &Aggregate{Team: t}
	}

	// Split each game into the two team perspectives.
	perTeam := make(map[string][]teamGame, len(teams))
	for _, g := range games {
		if !validScores(g) {
			continue
		}
		w := RecencyWeight(g.PlayedAt, asOf, p.HalfLifeDays)
		if _, ok := out[g.HomeTeamID]; ok {
			perTeam[g.HomeTeamID] = append(perTeam[g.HomeTeamID], teamGame{
				playedAt: g.PlayedAt, opponentID: g.AwayTeamID,
				goalsFor: g.HomeScore, goalsAgainst: g.AwayScore, weight: w,
			})
		}
		if _, ok := out[g.AwayTeamID]; ok {
			perTeam[g.AwayTeamID] = append(perTeam[g.AwayTeamID], teamGame{
				playedAt: g.PlayedAt, opponentID: g.HomeTeamID,
				goalsFor: g.AwayScore, goalsAgainst: g.HomeScore, weight: w,
			})
		}
	}

	for id, agg := range out {
		tgs := perTeam[id]
		// Uncapped totals first: the true record, display only.
		agg.TotalGames = len(tgs)
		for _, tg := range tgs {
			switch {
			case tg.goalsFor > tg.goalsAgainst:
				agg.Wins++
			case tg.goalsFor < tg.goalsAgainst:
				agg.Losses++
			default:
				agg.Draws++
			}
		}

		// Most recent WindowCap games feed the score.
		sort.Slice(tgs, func(i, j int) bool {
			if !tgs[i].playedAt.Equal(tgs[j].playedAt) {
				return tgs[i].playedAt.After(tgs[j].playedAt)
			}
			return tgs[i].opponentID < tgs[j].opponentID
		})
		if len(tgs) > p.WindowCap {
			tgs = tgs[:p.WindowCap]
		}
		agg.Window = tgs
		agg.GamesPlayed = len(tgs)

		var wSum, gfSum, gaSum, marginSum float64
		for _, tg := range tgs {
			wSum += tg.weight
			gfSum += tg.weight * float64(tg.goalsFor)
			gaSum += tg.weight * float64(tg.goalsAgainst)
			marginSum += tg.weight * float64(CapMargin(tg.goalsFor-tg.goalsAgainst, p.MarginCap))
		}
		agg.NEff = wSum
		if wSum > 0 {
			agg.RawOff = gfSum / wSum
			agg.RawDef = gaSum / wSum
			agg.PerfDelta = marginSum / wSum
		}
	}

	return out
}

// validScores rejects games with impossible scorelines. Malformed records
// are quarantined upstream; this is a cheap second fence.
func validScores(g Game) bool {
	return g.HomeScore >= 0 && g.AwayScore >= 0
}

// CohortGoalRate returns the cohort's mean goals per team per game over the
// scoring windows, used by the anchor normalizer.
func CohortGoalRate(aggs map[string]*Aggregate) float64 {
	var gfSum, wSum float64
	for _, a := range aggs {
		if a.GamesPlayed == 0 {
			continue
		}
		gfSum += a.RawOff * a.NEff
		wSum += a.NEff
	}
	if wSum == 0 {
		return 0
	}
	return gfSum / wSum
}

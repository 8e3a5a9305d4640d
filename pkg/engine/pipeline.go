package engine

import (
	"time"

	rankmodels "github.com/scoreline/powerrank/pkg/db/models/rankings"
)

// CohortInput is everything one cohort's computation consumes. Identity
// resolution has already happened: Teams are canonical and Games reference
// canonical ids, so a team's rating reflects every game attributed to any
// of its merged predecessors.
type CohortInput struct {
	Cohort Cohort
	Teams  []Team
	Games  []Game
}

// CohortResult is one cohort's snapshot rows plus run bookkeeping.
type CohortResult struct {
	Snapshots  []*rankmodels.Snapshot
	Converged  bool
	Iterations int
}

// ComputeCohort runs the staged pipeline for one cohort: aggregation →
// shrinkage → SOS fixed point → opponent-adjusted re-aggregation →
// normalization → composition → anchoring → ML residual → ranks. Pure
// except for the clock injected via now; cohorts sharing nothing makes the
// caller free to run them in parallel.
func ComputeCohort(in CohortInput, base RankBaselines, p Params, runID string, now time.Time) CohortResult {
	aggs := AggregateGames(in.Teams, in.Games, p, now)
	ApplyShrinkage(aggs, p)

	sosOut := NewStrengthEstimator(aggs, p).Run()

	// Second aggregation pass: the fixed point has settled every opponent's
	// strength, so re-weight each team's rates by opponent quality before
	// anything is ranked on them.
	offs, defs := OpponentAdjustedRates(aggs, sosOut.Strength, p)

	states := make(map[string]string, len(aggs))
	for id, a := range aggs {
		states[id] = a.Team.State
	}
	offPct := percentileOf(offs)
	defWeakPct := percentileOf(defs)
	sosPct := percentileOf(sosOut.SOS)
	sosStatePct := statePercentiles(sosOut.SOS, states)
	sosRanksNat := ranksOf(sosOut.SOS)
	sosRanksState := stateRanks(sosOut.SOS, states)

	cohortAnchor := Anchor(CohortGoalRate(aggs), p)

	// Compose scores for every scored team.
	powerAdj := make(map[string]float64, len(offs))
	for id := range offs {
		offNorm := offPct[id]
		defNorm := 1 - defWeakPct[id] // conceding less is better
		core := ComposeCore(offNorm, defNorm, sosPct[id], p)
		powerAdj[id] = core * ProvisionalMult(aggs[id].GamesPlayed, p)
	}

	// Residual layer over pre-adjustment scores.
	overperf := Overperformance(aggs, powerAdj, p)
	mlNorm := NormalizeOverperformance(overperf)

	powerML := make(map[string]float64, len(powerAdj))
	for id, adj := range powerAdj {
		score := adj
		if nudge, ok := mlNorm[id]; ok {
			score += p.Alpha * nudge
		}
		powerML[id] = score
	}

	cohortRanks := ranksOf(powerML)
	stateRanksFinal := stateRanks(powerML, states)

	result := CohortResult{
		Converged:  sosOut.Converged,
		Iterations: sosOut.Iterations,
	}

	converged := uint8(0)
	if sosOut.Converged {
		converged = 1
	}

	for _, t := range in.Teams {
		a := aggs[t.ID]
		s := &rankmodels.Snapshot{
			RunID:    runID,
			TeamID:   t.ID,
			TeamName: t.Name,
			AgeGroup: in.Cohort.AgeGroup,
			Gender:   in.Cohort.Gender,
			State:    t.State,

			GamesPlayed:      uint16(a.GamesPlayed),
			TotalGamesPlayed: uint32(a.TotalGames),
			Wins:             uint32(a.Wins),
			Losses:           uint32(a.Losses),
			Draws:            uint32(a.Draws),
			WinPct:           roundTo(a.WinPct(), 4),

			ProvisionalMult: ProvisionalMult(a.GamesPlayed, p),
			Anchor:          cohortAnchor,
			Converged:       converged,
			ComputedAt:      now,
		}

		if a.GamesPlayed == 0 {
			s.Status = rankmodels.StatusNotEnoughGames
			result.Snapshots = append(result.Snapshots, s)
			continue
		}

		s.Status = rankmodels.StatusActive
		s.RawOff = f64p(a.RawOff)
		s.RawDef = f64p(a.RawDef)
		s.OffShrunk = f64p(a.OffShrunk)
		s.DefShrunk = f64p(a.DefShrunk)
		s.PerfDelta = f64p(a.PerfDelta)

		s.SOS = f64p(sosOut.SOS[t.ID])
		s.SOSNorm = f64p(sosPct[t.ID])
		if v, ok := sosStatePct[t.ID]; ok {
			s.SOSNormState = f64p(v)
		}
		s.SOSRankNational = u32p(sosRanksNat[t.ID])
		if r, ok := sosRanksState[t.ID]; ok {
			s.SOSRankState = u32p(r)
		}

		s.OffNorm = f64p(offPct[t.ID])
		s.DefNorm = f64p(1 - defWeakPct[t.ID])
		s.PowerPreSOS = f64p(ComposeCore(offPct[t.ID], 1-defWeakPct[t.ID], sosPct[t.ID], p))
		s.PowerScoreAdj = f64p(powerAdj[t.ID])
		s.AbsStrength = f64p(AbsStrength(powerAdj[t.ID], cohortAnchor, p))

		if v, ok := overperf[t.ID]; ok {
			s.MLOverperf = f64p(v)
			s.MLNorm = f64p(mlNorm[t.ID])
		}
		s.PowerScoreML = f64p(powerML[t.ID])

		rank := cohortRanks[t.ID]
		s.RankInCohortFinal = u32p(rank)
		s.RankChange7d = rankDelta(base.Cohort7, t.ID, rank)
		s.RankChange30d = rankDelta(base.Cohort30, t.ID, rank)

		if sr, ok := stateRanksFinal[t.ID]; ok {
			s.RankInStateFinal = u32p(sr)
			s.RankChange7dState = rankDelta(base.State7, t.ID, sr)
			s.RankChange30dState = rankDelta(base.State30, t.ID, sr)
		}

		result.Snapshots = append(result.Snapshots, s)
	}

	return result
}

// HistoryRows derives the run's rank-history rows from its snapshots.
func HistoryRows(snapshots []*rankmodels.Snapshot, runID string, now time.Time) []*rankmodels.History {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rows := make([]*rankmodels.History, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, &rankmodels.History{
			SnapshotDate: day,
			TeamID:       s.TeamID,
			AgeGroup:     s.AgeGroup,
			Gender:       s.Gender,
			State:        s.State,
			RankInCohort: s.RankInCohortFinal,
			RankInState:  s.RankInStateFinal,
			RunID:        runID,
			RecordedAt:   now,
		})
	}
	return rows
}

func f64p(v float64) *float64 { return &v }
func u32p(v uint32) *uint32   { return &v }

package optimizer

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/limaJavier/timetabling/pkg/evaluator"
	"github.com/limaJavier/timetabling/pkg/timetable"
)

func (optimizer *optimizerStandard) Repair(ctx context.Context, state *timetable.State) (RepairResult, error) {
	started := time.Now()
	cfg := optimizer.cfg
	predicates := state.Evaluator()
	sessions := len(state.Instance().Sessions)

	result := RepairResult{Sigma: cfg.InitialSigma}
	finish := func(cost evaluator.HardCost) RepairResult {
		result.Cost, result.Teacher, result.Classroom, result.Group = cost.Total, cost.Teacher, cost.Classroom, cost.Group
		result.Elapsed = time.Since(started)
		optimizer.logger.Info().
			Bool("feasible", result.Feasible).
			Int("runs", result.Runs).
			Int("iterations", result.Iterations).
			Int("cost", result.Cost).
			Float64("sigma", result.Sigma).
			Dur("elapsed", result.Elapsed).
			Msg("repair finished")
		return result
	}

	cost := evaluator.HardConstraintsCost(state, predicates)
	for run := range cfg.Runs {
		result.Runs = run + 1
		optimizer.logger.Debug().Int("run", run+1).Float64("sigma", result.Sigma).Int("cost", cost.Total).Msg("repair run started")

		iterations, stagnation, successes := 0, 0, 0
		for stagnation < cfg.MaxStagnation {
			if err := ctx.Err(); err != nil {
				return finish(cost), err
			}

			// Check whether the timetable is already feasible
			if cost.Total == 0 && evaluator.HardViolations(state, predicates) == 0 {
				result.Feasible = true
				return finish(cost), nil
			}

			// Relocate the most expensive sessions, each with probability sigma
			for _, session := range rank(cost, sessions)[:min(sessions, batchSize(sessions, cfg.RepairFraction))] {
				if optimizer.rng.Float64() < result.Sigma && cost.PerSession[session] != 0 {
					state.Relocate(session)
				}
			}

			next := evaluator.HardConstraintsCost(state, predicates)
			improved := next.Total < cost.Total
			if improved {
				stagnation = 0
				successes++
			} else {
				stagnation++
			}
			cost = next
			iterations++
			result.Iterations++

			// Step-size control
			window := cfg.AdaptationWindow
			if iterations >= 10*window && iterations%window == 0 {
				if successes < 2*window {
					result.Sigma *= cfg.SigmaFactor
				} else {
					result.Sigma /= cfg.SigmaFactor
				}
				successes = 0
				optimizer.observer.SigmaAdapted(result.Sigma)
			}
			optimizer.observer.RepairIteration(cost.Total, result.Sigma, improved)
		}

		optimizer.logger.Debug().Int("run", run+1).Int("iterations", iterations).Int("cost", cost.Total).Msg("repair run stagnated")
	}

	result.Feasible = evaluator.Feasible(state, predicates)
	return finish(cost), nil
}

// rank orders every session by its hard-constraint cost, most expensive first and ties by id
func rank(cost evaluator.HardCost, sessions int) []uint64 {
	ranking := make([]uint64, sessions)
	for session := range ranking {
		ranking[session] = uint64(session)
	}
	slices.SortStableFunc(ranking, func(a, b uint64) int {
		return cmp.Compare(cost.PerSession[b], cost.PerSession[a])
	})
	return ranking
}

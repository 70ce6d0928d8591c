package optimizer

import (
	"context"
	"math"
	"time"

	"github.com/limaJavier/timetabling/pkg/evaluator"
	"github.com/limaJavier/timetabling/pkg/timetable"
)

func (optimizer *optimizerStandard) Anneal(ctx context.Context, state *timetable.State) (AnnealResult, error) {
	started := time.Now()
	cfg := optimizer.cfg
	sessions := len(state.Instance().Sessions)

	cost := SoftCost(state, cfg.Weights)
	result := AnnealResult{InitialCost: cost, Temperature: cfg.InitialTemperature}
	finish := func() AnnealResult {
		result.Cost = cost
		result.Elapsed = time.Since(started)
		optimizer.logger.Info().
			Int("iterations", result.Iterations).
			Int("accepted", result.Accepted).
			Float64("initial_cost", result.InitialCost).
			Float64("cost", result.Cost).
			Dur("elapsed", result.Elapsed).
			Msg("annealing finished")
		return result
	}

	if sessions == 0 {
		return finish(), nil
	}

	for iteration := range cfg.AnnealIterations {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}
		threshold := optimizer.rng.Float64()
		result.Temperature *= cfg.CoolingRate

		// Relocate a batch of sessions drawn with replacement
		state.Begin()
		for range batchSize(sessions, cfg.AnnealFraction) {
			state.Relocate(uint64(optimizer.rng.IntN(sessions)))
		}

		next := SoftCost(state, cfg.Weights)
		accepted := next < cost || threshold <= math.Exp((cost-next)/result.Temperature)
		if accepted {
			state.Commit()
			cost = next
			result.Accepted++
		} else {
			state.Rollback()
			result.Rejected++
		}
		result.Iterations++
		optimizer.observer.AnnealIteration(cost, result.Temperature, accepted)

		if iteration%cfg.ProgressInterval == 0 {
			optimizer.logger.Debug().Int("iteration", iteration).Float64("cost", cost).Float64("temperature", result.Temperature).Msg("annealing progress")
		}
	}

	return finish(), nil
}

// SoftCost weighs the idle hours of groups and teachers and penalizes a week without a free hour
func SoftCost(state *timetable.State, weights Weights) float64 {
	cost := weights.GroupIdle * float64(evaluator.IdleTimeCost(state.GroupTimeslots(), state.HoursPerDay()).Total)
	if weights.TeacherIdle != 0 {
		cost += weights.TeacherIdle * float64(evaluator.IdleTimeCost(state.TeacherTimeslots(), state.HoursPerDay()).Total)
	}
	if _, ok := evaluator.FreeHour(state); !ok {
		cost += weights.NoFreeHour
	}
	return cost
}

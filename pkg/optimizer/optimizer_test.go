package optimizer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/limaJavier/timetabling/pkg/evaluator"
	"github.com/limaJavier/timetabling/pkg/model"
	"github.com/limaJavier/timetabling/pkg/timetable"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	repairCosts []int
	adaptations []float64
	annealCosts []float64
	accepted    int
}

func (observer *recordingObserver) RepairIteration(cost int, _ float64, _ bool) {
	observer.repairCosts = append(observer.repairCosts, cost)
}

func (observer *recordingObserver) SigmaAdapted(sigma float64) {
	observer.adaptations = append(observer.adaptations, sigma)
}

func (observer *recordingObserver) AnnealIteration(cost, _ float64, accepted bool) {
	observer.annealCosts = append(observer.annealCosts, cost)
	if accepted {
		observer.accepted++
	}
}

func newTestOptimizer(cfg Config, seed uint64, observer Observer) Optimizer {
	return NewOptimizer(cfg, NewRand(seed), zerolog.Nop(), observer)
}

func initialize(t *testing.T, instance model.Instance) *timetable.State {
	state, err := timetable.Initialize(instance)
	require.NoError(t, err)
	return state
}

func TestRepair(t *testing.T) {
	t.Run("Independent sessions need no batch", func(t *testing.T) {
		//** Arrange
		state := initialize(t, model.NewTestInstance(1, 2, 1,
			model.NewTestSession(0, 0, 0, model.Lecture, 1, []uint64{0}, []uint64{0}),
			model.NewTestSession(1, 1, 1, model.Lecture, 1, []uint64{1}, []uint64{0}),
		))
		observer := &recordingObserver{}

		//** Act
		result, err := newTestOptimizer(DefaultConfig(), 1, observer).Repair(context.Background(), state)

		//** Assert
		require.NoError(t, err)
		assert.True(t, result.Feasible)
		assert.Equal(t, 1, result.Runs)
		assert.Equal(t, 0, result.Iterations)
		assert.Equal(t, 0, result.Cost)
		assert.Empty(t, observer.repairCosts)
	})

	t.Run("Teacher overlap is repaired", func(t *testing.T) {
		//** Arrange
		state := initialize(t, model.NewTestInstance(1, 2, 2,
			model.NewTestSession(0, 0, 0, model.Lecture, 1, []uint64{0}, []uint64{0, 1}),
			model.NewTestSession(1, 1, 0, model.Lecture, 1, []uint64{1}, []uint64{0, 1}),
		))
		require.Equal(t, 1, evaluator.HardConstraintsCost(state, state.Evaluator()).Total) // Both start at timeslot 0

		//** Act
		result, err := newTestOptimizer(DefaultConfig(), 1, nil).Repair(context.Background(), state)

		//** Assert
		require.NoError(t, err)
		assert.True(t, result.Feasible)
		assert.Equal(t, 1, result.Iterations)
		assert.True(t, evaluator.Verify(state.Assignments(), state.Instance()))
	})

	t.Run("Infeasible instance exhausts every run", func(t *testing.T) {
		//** Arrange
		// Each session fills its only classroom for the whole day and both share a teacher
		state := initialize(t, model.NewTestInstance(1, 2, 2,
			model.NewTestSession(0, 0, 0, model.Lecture, 2, []uint64{0}, []uint64{0}),
			model.NewTestSession(1, 1, 0, model.Lecture, 2, []uint64{1}, []uint64{1}),
		))
		cfg := DefaultConfig()
		observer := &recordingObserver{}

		//** Act
		result, err := newTestOptimizer(cfg, 1, observer).Repair(context.Background(), state)

		//** Assert
		require.NoError(t, err)
		assert.False(t, result.Feasible)
		assert.Equal(t, cfg.Runs, result.Runs)
		assert.Equal(t, cfg.Runs*cfg.MaxStagnation, result.Iterations)
		assert.Equal(t, 2, result.Cost)
		assert.Equal(t, 2, result.Teacher)

		// Adaptations happen every 3 iterations from iteration 30 to 198, always shrinking sigma
		adaptations := cfg.Runs * ((198-30)/3 + 1)
		assert.Len(t, observer.adaptations, adaptations)
		assert.InDelta(t, cfg.InitialSigma*math.Pow(cfg.SigmaFactor, float64(adaptations)), result.Sigma, 1e-12)
	})

	t.Run("Frequent improvements widen sigma", func(t *testing.T) {
		//** Arrange
		// Sessions 0 and 1 fill their only classrooms and share a teacher, so the cost never drops below 3.
		// Session 4 can only leave timeslot 1 for timeslot 2, which unblocks timeslot 1 for session 2 one iteration later
		state := timetable.NewState(model.NewTestInstance(1, 3, 5,
			model.NewTestSession(0, 0, 0, model.Lecture, 3, []uint64{0}, []uint64{0}),
			model.NewTestSession(1, 0, 0, model.Lecture, 3, []uint64{1}, []uint64{1}),
			model.NewTestSession(2, 1, 1, model.Lecture, 1, []uint64{2}, []uint64{3}),
			model.NewTestSession(3, 1, 1, model.Exercise, 1, []uint64{3}, []uint64{4}),
			model.NewTestSession(4, 2, 2, model.Lecture, 1, []uint64{2}, []uint64{2}),
			model.NewTestSession(5, 2, 2, model.Exercise, 1, []uint64{4}, []uint64{4}),
			model.NewTestSession(6, 3, 1, model.Lab, 1, []uint64{5}, []uint64{4}),
		))
		for session, cell := range []timetable.Cell{{0, 0}, {0, 1}, {0, 3}, {0, 4}, {1, 2}, {1, 4}, {2, 4}} {
			require.NoError(t, state.Place(uint64(session), cell.Timeslot, cell.Classroom))
		}
		require.Equal(t, 5, evaluator.HardConstraintsCost(state, state.Evaluator()).Total)

		cfg := DefaultConfig()
		cfg.Runs = 1
		cfg.MaxStagnation = 12
		cfg.AdaptationWindow = 1
		cfg.InitialSigma = 1
		cfg.RepairFraction = 1
		observer := &recordingObserver{}

		//** Act
		result, err := newTestOptimizer(cfg, 1, observer).Repair(context.Background(), state)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, []int{4, 3}, observer.repairCosts[:2])
		assert.Equal(t, 14, result.Iterations) // Two improvements followed by 12 stagnant iterations
		assert.Equal(t, 3, result.Cost)

		// Two successes by iteration 10 widen sigma once, every later window shrinks it
		require.Len(t, observer.adaptations, 5)
		assert.InDelta(t, 1/cfg.SigmaFactor, observer.adaptations[0], 1e-12)
		assert.InDelta(t, 1.0, observer.adaptations[1], 1e-12)
		assert.InDelta(t, math.Pow(cfg.SigmaFactor, 3), result.Sigma, 1e-12)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		//** Arrange
		state := initialize(t, model.NewTestInstance(1, 2, 2,
			model.NewTestSession(0, 0, 0, model.Lecture, 1, []uint64{0}, []uint64{0, 1}),
			model.NewTestSession(1, 1, 0, model.Lecture, 1, []uint64{1}, []uint64{0, 1}),
		))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		//** Act
		result, err := newTestOptimizer(DefaultConfig(), 1, nil).Repair(ctx, state)

		//** Assert
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, result.Feasible)
		assert.Equal(t, 0, result.Iterations)
		assert.Equal(t, 1, result.Cost)
	})

	t.Run("Random instances", func(t *testing.T) {
		g := NewWithT(t)
		rng := NewRand(11)

		for seed := range uint64(10) {
			//** Arrange
			instance := model.GenerateInstance(rng, 5, 8, 30, 6, 8, 6)
			state := initialize(t, instance)
			initial := evaluator.HardConstraintsCost(state, state.Evaluator()).Total

			//** Act
			result, err := newTestOptimizer(DefaultConfig(), seed, nil).Repair(context.Background(), state)

			//** Assert
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(state.Consistent()).To(Succeed())
			g.Expect(result.Cost).To(BeNumerically("<=", initial))
			g.Expect(result.Feasible).To(Equal(evaluator.Feasible(state, state.Evaluator())))
			g.Expect(result.Feasible).To(Equal(evaluator.Verify(state.Assignments(), instance)))
		}
	})
}

func TestAnneal(t *testing.T) {
	t.Run("Feasibility is preserved", func(t *testing.T) {
		g := NewWithT(t)
		rng := NewRand(21)
		cfg := DefaultConfig()
		cfg.AnnealIterations = 300

		for seed := range uint64(5) {
			//** Arrange
			instance := model.GenerateInstance(rng, 5, 8, 24, 6, 10, 6)
			state := initialize(t, instance)
			optimizer := newTestOptimizer(cfg, seed, nil)
			repair, err := optimizer.Repair(context.Background(), state)
			g.Expect(err).NotTo(HaveOccurred())
			if !repair.Feasible {
				continue
			}

			//** Act
			result, err := optimizer.Anneal(context.Background(), state)

			//** Assert
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(state.Consistent()).To(Succeed())
			g.Expect(evaluator.Feasible(state, state.Evaluator())).To(BeTrue())
			g.Expect(evaluator.Verify(state.Assignments(), instance)).To(BeTrue())
			g.Expect(result.Iterations).To(Equal(cfg.AnnealIterations))
			g.Expect(result.Accepted + result.Rejected).To(Equal(result.Iterations))
			g.Expect(result.Cost).To(Equal(SoftCost(state, cfg.Weights)))
		}
	})

	t.Run("Cold annealing never accepts a worse batch", func(t *testing.T) {
		//** Arrange
		cfg := DefaultConfig()
		cfg.AnnealIterations = 200
		cfg.InitialTemperature = 1e-9
		observer := &recordingObserver{}
		state := initialize(t, model.GenerateInstance(NewRand(31), 5, 8, 30, 6, 10, 6))
		initial := SoftCost(state, cfg.Weights)

		//** Act
		result, err := newTestOptimizer(cfg, 3, observer).Anneal(context.Background(), state)

		//** Assert
		require.NoError(t, err)
		assert.LessOrEqual(t, result.Cost, initial)
		previous := initial
		for _, cost := range observer.annealCosts {
			assert.LessOrEqual(t, cost, previous)
			previous = cost
		}
		assert.Equal(t, result.Accepted, observer.accepted)
		assert.Equal(t, SoftCost(state, cfg.Weights), result.Cost)
		assert.InDelta(t, cfg.InitialTemperature*math.Pow(cfg.CoolingRate, 200), result.Temperature, 1e-15)
	})

	t.Run("No iterations", func(t *testing.T) {
		//** Arrange
		cfg := DefaultConfig()
		cfg.AnnealIterations = 0
		state := initialize(t, model.GenerateInstance(NewRand(41), 5, 8, 10, 3, 4, 4))
		before := state.Clone()

		//** Act
		result, err := newTestOptimizer(cfg, 1, nil).Anneal(context.Background(), state)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, 0, result.Iterations)
		assert.Equal(t, result.InitialCost, result.Cost)
		assert.Equal(t, before, state.Clone())
	})
}

func TestOptimizerLogs(t *testing.T) {
	//** Arrange
	var buffer bytes.Buffer
	state := initialize(t, model.NewTestInstance(1, 2, 1,
		model.NewTestSession(0, 0, 0, model.Lecture, 1, []uint64{0}, []uint64{0}),
	))
	optimizer := NewOptimizer(DefaultConfig(), NewRand(1), zerolog.New(&buffer), nil)

	//** Act
	_, err := optimizer.Repair(context.Background(), state)

	//** Assert
	require.NoError(t, err)
	scanner := bufio.NewScanner(&buffer)
	lines := 0
	for scanner.Scan() {
		event := map[string]any{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		assert.Equal(t, "optimizer", event["component"])
		lines++
	}
	assert.Positive(t, lines)
}

func TestSoftCost(t *testing.T) {
	t.Run("Group idle hours with a free hour", func(t *testing.T) {
		//** Arrange
		state := timetable.NewState(model.NewTestInstance(1, 4, 1,
			model.NewTestSession(0, 0, 0, model.Lecture, 1, []uint64{0}, []uint64{0}),
			model.NewTestSession(1, 0, 1, model.Exercise, 1, []uint64{0}, []uint64{0}),
		))
		require.NoError(t, state.Place(0, 0, 0))
		require.NoError(t, state.Place(1, 3, 0))

		//** Act & Assert
		assert.Equal(t, 2.0, SoftCost(state, DefaultConfig().Weights))
		assert.Equal(t, 2.0, SoftCost(state, Weights{GroupIdle: 1, TeacherIdle: 5})) // Teachers are never idle here
	})

	t.Run("No free hour", func(t *testing.T) {
		//** Arrange
		state := initialize(t, model.NewTestInstance(1, 2, 1,
			model.NewTestSession(0, 0, 0, model.Lecture, 2, []uint64{0}, []uint64{0}),
		))

		//** Act & Assert
		assert.Equal(t, 1.0, SoftCost(state, DefaultConfig().Weights))
		assert.Equal(t, 0.0, SoftCost(state, Weights{GroupIdle: 1}))
	})
}

func TestStrategies(t *testing.T) {
	//** Arrange
	instance := model.NewTestInstance(1, 4, 2,
		model.NewTestSession(0, 0, 0, model.Lecture, 1, []uint64{0}, []uint64{0, 1}),
		model.NewTestSession(1, 0, 0, model.Exercise, 1, []uint64{0}, []uint64{0, 1}),
	)
	cfg := DefaultConfig()
	cfg.AnnealIterations = 10

	scenarios := map[string][2]bool{
		"repair": {true, false},
		"anneal": {false, true},
		"full":   {true, true},
	}

	assert.Len(t, Strategies, len(scenarios))
	for name, phases := range scenarios {
		//** Act
		result, err := Strategies[name](context.Background(), newTestOptimizer(cfg, 1, nil), initialize(t, instance))

		//** Assert
		require.NoErrorf(t, err, "strategy %v", name)
		assert.Equalf(t, phases[0], result.Repair != nil, "strategy %v", name)
		assert.Equalf(t, phases[1], result.Anneal != nil, "strategy %v", name)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	scenarios := map[string]func(cfg *Config){
		"no runs":              func(cfg *Config) { cfg.Runs = 0 },
		"sigma factor above 1": func(cfg *Config) { cfg.SigmaFactor = 1.2 },
		"zero temperature":     func(cfg *Config) { cfg.InitialTemperature = 0 },
		"negative weight":      func(cfg *Config) { cfg.Weights.NoFreeHour = -1 },
		"empty repair batch":   func(cfg *Config) { cfg.RepairFraction = 0 },
	}
	for name, mutate := range scenarios {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Errorf(t, cfg.Validate(), "scenario %v", name)
	}
}

package optimizer

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/limaJavier/timetabling/pkg/logger"
	"github.com/limaJavier/timetabling/pkg/timetable"
	"github.com/rs/zerolog"
)

type Optimizer interface {
	// Drives the hard-constraint cost of the state to zero with a (1+1) evolution strategy
	Repair(ctx context.Context, state *timetable.State) (RepairResult, error)

	// Lowers the soft-constraint cost of the state by simulated annealing over relocation batches
	Anneal(ctx context.Context, state *timetable.State) (AnnealResult, error)
}

type RepairResult struct {
	Feasible   bool          `json:"feasible"`
	Runs       int           `json:"runs"`
	Iterations int           `json:"iterations"`
	Sigma      float64       `json:"sigma"`
	Cost       int           `json:"cost"`
	Teacher    int           `json:"teacher_cost"`
	Classroom  int           `json:"classroom_cost"`
	Group      int           `json:"group_cost"`
	Elapsed    time.Duration `json:"elapsed"`
}

type AnnealResult struct {
	Iterations  int           `json:"iterations"`
	Accepted    int           `json:"accepted"`
	Rejected    int           `json:"rejected"`
	InitialCost float64       `json:"initial_cost"`
	Cost        float64       `json:"cost"`
	Temperature float64       `json:"temperature"`
	Elapsed     time.Duration `json:"elapsed"`
}

type optimizerStandard struct {
	cfg      Config
	rng      *rand.Rand
	logger   zerolog.Logger
	observer Observer
}

// NewOptimizer builds an optimizer drawing every random decision from rng. A nil observer is replaced by a no-op one
func NewOptimizer(cfg Config, rng *rand.Rand, baseLogger zerolog.Logger, observer Observer) Optimizer {
	if observer == nil {
		observer = NopObserver()
	}
	if rng == nil {
		rng = NewRand(cfg.Seed)
	}
	return &optimizerStandard{
		cfg:      cfg,
		rng:      rng,
		logger:   logger.Component(baseLogger, "optimizer"),
		observer: observer,
	}
}

// NewRand returns the generator used for a seed, so runs with the same seed are reproducible
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

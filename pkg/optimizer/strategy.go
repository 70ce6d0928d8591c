package optimizer

import (
	"context"

	"github.com/limaJavier/timetabling/pkg/timetable"
)

// Result holds the outcome of every phase a strategy ran
type Result struct {
	Repair *RepairResult `json:"repair,omitempty"`
	Anneal *AnnealResult `json:"anneal,omitempty"`
}

type Strategy func(ctx context.Context, optimizer Optimizer, state *timetable.State) (Result, error)

var Strategies = map[string]Strategy{
	"repair": func(ctx context.Context, optimizer Optimizer, state *timetable.State) (Result, error) {
		repair, err := optimizer.Repair(ctx, state)
		return Result{Repair: &repair}, err
	},
	"anneal": func(ctx context.Context, optimizer Optimizer, state *timetable.State) (Result, error) {
		anneal, err := optimizer.Anneal(ctx, state)
		return Result{Anneal: &anneal}, err
	},
	"full": func(ctx context.Context, optimizer Optimizer, state *timetable.State) (Result, error) {
		repair, err := optimizer.Repair(ctx, state)
		if err != nil {
			return Result{Repair: &repair}, err
		}
		anneal, err := optimizer.Anneal(ctx, state)
		return Result{Repair: &repair, Anneal: &anneal}, err
	},
}

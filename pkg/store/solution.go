package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/timetabling/pkg/model"
	"github.com/limaJavier/timetabling/pkg/optimizer"
	"github.com/limaJavier/timetabling/pkg/report"
	"github.com/limaJavier/timetabling/pkg/timetable"
)

// Solution is one optimizer run together with the timetable it produced
type Solution struct {
	ID          string             `json:"id"`
	Instance    string             `json:"instance"`
	Strategy    string             `json:"strategy"`
	Seed        uint64             `json:"seed"`
	SoftCost    float64            `json:"soft_cost"`
	Statistics  report.Statistics  `json:"statistics"`
	Result      optimizer.Result   `json:"result"`
	Assignments []model.Assignment `json:"assignments"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewSolution(instance, strategy string, seed uint64, state *timetable.State, result optimizer.Result, weights optimizer.Weights) *Solution {
	return &Solution{
		ID:          uuid.NewString(),
		Instance:    instance,
		Strategy:    strategy,
		Seed:        seed,
		SoftCost:    optimizer.SoftCost(state, weights),
		Statistics:  report.Collect(state),
		Result:      result,
		Assignments: state.Assignments(),
		CreatedAt:   time.Now().UTC(),
	}
}

func (solution *Solution) WriteJSON(path string) error {
	content, err := json.MarshalIndent(solution, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal solution: %w", err)
	}
	if err := os.WriteFile(path, content, 0666); err != nil {
		return fmt.Errorf("write solution %v: %w", path, err)
	}
	return nil
}

func ReadJSON(path string) (*Solution, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read solution %v: %w", path, err)
	}

	solution := &Solution{}
	if err := json.Unmarshal(content, solution); err != nil {
		return nil, fmt.Errorf("unmarshal solution %v: %w", path, err)
	}
	if _, err := uuid.Parse(solution.ID); err != nil {
		return nil, fmt.Errorf("solution %v has an invalid id: %w", path, err)
	}
	return solution, nil
}

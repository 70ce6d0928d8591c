package model

import (
	"errors"
	"fmt"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

var ErrInsufficientCapacity = errors.New("insufficient classroom capacity")

// CheckCapacity verifies that every session-hour can be given its own eligible classroom cell somewhere in the week.
// It is a necessary condition only: day boundaries as well as teacher and group conflicts are not taken into account
func CheckCapacity(instance Instance) error {
	timeslots := instance.Timeslots()

	// Left side: one node per session-hour
	units := make([]uint64, 0)
	for _, session := range instance.Sessions {
		for range session.Duration {
			units = append(units, session.Id)
		}
	}

	// Right side: one node per classroom cell that is eligible for at least one session
	used := lo.Uniq(lo.FlatMap(instance.Sessions, func(session Session, _ int) []uint64 { return session.Classrooms }))
	cells := make([][2]uint64, 0, uint64(len(used))*timeslots)
	for _, classroom := range used {
		for timeslot := range timeslots {
			cells = append(cells, [2]uint64{classroom, timeslot})
		}
	}

	if len(units) > len(cells) {
		return fmt.Errorf("%w: %d session-hours for %d classroom cells", ErrInsufficientCapacity, len(units), len(cells))
	}

	evaluator := NewPredicateEvaluator(instance)
	neighbors := func(unitAny any, cellAny any) (bool, error) {
		session := unitAny.(uint64)
		cell := cellAny.([2]uint64)
		return evaluator.Eligible(session, cell[0]), nil
	}

	// Transform units and cells to slices of any
	unitsAny, cellsAny := lo.Map(units, func(unit uint64, _ int) any { return unit }), lo.Map(cells, func(cell [2]uint64, _ int) any { return cell })

	graph, err := bipartitegraph.NewBipartiteGraph(unitsAny, cellsAny, neighbors)
	if err != nil {
		return err
	}

	// Check the matching saturates every session-hour
	matching := graph.LargestMatching()
	if len(matching) < len(units) {
		unmatched := make(map[int]bool, len(units))
		for i := range units {
			unmatched[i] = true
		}
		for _, edge := range matching {
			delete(unmatched, edge.Node1)
		}
		names := lo.Uniq(lo.Map(lo.Keys(unmatched), func(unit int, _ int) string {
			return instance.Subjects[instance.Sessions[units[unit]].Subject].Name
		}))
		return fmt.Errorf("%w: %d of %d session-hours cannot be hosted (subjects %v)", ErrInsufficientCapacity, len(units)-len(matching), len(units), names)
	}

	return nil
}

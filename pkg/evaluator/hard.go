package evaluator

import (
	"github.com/limaJavier/timetabling/pkg/model"
)

// Grid is the read-only view of a timetable the cost functions work on
type Grid interface {
	Timeslots() uint64
	Classrooms() uint64
	Occupant(timeslot, classroom uint64) (uint64, bool)
}

// HardCost breaks the hard-constraint cost down by kind. PerSession holds the charges of every session that has any
type HardCost struct {
	Total      int
	PerSession map[uint64]int
	Teacher    int
	Classroom  int
	Group      int
}

// HardConstraintsCost charges one unit per occupied cell outside the session's eligible classrooms and, for every
// unordered pair of sessions sharing a timeslot, one unit for a shared teacher plus one per shared group.
// Pair charges go to the session held in the lower classroom
func HardConstraintsCost(grid Grid, predicates model.PredicateEvaluator) HardCost {
	cost := HardCost{PerSession: make(map[uint64]int)}

	row := make([]occupiedCell, 0, grid.Classrooms())
	for timeslot := range grid.Timeslots() {
		row = occupiedRow(grid, timeslot, row[:0])

		for i, cell := range row {
			session := cell.session
			if !predicates.Eligible(session, cell.classroom) {
				cost.Classroom++
				cost.PerSession[session]++
			}

			for _, next := range row[i+1:] {
				other := next.session
				if predicates.SameTeacher(session, other) {
					cost.Teacher++
					cost.PerSession[session]++
				}
				if shared := predicates.SharedGroups(session, other); shared > 0 {
					cost.Group += shared
					cost.PerSession[session] += shared
				}
			}
		}
	}

	cost.Total = cost.Teacher + cost.Classroom + cost.Group
	return cost
}

// HardViolations counts ineligible cells and teacher or group overlaps over ordered pairs, so every overlap is counted
// twice. Only its comparison against zero is meaningful
func HardViolations(grid Grid, predicates model.PredicateEvaluator) int {
	violations := 0

	for timeslot := range grid.Timeslots() {
		for classroom := range grid.Classrooms() {
			session, ok := grid.Occupant(timeslot, classroom)
			if !ok {
				continue
			}
			if !predicates.Eligible(session, classroom) {
				violations++
			}

			for otherClassroom := range grid.Classrooms() {
				other, ok := grid.Occupant(timeslot, otherClassroom)
				if otherClassroom == classroom || !ok {
					continue
				}
				if predicates.SameTeacher(session, other) {
					violations++
				}
				violations += predicates.SharedGroups(session, other)
			}
		}
	}

	return violations
}

// Feasible reports whether both hard-constraint measures are zero
func Feasible(grid Grid, predicates model.PredicateEvaluator) bool {
	return HardConstraintsCost(grid, predicates).Total == 0 && HardViolations(grid, predicates) == 0
}

type occupiedCell struct {
	session   uint64
	classroom uint64
}

// occupiedRow appends the occupied cells of the timeslot, in classroom order, to row
func occupiedRow(grid Grid, timeslot uint64, row []occupiedCell) []occupiedCell {
	for classroom := range grid.Classrooms() {
		if session, ok := grid.Occupant(timeslot, classroom); ok {
			row = append(row, occupiedCell{session: session, classroom: classroom})
		}
	}
	return row
}

package timetable

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/limaJavier/timetabling/pkg/model"
)

// Empty marks a grid cell that holds no session
const Empty uint64 = math.MaxUint64

var (
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrNotPlaced        = errors.New("session is not placed")
	ErrUnplaceable      = errors.New("session cannot be placed")
)

type placementError struct {
	session uint64
	start   Cell
	reason  string
}

func (err placementError) Error() string {
	return fmt.Sprintf("invalid placement of session %d at timeslot %d in classroom %d: %s", err.session, err.start.Timeslot, err.start.Classroom, err.reason)
}

func (err placementError) Unwrap() error {
	return ErrInvalidPlacement
}

type Cell struct {
	Timeslot  uint64
	Classroom uint64
}

// State is the timetable under construction. Grid, free set, placements, idle indices and order index are only
// mutated together through Place and Remove (and Relocate, which is built on them)
type State struct {
	instance  model.Instance
	evaluator model.PredicateEvaluator
	indexer   cellIndexer

	timeslots   uint64
	classrooms  uint64
	hoursPerDay uint64

	grid        []uint64 // Cell index -> session occupying it or Empty
	free        []bool   // Cell index -> whether the cell is free
	freeCount   uint64
	placements  [][]Cell // Session -> occupied cells (nil when not placed)
	groupIdle   occurrences
	teacherIdle occurrences
	order       orderIndex

	journal *journal
}

// NewState returns an empty timetable for the instance
func NewState(instance model.Instance) *State {
	timeslots, classrooms := instance.Timeslots(), uint64(len(instance.Classrooms))
	indexer := newCellIndexer(timeslots, classrooms)

	state := &State{
		instance:    instance,
		evaluator:   model.NewPredicateEvaluator(instance),
		indexer:     indexer,
		timeslots:   timeslots,
		classrooms:  classrooms,
		hoursPerDay: instance.HoursPerDay,
		grid:        make([]uint64, indexer.Size()),
		free:        make([]bool, indexer.Size()),
		freeCount:   indexer.Size(),
		placements:  make([][]Cell, len(instance.Sessions)),
		groupIdle:   newOccurrences(len(instance.Groups)),
		teacherIdle: newOccurrences(len(instance.Teachers)),
		order:       make(orderIndex),
	}

	for index := range state.grid {
		state.grid[index] = Empty
		state.free[index] = true
	}

	// Every (subject, group) pair starts with no placed session of any type
	for _, session := range instance.Sessions {
		for _, group := range session.Groups {
			state.order.entry(OrderKey{Subject: session.Subject, Group: group})
		}
	}

	return state
}

// Place occupies session.Duration consecutive timeslots of the classroom starting at start
func (state *State) Place(session, start, classroom uint64) error {
	if err := state.checkPlacement(session, start, classroom); err != nil {
		return err
	}
	details := state.instance.Sessions[session]

	cells := make([]Cell, 0, details.Duration)
	timeslots := make([]uint64, 0, details.Duration)
	for timeslot := start; timeslot < start+details.Duration; timeslot++ {
		index := state.indexer.Index(timeslot, classroom)
		state.grid[index] = session
		state.free[index] = false
		cells = append(cells, Cell{Timeslot: timeslot, Classroom: classroom})
		timeslots = append(timeslots, timeslot)
	}
	state.freeCount -= details.Duration
	state.placements[session] = cells

	for _, group := range details.Groups {
		state.groupIdle.add(group, session, timeslots)
		state.order.add(OrderKey{Subject: details.Subject, Group: group}, int(details.Type), session, start)
	}
	state.teacherIdle.add(details.Teacher, session, timeslots)

	state.journal.record(operation{place: true, session: session, start: cells[0]})
	return nil
}

// Remove frees the cells of a placed session and drops its entries from every index
func (state *State) Remove(session uint64) error {
	if session >= uint64(len(state.placements)) || state.placements[session] == nil {
		return fmt.Errorf("%w: %d", ErrNotPlaced, session)
	}
	details := state.instance.Sessions[session]
	cells := state.placements[session]

	for _, cell := range cells {
		index := state.indexer.Index(cell.Timeslot, cell.Classroom)
		state.grid[index] = Empty
		state.free[index] = true
	}
	state.freeCount += uint64(len(cells))
	state.placements[session] = nil

	for _, group := range details.Groups {
		state.groupIdle.remove(group, session)
		state.order.remove(OrderKey{Subject: details.Subject, Group: group}, int(details.Type), session)
	}
	state.teacherIdle.remove(details.Teacher, session)

	state.journal.record(operation{place: false, session: session, start: cells[0]})
	return nil
}

func (state *State) checkPlacement(session, start, classroom uint64) error {
	if session >= uint64(len(state.instance.Sessions)) {
		return placementError{session, Cell{start, classroom}, "unknown session"}
	} else if state.placements[session] != nil {
		return placementError{session, Cell{start, classroom}, "session is already placed"}
	} else if classroom >= state.classrooms {
		return placementError{session, Cell{start, classroom}, "unknown classroom"}
	} else if !state.evaluator.Eligible(session, classroom) {
		return placementError{session, Cell{start, classroom}, "classroom is not eligible"}
	}

	duration := state.instance.Sessions[session].Duration
	end := start + duration - 1
	if end >= state.timeslots {
		return placementError{session, Cell{start, classroom}, "block exceeds the week"}
	} else if state.Day(start) != state.Day(end) {
		return placementError{session, Cell{start, classroom}, "block crosses a day boundary"}
	}

	for timeslot := start; timeslot <= end; timeslot++ {
		if !state.free[state.indexer.Index(timeslot, classroom)] {
			return placementError{session, Cell{start, classroom}, fmt.Sprintf("timeslot %d is occupied", timeslot)}
		}
	}
	return nil
}

func (state *State) Instance() model.Instance {
	return state.instance
}

func (state *State) Evaluator() model.PredicateEvaluator {
	return state.evaluator
}

func (state *State) Timeslots() uint64 {
	return state.timeslots
}

func (state *State) Classrooms() uint64 {
	return state.classrooms
}

func (state *State) HoursPerDay() uint64 {
	return state.hoursPerDay
}

func (state *State) Day(timeslot uint64) uint64 {
	return timeslot / state.hoursPerDay
}

// Occupant returns the session held by the cell, if any
func (state *State) Occupant(timeslot, classroom uint64) (uint64, bool) {
	session := state.grid[state.indexer.Index(timeslot, classroom)]
	return session, session != Empty
}

func (state *State) Placed(session uint64) bool {
	return state.placements[session] != nil
}

// Placement returns a copy of the cells occupied by the session
func (state *State) Placement(session uint64) ([]Cell, bool) {
	cells := state.placements[session]
	return slices.Clone(cells), cells != nil
}

// Assignments returns the start and classroom of every placed session, in session order
func (state *State) Assignments() []model.Assignment {
	assignments := make([]model.Assignment, 0, len(state.placements))
	for session, cells := range state.placements {
		if cells != nil {
			assignments = append(assignments, model.Assignment{Session: uint64(session), Start: cells[0].Timeslot, Classroom: cells[0].Classroom})
		}
	}
	return assignments
}

// Grid returns a timeslot x classroom copy of the grid where empty cells hold Empty
func (state *State) Grid() [][]uint64 {
	grid := make([][]uint64, state.timeslots)
	for timeslot := range state.timeslots {
		start := state.indexer.Index(timeslot, 0)
		grid[timeslot] = slices.Clone(state.grid[start : start+state.classrooms])
	}
	return grid
}

// FreeCells returns the free cells in scan order
func (state *State) FreeCells() []Cell {
	cells := make([]Cell, 0, state.freeCount)
	for index, free := range state.free {
		if free {
			timeslot, classroom := state.indexer.Attributes(uint64(index))
			cells = append(cells, Cell{Timeslot: timeslot, Classroom: classroom})
		}
	}
	return cells
}

func (state *State) FreeCount() uint64 {
	return state.freeCount
}

// GroupTimeslots returns, per group, the sorted multiset of timeslots the group attends
func (state *State) GroupTimeslots() map[uint64][]uint64 {
	return state.groupIdle.all()
}

// TeacherTimeslots returns, per teacher, the sorted multiset of timeslots the teacher teaches
func (state *State) TeacherTimeslots() map[uint64][]uint64 {
	return state.teacherIdle.all()
}

// SubjectOrder returns, per (subject, group), the earliest start of its lecture, exercise and lab (-1 when not placed)
func (state *State) SubjectOrder() map[OrderKey][3]int64 {
	result := make(map[OrderKey][3]int64, len(state.order))
	for key := range state.order {
		result[key] = state.order.triple(key)
	}
	return result
}

// Clone deep-copies the state. The journal is not copied
func (state *State) Clone() *State {
	clone := *state
	clone.grid = slices.Clone(state.grid)
	clone.free = slices.Clone(state.free)
	clone.placements = make([][]Cell, len(state.placements))
	for session, cells := range state.placements {
		clone.placements[session] = slices.Clone(cells)
	}
	clone.groupIdle = state.groupIdle.clone()
	clone.teacherIdle = state.teacherIdle.clone()
	clone.order = state.order.clone()
	clone.journal = nil
	return &clone
}

// Consistent checks the structural invariants binding grid, free set, placements and indices together
func (state *State) Consistent() error {
	occupied := uint64(0)
	for index, session := range state.grid {
		timeslot, classroom := state.indexer.Attributes(uint64(index))
		if state.free[index] == (session != Empty) {
			return fmt.Errorf("cell (%d, %d) is both free and occupied or neither", timeslot, classroom)
		}
		if session != Empty {
			occupied++
			if !slices.Contains(state.placements[session], Cell{Timeslot: timeslot, Classroom: classroom}) {
				return fmt.Errorf("cell (%d, %d) holds session %d outside its placement", timeslot, classroom, session)
			}
		}
	}
	if occupied+state.freeCount != state.indexer.Size() {
		return fmt.Errorf("free count %d and %d occupied cells do not cover %d cells", state.freeCount, occupied, state.indexer.Size())
	}

	for session, cells := range state.placements {
		if cells == nil {
			continue
		}
		details := state.instance.Sessions[session]
		if uint64(len(cells)) != details.Duration {
			return fmt.Errorf("session %d occupies %d cells instead of %d", session, len(cells), details.Duration)
		}
		for i, cell := range cells {
			if cell.Classroom != cells[0].Classroom || cell.Timeslot != cells[0].Timeslot+uint64(i) || state.Day(cell.Timeslot) != state.Day(cells[0].Timeslot) {
				return fmt.Errorf("session %d is not placed in one contiguous block of a single day and classroom", session)
			}
			if state.grid[state.indexer.Index(cell.Timeslot, cell.Classroom)] != uint64(session) {
				return fmt.Errorf("session %d does not hold its cell (%d, %d)", session, cell.Timeslot, cell.Classroom)
			}
		}
		for _, group := range details.Groups {
			if !slices.Equal(state.groupIdle[group][uint64(session)], timeslotsOf(cells)) {
				return fmt.Errorf("group %d index is out of sync with session %d", group, session)
			}
		}
		if !slices.Equal(state.teacherIdle[details.Teacher][uint64(session)], timeslotsOf(cells)) {
			return fmt.Errorf("teacher %d index is out of sync with session %d", details.Teacher, session)
		}
	}

	// Stale entries
	for _, index := range []occurrences{state.groupIdle, state.teacherIdle} {
		for entity, sessions := range index {
			for session := range sessions {
				if state.placements[session] == nil {
					return fmt.Errorf("entity %d still records unplaced session %d", entity, session)
				}
			}
		}
	}
	for key, entry := range state.order {
		for _, starts := range entry {
			for session, start := range starts {
				if cells := state.placements[session]; cells == nil || cells[0].Timeslot != start {
					return fmt.Errorf("order of subject %d for group %d is out of sync with session %d", key.Subject, key.Group, session)
				}
			}
		}
	}
	return nil
}

func timeslotsOf(cells []Cell) []uint64 {
	timeslots := make([]uint64, 0, len(cells))
	for _, cell := range cells {
		timeslots = append(timeslots, cell.Timeslot)
	}
	return timeslots
}

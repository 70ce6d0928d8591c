package timetable

import (
	"fmt"
	"log"

	"github.com/limaJavier/timetabling/pkg/model"
)

// Initialize greedily places every session, in id order, at the first free block of an eligible classroom.
// Teacher and group conflicts are ignored, so hard-constraint violations are expected afterwards
func Initialize(instance model.Instance) (*State, error) {
	state := NewState(instance)

	for _, session := range instance.Sessions {
		start, ok := state.search(session.Id, false)
		if !ok {
			return nil, fmt.Errorf("%w: session %d (subject %d) has no free block in any eligible classroom", ErrUnplaceable, session.Id, session.Subject)
		}
		if err := state.Place(session.Id, start.Timeslot, start.Classroom); err != nil {
			return nil, err
		}
	}

	return state, nil
}

// Relocate moves the session to the first free block, in scan order, that keeps it in an eligible classroom and
// conflicts with no teacher or group of the sessions held at the same timeslots. It reports whether the session moved;
// when no such block exists the state is left untouched
func (state *State) Relocate(session uint64) bool {
	start, ok := state.search(session, true)
	if !ok {
		return false
	}

	if state.Placed(session) {
		if err := state.Remove(session); err != nil {
			log.Panicf("cannot relocate session %d: %v", session, err)
		}
	}
	if err := state.Place(session, start.Timeslot, start.Classroom); err != nil {
		log.Panicf("cannot relocate session %d: %v", session, err)
	}
	return true
}

// search scans free cells in ascending index order and returns the first valid start for the session
func (state *State) search(session uint64, conflictFree bool) (Cell, bool) {
	duration := state.instance.Sessions[session].Duration

	// Timeslot verdicts are shared by every classroom: 0 = unknown, 1 = clear, 2 = conflicting
	verdicts := make([]uint8, state.timeslots)
	rowClear := func(timeslot uint64) bool {
		if verdicts[timeslot] == 0 {
			verdicts[timeslot] = 2
			if state.validTeacherGroupRow(session, timeslot) {
				verdicts[timeslot] = 1
			}
		}
		return verdicts[timeslot] == 1
	}

	for index, free := range state.free {
		if !free {
			continue
		}
		timeslot, classroom := state.indexer.Attributes(uint64(index))

		// Check the session won't start one day and end on the next
		end := timeslot + duration - 1
		if end >= state.timeslots || state.Day(timeslot) != state.Day(end) {
			continue
		}

		// Check the classroom is suitable
		if !state.evaluator.Eligible(session, classroom) {
			continue
		}

		// Check the whole block is free and, if requested, free of teacher and group overlaps
		found := true
		for current := timeslot; current <= end; current++ {
			if !state.free[state.indexer.Index(current, classroom)] || (conflictFree && !rowClear(current)) {
				found = false
				break
			}
		}

		if found {
			return Cell{Timeslot: timeslot, Classroom: classroom}, true
		}
	}

	return Cell{}, false
}

// validTeacherGroupRow checks whether no session held at the timeslot shares a teacher or a group with the session.
// A timeslot the session already occupies always conflicts, so a move never overlaps its previous block
func (state *State) validTeacherGroupRow(session, timeslot uint64) bool {
	for classroom := range state.classrooms {
		other := state.grid[state.indexer.Index(timeslot, classroom)]
		if other != Empty && state.evaluator.Conflict(session, other) {
			return false
		}
	}
	return true
}

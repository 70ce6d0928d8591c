package timetable

import "log"

type operation struct {
	place   bool
	session uint64
	start   Cell
}

// journal records the Place and Remove operations applied since Begin, so a batch of moves can be undone exactly
type journal struct {
	operations []operation
}

func (journal *journal) record(op operation) {
	if journal == nil {
		return
	}
	journal.operations = append(journal.operations, op)
}

// Begin starts recording mutations. Any previous recording is discarded
func (state *State) Begin() {
	state.journal = &journal{operations: make([]operation, 0, 16)}
}

// Commit keeps every mutation recorded since Begin and stops recording
func (state *State) Commit() {
	state.journal = nil
}

// Rollback undoes, in reverse order, every mutation recorded since Begin and stops recording
func (state *State) Rollback() {
	if state.journal == nil {
		return
	}
	operations := state.journal.operations
	state.journal = nil

	for i := len(operations) - 1; i >= 0; i-- {
		op := operations[i]
		var err error
		if op.place {
			err = state.Remove(op.session)
		} else {
			err = state.Place(op.session, op.start.Timeslot, op.start.Classroom)
		}
		if err != nil {
			log.Panicf("cannot undo operation %+v: %v", op, err)
		}
	}
}

// Recording reports whether mutations are being recorded
func (state *State) Recording() bool {
	return state.journal != nil
}

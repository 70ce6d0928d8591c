package timetable

// cellIndexer is designed to give a unique index to a (timeslot, classroom) pair and vice versa.
// Indices grow timeslot-major, so ascending indices scan a whole timeslot before moving to the next one
type cellIndexer interface {
	// Returns a unique index to a (timeslot, classroom) pair
	Index(timeslot, classroom uint64) uint64
	// Returns the (timeslot, classroom) pair of a unique index
	Attributes(index uint64) (timeslot, classroom uint64)
	// Returns the number of indices
	Size() uint64
}

type cellIndexerImplementation struct {
	timeslots  uint64
	classrooms uint64
}

func newCellIndexer(timeslots, classrooms uint64) cellIndexer {
	return &cellIndexerImplementation{
		timeslots:  timeslots,
		classrooms: classrooms,
	}
}

func (indexer *cellIndexerImplementation) Index(timeslot, classroom uint64) uint64 {
	return classroom + indexer.classrooms*timeslot
}

func (indexer *cellIndexerImplementation) Attributes(index uint64) (timeslot, classroom uint64) {
	classroom = index % indexer.classrooms
	timeslot = index / indexer.classrooms
	return timeslot, classroom
}

func (indexer *cellIndexerImplementation) Size() uint64 {
	return indexer.timeslots * indexer.classrooms
}

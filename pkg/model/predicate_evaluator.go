package model

type PredicateEvaluator interface {
	// Checks whether session1 and session2 are taught by the same teacher
	SameTeacher(session1, session2 uint64) bool

	// Returns the number of groups attending both session1 and session2
	SharedGroups(session1, session2 uint64) int

	// Checks whether the classroom belongs to the session's eligible classrooms
	Eligible(session, classroom uint64) bool

	// Checks whether session1 and session2 cannot be held at the same time (i.e. they share a teacher or at least one group)
	Conflict(session1, session2 uint64) bool
}

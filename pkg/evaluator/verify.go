package evaluator

import (
	"slices"

	"github.com/limaJavier/timetabling/pkg/model"
)

// Verify checks a finished timetable against the instance without relying on the optimizer's state
func Verify(assignments []model.Assignment, instance model.Instance) bool {
	timeslots := instance.Timeslots()

	//** Initialize teacher-assistance
	teacherAssistance := make([][]bool, len(instance.Teachers))
	for teacher := range teacherAssistance {
		teacherAssistance[teacher] = make([]bool, timeslots)
	}

	//** Initialize group-assistance
	groupAssistance := make([][]bool, len(instance.Groups))
	for group := range groupAssistance {
		groupAssistance[group] = make([]bool, timeslots)
	}

	//** Initialize classroom-assistance
	classroomAssistance := make([][]bool, len(instance.Classrooms))
	for classroom := range classroomAssistance {
		classroomAssistance[classroom] = make([]bool, timeslots)
	}

	scheduled := make([]bool, len(instance.Sessions))

	for _, assignment := range assignments {
		if assignment.Session >= uint64(len(instance.Sessions)) || assignment.Classroom >= uint64(len(instance.Classrooms)) {
			return false
		}
		session := instance.Sessions[assignment.Session]
		end := assignment.Start + session.Duration - 1

		// Check that:
		// - The session is scheduled only once
		// - The block fits in the week and does not cross into the next day
		// - The classroom is eligible for the session
		if scheduled[session.Id] ||
			end >= timeslots ||
			assignment.Start/instance.HoursPerDay != end/instance.HoursPerDay ||
			!slices.Contains(session.Classrooms, assignment.Classroom) {
			return false
		}
		scheduled[session.Id] = true

		for timeslot := assignment.Start; timeslot <= end; timeslot++ {
			// Check that teacher, groups and classroom are not already assisting in the timeslot
			if teacherAssistance[session.Teacher][timeslot] || classroomAssistance[assignment.Classroom][timeslot] {
				return false
			}
			for _, group := range session.Groups {
				if groupAssistance[group][timeslot] {
					return false
				}
				groupAssistance[group][timeslot] = true // Store group assistance
			}
			teacherAssistance[session.Teacher][timeslot] = true         // Store teacher assistance
			classroomAssistance[assignment.Classroom][timeslot] = true // Store classroom assistance
		}
	}

	// Check whether every session was scheduled
	return !slices.Contains(scheduled, false)
}

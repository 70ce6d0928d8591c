package model

import (
	"fmt"
	"math/rand/v2"
)

// GenerateInstance builds a random instance where every session is one or two hours long and is eligible for one to
// three classrooms. Instances are not guaranteed to admit a conflict-free timetable
func GenerateInstance(rng *rand.Rand, days, hoursPerDay uint64, sessions, classrooms, teachers, groups int) Instance {
	instance := Instance{
		Days:        days,
		HoursPerDay: hoursPerDay,
	}

	for i := range classrooms {
		instance.Classrooms = append(instance.Classrooms, Classroom{Id: uint64(i), Name: fmt.Sprintf("room-%d", i), Type: "n"})
	}
	for i := range teachers {
		instance.Teachers = append(instance.Teachers, Teacher{Id: uint64(i), Name: fmt.Sprintf("teacher-%d", i)})
	}
	for i := range groups {
		instance.Groups = append(instance.Groups, Group{Id: uint64(i), Name: fmt.Sprintf("group-%d", i)})
	}

	subjects := max(1, sessions/3)
	for i := range subjects {
		instance.Subjects = append(instance.Subjects, Subject{Id: uint64(i), Name: fmt.Sprintf("subject-%d", i)})
	}

	for i := range sessions {
		eligible := make([]uint64, 0, 3)
		for _, classroom := range rng.Perm(classrooms)[:1+rng.IntN(min(3, classrooms))] {
			eligible = append(eligible, uint64(classroom))
		}

		instance.Sessions = append(instance.Sessions, Session{
			Id:         uint64(i),
			Subject:    uint64(rng.IntN(subjects)),
			Teacher:    uint64(rng.IntN(teachers)),
			Type:       SessionType(rng.IntN(3)),
			Groups:     []uint64{uint64(rng.IntN(groups))},
			Duration:   uint64(1 + rng.IntN(2)),
			Classrooms: eligible,
		})
	}

	return instance
}

// NewTestSession is a shorthand used by tests to describe sessions compactly
func NewTestSession(id, subject, teacher uint64, sessionType SessionType, duration uint64, groups []uint64, classrooms []uint64) Session {
	return Session{
		Id:         id,
		Subject:    subject,
		Teacher:    teacher,
		Type:       sessionType,
		Groups:     groups,
		Duration:   duration,
		Classrooms: classrooms,
	}
}

// NewTestInstance fills in named subjects, teachers, groups and classrooms large enough for the given sessions
func NewTestInstance(days, hoursPerDay uint64, classrooms int, sessions ...Session) Instance {
	instance := Instance{
		Days:        days,
		HoursPerDay: hoursPerDay,
		Sessions:    sessions,
	}

	var subjects, teachers, groups uint64
	for _, session := range sessions {
		subjects = max(subjects, session.Subject+1)
		teachers = max(teachers, session.Teacher+1)
		for _, group := range session.Groups {
			groups = max(groups, group+1)
		}
	}

	for i := range uint64(classrooms) {
		instance.Classrooms = append(instance.Classrooms, Classroom{Id: i, Name: fmt.Sprintf("room-%d", i), Type: "n"})
	}
	for i := range subjects {
		instance.Subjects = append(instance.Subjects, Subject{Id: i, Name: fmt.Sprintf("subject-%d", i)})
	}
	for i := range teachers {
		instance.Teachers = append(instance.Teachers, Teacher{Id: i, Name: fmt.Sprintf("teacher-%d", i)})
	}
	for i := range groups {
		instance.Groups = append(instance.Groups, Group{Id: i, Name: fmt.Sprintf("group-%d", i)})
	}

	return instance
}

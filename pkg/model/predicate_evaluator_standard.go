package model

import (
	"github.com/samber/lo"
)

type predicateEvaluatorStandard struct {
	instance     Instance
	eligibility  [][]bool // Eligibility matrix: sessions x classrooms
	sharedGroups [][]int  // Shared-groups matrix: sessions x sessions
}

func NewPredicateEvaluator(instance Instance) PredicateEvaluator {
	sessions := len(instance.Sessions)

	evaluator := predicateEvaluatorStandard{
		instance:     instance,
		eligibility:  make([][]bool, sessions),
		sharedGroups: make([][]int, sessions),
	}

	for _, session := range instance.Sessions {
		evaluator.eligibility[session.Id] = make([]bool, len(instance.Classrooms))
		for _, classroom := range session.Classrooms {
			evaluator.eligibility[session.Id][classroom] = true
		}
	}

	for i := range sessions {
		evaluator.sharedGroups[i] = make([]int, sessions)
	}
	for i := range sessions {
		for j := i; j < sessions; j++ {
			shared := len(lo.Intersect(instance.Sessions[i].Groups, instance.Sessions[j].Groups))
			evaluator.sharedGroups[i][j] = shared
			evaluator.sharedGroups[j][i] = shared
		}
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) SameTeacher(session1, session2 uint64) bool {
	return evaluator.instance.Sessions[session1].Teacher == evaluator.instance.Sessions[session2].Teacher
}

func (evaluator *predicateEvaluatorStandard) SharedGroups(session1, session2 uint64) int {
	return evaluator.sharedGroups[session1][session2]
}

func (evaluator *predicateEvaluatorStandard) Eligible(session, classroom uint64) bool {
	eligibility := evaluator.eligibility[session]
	return classroom < uint64(len(eligibility)) && eligibility[classroom]
}

func (evaluator *predicateEvaluatorStandard) Conflict(session1, session2 uint64) bool {
	return evaluator.SameTeacher(session1, session2) || evaluator.SharedGroups(session1, session2) > 0
}

package evaluator

import (
	"slices"

	"github.com/limaJavier/timetabling/pkg/timetable"
)

// IdleCost summarizes the gaps between consecutive same-day sessions of a set of entities (groups or teachers)
type IdleCost struct {
	Total     int     // Idle hours of every entity over the whole week
	MaxPerDay int     // Largest idle total of a single entity in a single day
	Average   float64 // Total divided by the number of entities
}

// IdleTimeCost sorts every entity's timeslots and, for each pair of neighbours falling in the same day, adds the
// number of free hours between them
func IdleTimeCost(timeslots map[uint64][]uint64, hoursPerDay uint64) IdleCost {
	var cost IdleCost
	if len(timeslots) == 0 {
		return cost
	}

	for _, occupied := range timeslots {
		sorted := slices.Clone(occupied)
		slices.Sort(sorted)

		perDay := make(map[uint64]int)
		for i := 1; i < len(sorted); i++ {
			previous, current := sorted[i-1], sorted[i]
			if previous/hoursPerDay == current/hoursPerDay && current-previous > 1 {
				gap := int(current - previous - 1)
				perDay[previous/hoursPerDay] += gap
				cost.Total += gap
			}
		}

		for _, idle := range perDay {
			cost.MaxPerDay = max(cost.MaxPerDay, idle)
		}
	}

	cost.Average = float64(cost.Total) / float64(len(timeslots))
	return cost
}

// SubjectOrderCost returns the percentage of (subject, group) type pairs held in the preferred order: lecture before
// exercise, lecture before lab and exercise before lab. A pair only counts when both types are placed; ok is false
// when there is no such pair
func SubjectOrderCost(order map[timetable.OrderKey][3]int64) (percentage float64, ok bool) {
	violations, pairs := 0, 0

	for _, starts := range order {
		for first := range 2 {
			for second := first + 1; second < 3; second++ {
				if starts[first] == -1 || starts[second] == -1 {
					continue
				}
				pairs++
				if starts[first] > starts[second] {
					violations++
				}
			}
		}
	}

	if pairs == 0 {
		return 0, false
	}
	return 100 * float64(pairs-violations) / float64(pairs), true
}

// FreeHour returns the first timeslot in which no classroom is occupied
func FreeHour(grid Grid) (uint64, bool) {
	for timeslot := range grid.Timeslots() {
		empty := true
		for classroom := range grid.Classrooms() {
			if _, ok := grid.Occupant(timeslot, classroom); ok {
				empty = false
				break
			}
		}
		if empty {
			return timeslot, true
		}
	}
	return 0, false
}

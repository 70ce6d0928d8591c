package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/limaJavier/timetabling/pkg/evaluator"
	"github.com/limaJavier/timetabling/pkg/timetable"
)

// Statistics gathers every hard and soft measure of a timetable
type Statistics struct {
	Feasible        bool               `json:"feasible"`
	HardCost        int                `json:"hard_cost"`
	TeacherCost     int                `json:"teacher_cost"`
	ClassroomCost   int                `json:"classroom_cost"`
	GroupCost       int                `json:"group_cost"`
	GroupIdle       evaluator.IdleCost `json:"group_idle"`
	TeacherIdle     evaluator.IdleCost `json:"teacher_idle"`
	OrderPercentage float64            `json:"order_percentage"`
	OrderDefined    bool               `json:"order_defined"`
	FreeHour        *uint64            `json:"free_hour,omitempty"`
}

func Collect(state *timetable.State) Statistics {
	hard := evaluator.HardConstraintsCost(state, state.Evaluator())
	stats := Statistics{
		Feasible:      evaluator.Feasible(state, state.Evaluator()),
		HardCost:      hard.Total,
		TeacherCost:   hard.Teacher,
		ClassroomCost: hard.Classroom,
		GroupCost:     hard.Group,
		GroupIdle:     evaluator.IdleTimeCost(state.GroupTimeslots(), state.HoursPerDay()),
		TeacherIdle:   evaluator.IdleTimeCost(state.TeacherTimeslots(), state.HoursPerDay()),
	}
	stats.OrderPercentage, stats.OrderDefined = evaluator.SubjectOrderCost(state.SubjectOrder())
	if timeslot, ok := evaluator.FreeHour(state); ok {
		stats.FreeHour = &timeslot
	}
	return stats
}

func WriteStatistics(w io.Writer, stats Statistics, labels Labels) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "Hard constraints satisfied:\t%v\n", stats.Feasible)
	fmt.Fprintf(writer, "Hard cost:\t%d\t(teachers %d, classrooms %d, groups %d)\n", stats.HardCost, stats.TeacherCost, stats.ClassroomCost, stats.GroupCost)
	if stats.OrderDefined {
		fmt.Fprintf(writer, "Subjects in preferred order:\t%.2f%%\n", stats.OrderPercentage)
	} else {
		fmt.Fprintf(writer, "Subjects in preferred order:\tn/a\n")
	}
	fmt.Fprintf(writer, "Group idle hours:\t%d\t(max per day %d, average %.2f)\n", stats.GroupIdle.Total, stats.GroupIdle.MaxPerDay, stats.GroupIdle.Average)
	fmt.Fprintf(writer, "Teacher idle hours:\t%d\t(max per day %d, average %.2f)\n", stats.TeacherIdle.Total, stats.TeacherIdle.MaxPerDay, stats.TeacherIdle.Average)
	if stats.FreeHour != nil {
		fmt.Fprintf(writer, "Free hour:\t%v\n", labels.Timeslot(*stats.FreeHour))
	} else {
		fmt.Fprintf(writer, "Free hour:\tnone\n")
	}

	return writer.Flush()
}

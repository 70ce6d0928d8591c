package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/limaJavier/timetabling/pkg/model"
	"github.com/samber/lo"
)

// Row is one session of the timetable with every id resolved to a name
type Row struct {
	Start     uint64
	Duration  uint64
	Day       string
	Hours     string
	Classroom string
	Subject   string
	Type      string
	Teacher   string
	Groups    []string
}

// Rows resolves the assignments against the instance, ordered by start and classroom
func Rows(instance model.Instance, assignments []model.Assignment, labels Labels) []Row {
	sorted := slices.Clone(assignments)
	slices.SortFunc(sorted, func(a, b model.Assignment) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.Classroom, b.Classroom))
	})

	return lo.Map(sorted, func(assignment model.Assignment, _ int) Row {
		session := instance.Sessions[assignment.Session]
		hour := assignment.Start % labels.HoursPerDay
		return Row{
			Start:     assignment.Start,
			Duration:  session.Duration,
			Day:       labels.Day(assignment.Start / labels.HoursPerDay),
			Hours:     labels.Hour(hour) + "-" + labels.Hour(hour+session.Duration),
			Classroom: instance.Classrooms[assignment.Classroom].Name,
			Subject:   instance.Subjects[session.Subject].Name,
			Type:      session.Type.String(),
			Teacher:   instance.Teachers[session.Teacher].Name,
			Groups: lo.Map(session.Groups, func(group uint64, _ int) string {
				return instance.Groups[group].Name
			}),
		}
	})
}

// WriteTimetable prints one line per session
func WriteTimetable(w io.Writer, rows []Row) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "DAY\tHOURS\tCLASSROOM\tSUBJECT\tTYPE\tTEACHER\tGROUPS")
	for _, row := range rows {
		fmt.Fprintf(writer, "%v\t%v\t%v\t%v\t%v\t%v\t%v\n", row.Day, row.Hours, row.Classroom, row.Subject, row.Type, row.Teacher, strings.Join(row.Groups, ", "))
	}

	return writer.Flush()
}

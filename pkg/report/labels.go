package report

import "fmt"

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Labels turns timeslots into human-readable days and hours
type Labels struct {
	HoursPerDay uint64
	FirstHour   int // Clock hour of the first timeslot of every day
}

func (labels Labels) Day(day uint64) string {
	if day < uint64(len(dayNames)) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day %d", day+1)
}

func (labels Labels) Hour(hour uint64) string {
	return fmt.Sprintf("%d:00", labels.FirstHour+int(hour))
}

// Timeslot returns e.g. "Monday 9:00"
func (labels Labels) Timeslot(timeslot uint64) string {
	return labels.Day(timeslot/labels.HoursPerDay) + " " + labels.Hour(timeslot%labels.HoursPerDay)
}

package report

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/jung-kurt/gofpdf"
	"github.com/limaJavier/timetabling/pkg/model"
)

// PDFRenderer draws one weekly grid per group, hours down and days across
type PDFRenderer struct {
	title string
}

func NewPDFRenderer(title string) *PDFRenderer {
	return &PDFRenderer{title: title}
}

func (renderer *PDFRenderer) Render(instance model.Instance, rows []Row, labels Labels) ([]byte, error) {
	if instance.Days == 0 || labels.HoursPerDay == 0 {
		return nil, fmt.Errorf("pdf requires at least one day and one hour")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	hourWidth := 18.0
	dayWidth := (277.0 - hourWidth) / float64(instance.Days)
	rowHeight := min(12.0, 160.0/float64(labels.HoursPerDay))

	for _, group := range instance.Groups {
		cells := groupCells(group.Name, rows, instance.Days, labels.HoursPerDay)

		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		title := group.Name
		if renderer.title != "" {
			title = renderer.title + " - " + group.Name
		}
		pdf.CellFormat(0, 10, translate(title), "", 1, "C", false, 0, "")
		pdf.Ln(2)

		//** Header
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(hourWidth, 8, "", "1", 0, "C", false, 0, "")
		for day := range instance.Days {
			pdf.CellFormat(dayWidth, 8, labels.Day(day), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		//** Body
		pdf.SetFont("Arial", "", 7)
		pdf.SetFillColor(225, 235, 250)
		for hour := range labels.HoursPerDay {
			pdf.CellFormat(hourWidth, rowHeight, labels.Hour(hour), "1", 0, "C", false, 0, "")
			for day := range instance.Days {
				pdf.CellFormat(dayWidth, rowHeight, translate(cells[hour][day]), "1", 0, "C", cells[hour][day] != "", 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// groupCells lays out, per hour and day, the sessions attended by the group
func groupCells(group string, rows []Row, days, hoursPerDay uint64) [][]string {
	cells := make([][]string, hoursPerDay)
	for hour := range cells {
		cells[hour] = make([]string, days)
	}

	for _, row := range rows {
		if !slices.Contains(row.Groups, group) {
			continue
		}
		day := row.Start / hoursPerDay
		text := fmt.Sprintf("%v (%v) %v", row.Subject, row.Type, row.Classroom)
		for hour := row.Start % hoursPerDay; hour < row.Start%hoursPerDay+row.Duration; hour++ {
			if cells[hour][day] != "" {
				cells[hour][day] += " / "
			}
			cells[hour][day] += text
		}
	}
	return cells
}

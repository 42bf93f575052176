// Package export renders attendance data as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	RecordsSheet = "Attendance"
	SummarySheet = "Summary"
)

type AttendanceRow struct {
	Date          string
	EmployeeID    string
	EmployeeName  string
	Department    string
	TimeIn        *string
	TimeOut       *string
	BreakStart    *string
	BreakEnd      *string
	TotalHours    *float64
	OvertimeHours *float64
	Status        string
	Notes         *string
}

type SummaryRow struct {
	EmployeeID     string
	EmployeeName   string
	TotalDays      int
	PresentDays    int
	LateDays       int
	AbsentDays     int
	LeaveDays      int
	TotalHours     float64
	OvertimeHours  float64
	AttendanceRate float64
}

var recordHeaders = []string{
	"Date", "Employee ID", "Employee", "Department", "Time In", "Time Out",
	"Break Start", "Break End", "Total Hours", "Overtime Hours", "Status", "Notes",
}

var summaryHeaders = []string{
	"Employee ID", "Employee", "Days", "Present", "Late", "Absent", "Leave",
	"Total Hours", "Overtime Hours", "Attendance Rate (%)",
}

// WriteAttendanceWorkbook builds an xlsx workbook with one sheet of records
// and one sheet of per-employee totals.
func WriteAttendanceWorkbook(records []AttendanceRow, summaries []SummaryRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(RecordsSheet)
	if err != nil {
		return nil, fmt.Errorf("create records sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeHeader(f, RecordsSheet, recordHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, r := range records {
		values := []interface{}{
			r.Date, r.EmployeeID, r.EmployeeName, r.Department,
			text(r.TimeIn), text(r.TimeOut), text(r.BreakStart), text(r.BreakEnd),
			number(r.TotalHours), number(r.OvertimeHours), r.Status, text(r.Notes),
		}
		if err := writeRow(f, RecordsSheet, i+2, values); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, SummarySheet, summaryHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, s := range summaries {
		values := []interface{}{
			s.EmployeeID, s.EmployeeName, s.TotalDays, s.PresentDays, s.LateDays,
			s.AbsentDays, s.LeaveDays, s.TotalHours, s.OvertimeHours, s.AttendanceRate,
		}
		if err := writeRow(f, SummarySheet, i+2, values); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(RecordsSheet, "A", "L", 16)
	_ = f.SetColWidth(SummarySheet, "A", "J", 16)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func number(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

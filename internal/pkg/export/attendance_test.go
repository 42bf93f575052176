package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestWriteAttendanceWorkbook(t *testing.T) {
	records := []AttendanceRow{
		{
			Date:          "2024-03-04",
			EmployeeID:    "E1",
			EmployeeName:  "Maria Santos",
			Department:    "Operations",
			TimeIn:        strPtr("08:00:00"),
			TimeOut:       strPtr("17:30:00"),
			TotalHours:    floatPtr(9.5),
			OvertimeHours: floatPtr(1.5),
			Status:        "present",
		},
		{
			Date:       "2024-03-05",
			EmployeeID: "E1",
			Status:     "absent",
		},
	}
	summaries := []SummaryRow{
		{EmployeeID: "E1", EmployeeName: "Maria Santos", TotalDays: 2, PresentDays: 1, AbsentDays: 1, TotalHours: 9.5, OvertimeHours: 1.5, AttendanceRate: 50},
	}

	buf, err := WriteAttendanceWorkbook(records, summaries)
	require.NoError(t, err)
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RecordsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Maria Santos", rows[1][2])
	assert.Equal(t, "08:00:00", rows[1][4])
	assert.Equal(t, "9.5", rows[1][8])
	assert.Equal(t, "absent", rows[2][10])

	summaryRows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summaryRows, 2)
	assert.Equal(t, "E1", summaryRows[1][0])
	assert.Equal(t, "50", summaryRows[1][9])
}

func TestWriteAttendanceWorkbook_Empty(t *testing.T) {
	buf, err := WriteAttendanceWorkbook(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

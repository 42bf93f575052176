package attendance

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/timeutil"
)

var hundred = decimal.NewFromInt(100)

// SummaryCalculator aggregates day records into a PeriodSummary. Values are
// accumulated at full precision and rounded once when the summary is built.
type SummaryCalculator struct {
	standardWorkHours   decimal.Decimal
	workingDaysPerMonth int
}

func NewSummaryCalculator(standardWorkHours decimal.Decimal, workingDaysPerMonth int) *SummaryCalculator {
	return &SummaryCalculator{
		standardWorkHours:   standardWorkHours,
		workingDaysPerMonth: workingDaysPerMonth,
	}
}

type summaryTotals struct {
	total, present, absent, late, leave int

	regularHours  decimal.Decimal
	overtimeHours decimal.Decimal
	totalHours    decimal.Decimal
	hoursCount    int

	checkInSeconds  int64
	checkInCount    int
	checkOutSeconds int64
	checkOutCount   int
}

func (c *SummaryCalculator) Summarize(
	employeeID string,
	startDate string,
	endDate string,
	records []attendance.Attendance,
	wage employee.WageProfile,
) (attendance.PeriodSummary, error) {
	totals, err := c.accumulate(records)
	if err != nil {
		return attendance.PeriodSummary{}, err
	}

	avgDailyHours := decimal.Zero
	if totals.hoursCount > 0 {
		avgDailyHours = totals.totalHours.Div(decimal.NewFromInt(int64(totals.hoursCount)))
	}

	overtimeRate := wage.Wage.Mul(wage.OvertimeRate)
	regularPay := totals.regularHours.Mul(wage.Wage)
	overtimePay := totals.overtimeHours.Mul(overtimeRate)
	projection := avgDailyHours.Mul(wage.Wage).Mul(decimal.NewFromInt(int64(c.workingDaysPerMonth)))

	return attendance.PeriodSummary{
		EmployeeID: employeeID,
		StartDate:  startDate,
		EndDate:    endDate,

		TotalDays:   totals.total,
		PresentDays: totals.present,
		AbsentDays:  totals.absent,
		LateDays:    totals.late,
		LeaveDays:   totals.leave,
		OnTimeDays:  totals.present,

		RegularHours:  round2(totals.regularHours),
		OvertimeHours: round2(totals.overtimeHours),
		TotalHours:    round2(totals.totalHours),
		AvgDailyHours: round2(avgDailyHours),

		AvgCheckIn:  averageClock(totals.checkInSeconds, totals.checkInCount),
		AvgCheckOut: averageClock(totals.checkOutSeconds, totals.checkOutCount),

		AttendanceRate:  percentage(totals.present, totals.total),
		PunctualityRate: percentage(totals.present, totals.present),

		HourlyRate:         round2(wage.Wage),
		OvertimeMultiplier: round2(wage.OvertimeRate),
		OvertimeRate:       round2(overtimeRate),
		RegularPay:         round2(regularPay),
		OvertimePay:        round2(overtimePay),
		MonthlyEarnings:    round2(regularPay.Add(overtimePay)),
		MonthlyProjection:  round2(projection),
	}, nil
}

func (c *SummaryCalculator) accumulate(records []attendance.Attendance) (summaryTotals, error) {
	var t summaryTotals

	for _, rec := range records {
		t.total++

		switch {
		case rec.Status == attendance.StatusPresent:
			t.present++
		case rec.Status == attendance.StatusAbsent:
			t.absent++
		case rec.Status == attendance.StatusLate:
			t.late++
		case rec.Status.IsLeave():
			t.leave++
		}

		if rec.TotalHours != nil {
			hours := *rec.TotalHours
			t.totalHours = t.totalHours.Add(hours)
			t.regularHours = t.regularHours.Add(decimal.Min(hours, c.standardWorkHours))
			t.hoursCount++

			if rec.OvertimeHours != nil {
				t.overtimeHours = t.overtimeHours.Add(*rec.OvertimeHours)
			} else {
				t.overtimeHours = t.overtimeHours.Add(decimal.Max(decimal.Zero, hours.Sub(c.standardWorkHours)))
			}
		} else if rec.OvertimeHours != nil {
			t.overtimeHours = t.overtimeHours.Add(*rec.OvertimeHours)
		}

		if rec.TimeIn != nil {
			seconds, err := timeutil.ClockToSeconds(*rec.TimeIn)
			if err != nil {
				return summaryTotals{}, fmt.Errorf("record %s has invalid time_in: %w", rec.ID, err)
			}
			t.checkInSeconds += int64(seconds)
			t.checkInCount++
		}

		if rec.TimeOut != nil {
			seconds, err := timeutil.ClockToSeconds(*rec.TimeOut)
			if err != nil {
				return summaryTotals{}, fmt.Errorf("record %s has invalid time_out: %w", rec.ID, err)
			}
			t.checkOutSeconds += int64(seconds)
			t.checkOutCount++
		}
	}

	return t, nil
}

// percentage returns part/whole*100 rounded to 1 place, or 100 when whole is zero.
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 100
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(1).InexactFloat64()
}

func averageClock(sum int64, count int) *string {
	if count == 0 {
		return nil
	}
	mean := float64(sum) / float64(count)
	return timeutil.SecondsToClock(&mean)
}

// round2 rounds a value to 2 decimal places for output.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

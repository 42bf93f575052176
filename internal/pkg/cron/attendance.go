package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/timeutil"
)

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	calendar       *timeutil.Calendar
	interval       time.Duration
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	calendar *timeutil.Calendar,
	interval time.Duration,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		calendar:       calendar,
		interval:       interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", j.interval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees records yesterday as absent for every active employee
// without a record for that day. Existing rows are never touched, so the job
// can run on every tick.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday, err := timeutil.AddDays(j.calendar.Today(), -1)
	if err != nil {
		return fmt.Errorf("failed to resolve yesterday: %w", err)
	}

	slog.Info("Cron: Starting mark absent employees job", "date", yesterday)

	employeeIDs, err := j.employeeRepo.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	notes := "Marked absent automatically: no attendance recorded"
	totalAbsent := 0
	for _, employeeID := range employeeIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		existing, err := j.attendanceRepo.FindLatest(ctx, employeeID, yesterday)
		if err != nil {
			slog.Error("Cron: Failed to get attendance", "employee_id", employeeID, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		_, err = j.attendanceRepo.Create(ctx, attendance.Attendance{
			EmployeeID: employeeID,
			Date:       yesterday,
			Status:     attendance.StatusAbsent,
			Notes:      &notes,
		})
		if err != nil {
			// Clocked in between the lookup and the insert
			if errors.Is(err, attendance.ErrAttendanceExists) {
				continue
			}
			slog.Error("Cron: Failed to create absence", "employee_id", employeeID, "error", err)
			continue
		}

		totalAbsent++
	}

	slog.Info("Cron: Marked absent employees", "date", yesterday, "count", totalAbsent)
	return nil
}

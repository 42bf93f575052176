package attendance

import (
	"bytes"
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Clock performs a clock-in or clock-out for the authenticated employee.
	Clock(ctx context.Context, req ClockRequest) (ActionResult, error)

	// Break starts or ends a break for the authenticated employee.
	Break(ctx context.Context, req BreakRequest) (ActionResult, error)

	// GetCurrentStatus derives today's state and permitted actions.
	GetCurrentStatus(ctx context.Context) (CurrentStatusResponse, error)

	// CreateManual inserts a record on behalf of an employee (manager/owner).
	CreateManual(ctx context.Context, req ManualEntryRequest) (AttendanceResponse, error)

	// UpdateAttendance patches a record and recomputes derived hours (manager/owner).
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	// DeleteAttendance removes a record (manager/owner).
	DeleteAttendance(ctx context.Context, id string) (DeletedRecordResponse, error)

	// GetAttendance retrieves a single attendance record by ID
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	// ListAttendance lists records; employees only see their own.
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// GetSummary aggregates one employee's records over a period.
	GetSummary(ctx context.Context, req SummaryRequest) (PeriodSummary, error)

	GetTodayStats(ctx context.Context) (TodayStatsResponse, error)

	// ExportAttendance renders the filtered records as an xlsx workbook.
	ExportAttendance(ctx context.Context, filter AttendanceFilter) (*bytes.Buffer, string, error)
}

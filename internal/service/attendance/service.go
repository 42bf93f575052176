package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/user"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/export"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/timeutil"
)

// maxExportRows bounds a single spreadsheet export.
const maxExportRows = 10000

// Options carries the organisation-wide settings of the service.
type Options struct {
	Rules               Rules
	WageDefaults        employee.WageDefaults
	WorkingDaysPerMonth int
}

type AttendanceServiceImpl struct {
	tx attendance.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	calendar     *timeutil.Calendar
	machine      *StateMachine
	summary      *SummaryCalculator
	wageDefaults employee.WageDefaults
}

func NewAttendanceService(
	tx attendance.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	employeeRepository employee.EmployeeRepository,
	calendar *timeutil.Calendar,
	opts Options,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepository,
		EmployeeRepository:   employeeRepository,
		calendar:             calendar,
		machine:              NewStateMachine(calendar, opts.Rules),
		summary:              NewSummaryCalculator(opts.Rules.StandardWorkHours, opts.WorkingDaysPerMonth),
		wageDefaults:         opts.WageDefaults,
	}
}

type actor struct {
	UserID     string
	EmployeeID string
	Role       user.Role
}

func (a actor) canViewAll() bool {
	return user.HasPermission(a.Role, user.PermissionAttendanceViewAll)
}

func (a actor) canManage() bool {
	return user.HasPermission(a.Role, user.PermissionAttendanceManage)
}

func actorFromContext(ctx context.Context) (actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return actor{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return actor{}, attendance.ErrInvalidClaims
	}

	userID, _ := claims["user_id"].(string)
	employeeID, _ := claims["employee_id"].(string)

	return actor{UserID: userID, EmployeeID: employeeID, Role: user.Role(role)}, nil
}

// employeeActorFromContext requires the caller to be linked to an employee.
func employeeActorFromContext(ctx context.Context) (actor, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return actor{}, err
	}
	if a.EmployeeID == "" {
		return actor{}, attendance.ErrInvalidClaims
	}
	return a, nil
}

func managerFromContext(ctx context.Context) (actor, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return actor{}, err
	}
	if !a.canManage() {
		return actor{}, user.ErrManagerAccessRequired
	}
	return a, nil
}

// Clock implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Clock(ctx context.Context, req attendance.ClockRequest) (attendance.ActionResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ActionResult{}, err
	}

	a, err := employeeActorFromContext(ctx)
	if err != nil {
		return attendance.ActionResult{}, err
	}

	return s.perform(ctx, a.EmployeeID, req.ToAction(), req.Notes)
}

// Break implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Break(ctx context.Context, req attendance.BreakRequest) (attendance.ActionResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ActionResult{}, err
	}

	a, err := employeeActorFromContext(ctx)
	if err != nil {
		return attendance.ActionResult{}, err
	}

	return s.perform(ctx, a.EmployeeID, req.ToAction(), req.Notes)
}

// perform runs one state machine transition as a single transaction holding
// the employee's day lock.
func (s *AttendanceServiceImpl) perform(ctx context.Context, employeeID string, action attendance.Action, notes *string) (attendance.ActionResult, error) {
	date := s.calendar.Today()
	now := s.calendar.Now()

	var result attendance.ActionResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.AttendanceRepository.LockEmployeeDay(ctx, employeeID, date); err != nil {
			return fmt.Errorf("failed to lock attendance day: %w", err)
		}

		// The (employee_id, date) unique constraint backs the lock. If another
		// writer inserted first, re-read its row and decide again.
		for attempt := 0; attempt < 2; attempt++ {
			current, err := s.AttendanceRepository.FindLatest(ctx, employeeID, date)
			if err != nil {
				return fmt.Errorf("failed to get today's attendance: %w", err)
			}

			transition, err := s.machine.Decide(current, action, now, notes)
			if err != nil {
				return fmt.Errorf("failed to evaluate %s: %w", action, err)
			}

			if transition.Rejected() {
				result = rejectedResult(transition, current)
				return nil
			}

			var saved attendance.Attendance
			if transition.Create {
				newRecord := transition.Patch.Apply(attendance.Attendance{EmployeeID: employeeID, Date: date})
				saved, err = s.AttendanceRepository.Create(ctx, newRecord)
				if errors.Is(err, attendance.ErrAttendanceExists) {
					continue
				}
			} else {
				saved, err = s.AttendanceRepository.Update(ctx, current.ID, transition.Patch)
			}
			if err != nil {
				return fmt.Errorf("failed to save attendance: %w", err)
			}

			result = successResult(transition, saved)
			return nil
		}

		return fmt.Errorf("failed to save attendance: %w", attendance.ErrAttendanceExists)
	})
	if err != nil {
		return attendance.ActionResult{}, err
	}

	slog.Info("attendance action processed",
		"employee_id", employeeID,
		"date", date,
		"action", action,
		"status", result.Status,
		"state", result.State,
	)

	return result, nil
}

var successMessages = map[attendance.Action]string{
	attendance.ActionClockIn:    "Clocked in successfully",
	attendance.ActionClockOut:   "Clocked out successfully",
	attendance.ActionBreakStart: "Break started",
	attendance.ActionBreakEnd:   "Break ended",
}

func successResult(t Transition, saved attendance.Attendance) attendance.ActionResult {
	resp := toAttendanceResponse(saved)
	return attendance.ActionResult{
		Status:  attendance.ActionSucceeded,
		Action:  t.Action,
		State:   DeriveState(&saved),
		Message: successMessages[t.Action],
		Record:  &resp,
	}
}

func rejectedResult(t Transition, current *attendance.Attendance) attendance.ActionResult {
	result := attendance.ActionResult{
		Status:  attendance.ActionRejected,
		Action:  t.Action,
		State:   t.From,
		Message: t.Reason.Error(),
		Reason:  t.Reason,
	}
	if current != nil {
		resp := toAttendanceResponse(*current)
		result.Record = &resp
	}
	return result
}

// GetCurrentStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetCurrentStatus(ctx context.Context) (attendance.CurrentStatusResponse, error) {
	a, err := employeeActorFromContext(ctx)
	if err != nil {
		return attendance.CurrentStatusResponse{}, err
	}

	date := s.calendar.Today()
	current, err := s.AttendanceRepository.FindLatest(ctx, a.EmployeeID, date)
	if err != nil {
		return attendance.CurrentStatusResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	resp := attendance.CurrentStatusResponse{
		Status:       DeriveState(current),
		Date:         date,
		Capabilities: CapabilitiesOf(current),
	}
	if current != nil {
		record := toAttendanceResponse(*current)
		resp.Record = &record
	}

	return resp, nil
}

// CreateManual implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CreateManual(ctx context.Context, req attendance.ManualEntryRequest) (attendance.AttendanceResponse, error) {
	if _, err := managerFromContext(ctx); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	exists, err := s.EmployeeRepository.Exists(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check employee: %w", err)
	}
	if !exists {
		return attendance.AttendanceResponse{}, employee.ErrEmployeeNotFound
	}

	status := attendance.StatusPresent
	if req.Status != nil {
		status = attendance.Status(*req.Status)
	}

	timeIn := req.TimeIn
	newRecord := attendance.Attendance{
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		TimeIn:     &timeIn,
		TimeOut:    req.TimeOut,
		Status:     status,
		Notes:      req.Notes,
	}

	switch {
	case req.HoursWorked != nil:
		total := decimal.NewFromFloat(*req.HoursWorked).Round(2)
		newRecord.TotalHours = &total
	case req.TimeOut != nil:
		total, overtime, err := s.machine.WorkedHours(newRecord)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to compute worked hours: %w", err)
		}
		newRecord.TotalHours = &total
		newRecord.OvertimeHours = &overtime
	}

	created, err := s.AttendanceRepository.Create(ctx, newRecord)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceExists) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceExists
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return toAttendanceResponse(created), nil
}

// UpdateAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if _, err := managerFromContext(ctx); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var updated attendance.Attendance
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.AttendanceRepository.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		patch := req.ToPatch()
		merged := patch.Apply(existing)

		timesChanged := patch.TimeIn.IsSet() || patch.TimeOut.IsSet() ||
			patch.BreakStart.IsSet() || patch.BreakEnd.IsSet()

		// Derived hours change only with the times; other edits keep stored hours.
		if timesChanged && merged.TimeIn != nil && merged.TimeOut != nil {
			total, overtime, err := s.machine.WorkedHours(merged)
			if err != nil {
				return fmt.Errorf("failed to compute worked hours: %w", err)
			}
			patch.TotalHours = attendance.Set(total)
			patch.OvertimeHours = attendance.Set(overtime)
		} else if patch.TimeIn.IsSet() || patch.TimeOut.IsSet() {
			patch.TotalHours = attendance.Clear[decimal.Decimal]()
			patch.OvertimeHours = attendance.Clear[decimal.Decimal]()
		}

		updated, err = s.AttendanceRepository.Update(ctx, req.ID, patch)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return err
			}
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return toAttendanceResponse(updated), nil
}

// DeleteAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeleteAttendance(ctx context.Context, id string) (attendance.DeletedRecordResponse, error) {
	a, err := managerFromContext(ctx)
	if err != nil {
		return attendance.DeletedRecordResponse{}, err
	}

	existing, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.DeletedRecordResponse{}, err
	}

	if err := s.AttendanceRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.DeletedRecordResponse{}, err
		}
		return attendance.DeletedRecordResponse{}, fmt.Errorf("failed to delete attendance: %w", err)
	}

	deletedBy := a.UserID
	if deletedBy == "" {
		deletedBy = a.EmployeeID
	}

	slog.Info("attendance record deleted", "id", id, "employee_id", existing.EmployeeID, "deleted_by", deletedBy)

	return attendance.DeletedRecordResponse{
		ID:         existing.ID,
		EmployeeID: existing.EmployeeID,
		Date:       existing.Date,
		DeletedBy:  deletedBy,
	}, nil
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if !a.canViewAll() && record.EmployeeID != a.EmployeeID {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	return toAttendanceResponse(record), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	if !a.canViewAll() {
		if a.EmployeeID == "" {
			return attendance.ListAttendanceResponse{}, attendance.ErrInvalidClaims
		}
		employeeID := a.EmployeeID
		filter.EmployeeID = &employeeID
		filter.Search = nil
	}

	records, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toAttendanceResponse(record))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Attendances: responses,
	}, nil
}

// GetSummary implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetSummary(ctx context.Context, req attendance.SummaryRequest) (attendance.PeriodSummary, error) {
	if err := req.Validate(); err != nil {
		return attendance.PeriodSummary{}, err
	}

	a, err := actorFromContext(ctx)
	if err != nil {
		return attendance.PeriodSummary{}, err
	}

	employeeID := a.EmployeeID
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		employeeID = *req.EmployeeID
	}
	if employeeID == "" {
		return attendance.PeriodSummary{}, attendance.ErrInvalidClaims
	}
	if employeeID != a.EmployeeID && !a.canViewAll() {
		return attendance.PeriodSummary{}, attendance.ErrUnauthorized
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return attendance.PeriodSummary{}, err
		}
		return attendance.PeriodSummary{}, fmt.Errorf("failed to get employee: %w", err)
	}

	startDate, endDate, err := s.summaryRange(req)
	if err != nil {
		return attendance.PeriodSummary{}, err
	}

	records, err := s.AttendanceRepository.FindInRange(ctx, attendance.RangeFilter{
		EmployeeID: &employeeID,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		return attendance.PeriodSummary{}, fmt.Errorf("failed to get attendance records: %w", err)
	}

	summary, err := s.summary.Summarize(employeeID, startDate, endDate, records, emp.Profile(s.wageDefaults))
	if err != nil {
		return attendance.PeriodSummary{}, fmt.Errorf("failed to summarize attendance: %w", err)
	}

	return summary, nil
}

func (s *AttendanceServiceImpl) summaryRange(req attendance.SummaryRequest) (string, string, error) {
	if req.StartDate != nil && *req.StartDate != "" && req.EndDate != nil && *req.EndDate != "" {
		return *req.StartDate, *req.EndDate, nil
	}
	return timeutil.ResolvePeriod(timeutil.Period(req.Period), s.calendar.Today())
}

// GetTodayStats implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetTodayStats(ctx context.Context) (attendance.TodayStatsResponse, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return attendance.TodayStatsResponse{}, err
	}
	if !a.canViewAll() {
		return attendance.TodayStatsResponse{}, user.ErrInsufficientPermissions
	}

	today := s.calendar.Today()
	records, err := s.AttendanceRepository.FindInRange(ctx, attendance.RangeFilter{StartDate: today, EndDate: today})
	if err != nil {
		return attendance.TodayStatsResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	activeEmployees, err := s.EmployeeRepository.CountActive(ctx)
	if err != nil {
		return attendance.TodayStatsResponse{}, fmt.Errorf("failed to count active employees: %w", err)
	}

	stats := attendance.TodayStatsResponse{Date: today, TotalEmployees: activeEmployees}
	for _, record := range records {
		switch {
		case record.Status == attendance.StatusPresent:
			stats.Present++
		case record.Status == attendance.StatusAbsent:
			stats.Absent++
		case record.Status == attendance.StatusLate:
			stats.Late++
		case record.Status == attendance.StatusOnLeave || record.Status.IsLeave():
			stats.OnLeave++
		}
	}
	if stats.TotalEmployees > 0 {
		stats.AttendanceRate = percentage(stats.Present, stats.TotalEmployees)
	}

	return stats, nil
}

// ExportAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ExportAttendance(ctx context.Context, filter attendance.AttendanceFilter) (*bytes.Buffer, string, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, "", err
	}
	if !a.canViewAll() {
		return nil, "", user.ErrInsufficientPermissions
	}

	if err := filter.Validate(); err != nil {
		return nil, "", err
	}
	filter.Page = 1
	filter.Limit = maxExportRows

	records, _, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list attendance: %w", err)
	}

	rows := make([]export.AttendanceRow, 0, len(records))
	byEmployee := make(map[string][]attendance.Attendance)
	names := make(map[string]string)
	for _, record := range records {
		rows = append(rows, toExportRow(record))
		byEmployee[record.EmployeeID] = append(byEmployee[record.EmployeeID], record)
		if record.EmployeeName != nil {
			names[record.EmployeeID] = *record.EmployeeName
		}
	}

	employeeIDs := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		employeeIDs = append(employeeIDs, id)
	}
	sort.Strings(employeeIDs)

	summaries := make([]export.SummaryRow, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		summary, err := s.summary.Summarize(id, "", "", byEmployee[id], employee.WageProfile{})
		if err != nil {
			return nil, "", fmt.Errorf("failed to summarize attendance: %w", err)
		}
		summaries = append(summaries, export.SummaryRow{
			EmployeeID:     id,
			EmployeeName:   names[id],
			TotalDays:      summary.TotalDays,
			PresentDays:    summary.PresentDays,
			LateDays:       summary.LateDays,
			AbsentDays:     summary.AbsentDays,
			LeaveDays:      summary.LeaveDays,
			TotalHours:     summary.TotalHours,
			OvertimeHours:  summary.OvertimeHours,
			AttendanceRate: summary.AttendanceRate,
		})
	}

	buf, err := export.WriteAttendanceWorkbook(rows, summaries)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build attendance workbook: %w", err)
	}

	return buf, fmt.Sprintf("attendance_%s.xlsx", s.calendar.Today()), nil
}

func toAttendanceResponse(a attendance.Attendance) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		EmployeeName:  a.EmployeeName,
		Department:    a.Department,
		Position:      a.Position,
		Date:          a.Date,
		TimeIn:        a.TimeIn,
		TimeOut:       a.TimeOut,
		BreakStart:    a.BreakStart,
		BreakEnd:      a.BreakEnd,
		TotalHours:    decimalPtrToFloat(a.TotalHours),
		OvertimeHours: decimalPtrToFloat(a.OvertimeHours),
		Status:        string(a.Status),
		Notes:         a.Notes,
		CreatedAt:     formatTimestamp(a.CreatedAt),
		UpdatedAt:     formatTimestamp(a.UpdatedAt),
	}
}

func toExportRow(a attendance.Attendance) export.AttendanceRow {
	row := export.AttendanceRow{
		Date:          a.Date,
		EmployeeID:    a.EmployeeID,
		TimeIn:        a.TimeIn,
		TimeOut:       a.TimeOut,
		BreakStart:    a.BreakStart,
		BreakEnd:      a.BreakEnd,
		TotalHours:    decimalPtrToFloat(a.TotalHours),
		OvertimeHours: decimalPtrToFloat(a.OvertimeHours),
		Status:        string(a.Status),
		Notes:         a.Notes,
	}
	if a.EmployeeName != nil {
		row.EmployeeName = *a.EmployeeName
	}
	if a.Department != nil {
		row.Department = *a.Department
	}
	return row
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.Round(2).InexactFloat64()
	return &f
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

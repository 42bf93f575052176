package attendance

import (
	"encoding/json"
	"strings"

	"github.com/workforce-hub/attendance-backend-go/internal/pkg/timeutil"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// CLOCK & BREAK DTOs
// ========================================

type ClockRequest struct {
	Action string  `json:"action"` // in, out
	Notes  *string `json:"notes,omitempty"`
}

func (r *ClockRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	if !validator.IsInSlice(r.Action, []string{"in", "out"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be one of: in, out",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r ClockRequest) ToAction() Action {
	if r.Action == "out" {
		return ActionClockOut
	}
	return ActionClockIn
}

type BreakRequest struct {
	Action string  `json:"action"` // start, end
	Notes  *string `json:"notes,omitempty"`
}

func (r *BreakRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	if !validator.IsInSlice(r.Action, []string{"start", "end"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be one of: start, end",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r BreakRequest) ToAction() Action {
	if r.Action == "end" {
		return ActionBreakEnd
	}
	return ActionBreakStart
}

type ActionStatus string

const (
	ActionSucceeded ActionStatus = "success"
	ActionRejected  ActionStatus = "rejected"
)

// ActionResult is the outcome of a clock or break action. A rejection is a
// normal result carrying the unchanged record.
type ActionResult struct {
	Status  ActionStatus        `json:"status"`
	Action  Action              `json:"action"`
	State   SessionState        `json:"state"`
	Message string              `json:"message"`
	Record  *AttendanceResponse `json:"record"`
	Reason  error               `json:"-"`
}

func (r ActionResult) Rejected() bool {
	return r.Status == ActionRejected
}

type CurrentStatusResponse struct {
	Status       SessionState        `json:"status"`
	Date         string              `json:"date"`
	Record       *AttendanceResponse `json:"record"`
	Capabilities Capabilities        `json:"capabilities"`
}

// ========================================
// ATTENDANCE DTOs
// ========================================

type AttendanceResponse struct {
	ID            string   `json:"id"`
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  *string  `json:"employee_name,omitempty"`
	Department    *string  `json:"department,omitempty"`
	Position      *string  `json:"position,omitempty"`
	Date          string   `json:"date"`
	TimeIn        *string  `json:"time_in"`
	TimeOut       *string  `json:"time_out"`
	BreakStart    *string  `json:"break_start"`
	BreakEnd      *string  `json:"break_end"`
	TotalHours    *float64 `json:"total_hours"`
	OvertimeHours *float64 `json:"overtime_hours"`
	Status        string   `json:"status"`
	Notes         *string  `json:"notes"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

type ManualEntryRequest struct {
	EmployeeID  string   `json:"employee_id"`
	Date        string   `json:"date"`
	TimeIn      string   `json:"time_in"`
	TimeOut     *string  `json:"time_out,omitempty"`
	HoursWorked *float64 `json:"hours_worked,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsValidEmployeeID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id may only contain letters, digits, '.', '_' and '-'",
		})
	}

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if validator.IsEmpty(r.TimeIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "time_in",
			Message: "time_in is required",
		})
	} else if normalized, ok := timeutil.NormalizeClock(r.TimeIn); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "time_in",
			Message: "time_in must be in HH:MM:SS format",
		})
	} else {
		r.TimeIn = normalized
	}

	if r.TimeOut != nil && *r.TimeOut != "" {
		if normalized, ok := timeutil.NormalizeClock(*r.TimeOut); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "time_out",
				Message: "time_out must be in HH:MM:SS format",
			})
		} else {
			r.TimeOut = &normalized
		}
	} else {
		r.TimeOut = nil
	}

	if r.HoursWorked != nil && (*r.HoursWorked < 0 || *r.HoursWorked > 24) {
		errs = append(errs, validator.ValidationError{
			Field:   "hours_worked",
			Message: "hours_worked must be between 0 and 24",
		})
	}

	if r.Status != nil && !Status(*r.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues(), ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// OptionalString distinguishes an absent JSON key from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) field() Field[string] {
	if !o.Set {
		return Field[string]{}
	}
	if o.Value == nil || *o.Value == "" {
		return Clear[string]()
	}
	return Set(*o.Value)
}

type UpdateAttendanceRequest struct {
	ID         string         `json:"-"`
	TimeIn     *string        `json:"time_in,omitempty"`
	TimeOut    OptionalString `json:"time_out"`
	BreakStart OptionalString `json:"break_start"`
	BreakEnd   OptionalString `json:"break_end"`
	Status     *string        `json:"status,omitempty"`
	Notes      OptionalString `json:"notes"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.TimeIn != nil {
		if normalized, ok := timeutil.NormalizeClock(*r.TimeIn); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "time_in",
				Message: "time_in must be in HH:MM:SS format",
			})
		} else {
			r.TimeIn = &normalized
		}
	}

	for _, f := range []struct {
		name  string
		value *OptionalString
	}{
		{"time_out", &r.TimeOut},
		{"break_start", &r.BreakStart},
		{"break_end", &r.BreakEnd},
	} {
		if !f.value.Set || f.value.Value == nil || *f.value.Value == "" {
			continue
		}
		normalized, ok := timeutil.NormalizeClock(*f.value.Value)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   f.name,
				Message: f.name + " must be in HH:MM:SS format",
			})
			continue
		}
		f.value.Value = &normalized
	}

	if r.Status != nil && !Status(*r.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues(), ", "),
		})
	}

	if len(errs) == 0 && r.ToPatch().IsEmpty() {
		errs = append(errs, validator.ValidationError{
			Field:   "body",
			Message: "no fields to update",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToPatch converts the request into a record patch without derived fields.
func (r UpdateAttendanceRequest) ToPatch() RecordPatch {
	patch := RecordPatch{
		TimeOut:    r.TimeOut.field(),
		BreakStart: r.BreakStart.field(),
		BreakEnd:   r.BreakEnd.field(),
		Notes:      r.Notes.field(),
	}
	if r.TimeIn != nil {
		patch.TimeIn = Set(*r.TimeIn)
	}
	if r.Status != nil {
		patch.Status = Set(Status(*r.Status))
	}
	return patch
}

type DeletedRecordResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	DeletedBy  string `json:"deleted_by"`
}

// ========================================
// LISTING
// ========================================

type AttendanceFilter struct {
	// Search & Filter
	EmployeeID *string `json:"employee_id,omitempty"`
	Search     *string `json:"search,omitempty"`     // employee name or id
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, time_in, time_out, total_hours, status
	SortOrder string `json:"sort_order"` // asc, desc
}

var sortableFields = []string{"date", "time_in", "time_out", "total_hours", "status"}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 50 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	// Status validation
	if f.Status != nil && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues(), ", "),
		})
	}

	// Date validation
	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	// Sort validation
	if f.SortBy != "" {
		if !validator.IsInSlice(f.SortBy, sortableFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: " + strings.Join(sortableFields, ", "),
			})
		}
	} else {
		f.SortBy = "date" // Default sort
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// RangeFilter selects records in an inclusive date range. A nil EmployeeID
// selects every employee.
type RangeFilter struct {
	EmployeeID *string
	StartDate  string
	EndDate    string
}

// ========================================
// SUMMARY DTOs
// ========================================

type SummaryRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Period     string  `json:"period,omitempty"` // week, month, year
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	hasStart := r.StartDate != nil && *r.StartDate != ""
	hasEnd := r.EndDate != nil && *r.EndDate != ""

	if hasStart {
		if _, valid := validator.IsValidDate(*r.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if hasEnd {
		if _, valid := validator.IsValidDate(*r.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if hasStart != hasEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date and end_date must be provided together",
		})
	}
	if hasStart && hasEnd && len(errs) == 0 {
		start, _ := validator.ParseDate(*r.StartDate)
		end, _ := validator.ParseDate(*r.EndDate)
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	if r.Period == "" {
		r.Period = string(timeutil.PeriodMonth)
	}
	if !validator.IsInSlice(r.Period, []string{string(timeutil.PeriodWeek), string(timeutil.PeriodMonth), string(timeutil.PeriodYear)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be one of: week, month, year",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// PeriodSummary is derived from a range of records and never persisted.
type PeriodSummary struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`

	TotalDays   int `json:"total_days"`
	PresentDays int `json:"present_days"`
	AbsentDays  int `json:"absent_days"`
	LateDays    int `json:"late_days"`
	LeaveDays   int `json:"leave_days"`
	OnTimeDays  int `json:"on_time_days"`

	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	TotalHours    float64 `json:"total_hours"`
	AvgDailyHours float64 `json:"avg_daily_hours"`

	AvgCheckIn  *string `json:"avg_check_in"`
	AvgCheckOut *string `json:"avg_check_out"`

	AttendanceRate  float64 `json:"attendance_rate"`
	PunctualityRate float64 `json:"punctuality_rate"`

	HourlyRate         float64 `json:"hourly_rate"`
	OvertimeMultiplier float64 `json:"overtime_multiplier"`
	OvertimeRate       float64 `json:"overtime_rate"`
	RegularPay         float64 `json:"regular_pay"`
	OvertimePay        float64 `json:"overtime_pay"`
	MonthlyEarnings    float64 `json:"monthly_earnings"`
	MonthlyProjection  float64 `json:"monthly_projection"`
}

type TodayStatsResponse struct {
	Date           string  `json:"date"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	OnLeave        int     `json:"on_leave"`
	TotalEmployees int     `json:"total_employees"`
	AttendanceRate float64 `json:"attendance_rate"`
}

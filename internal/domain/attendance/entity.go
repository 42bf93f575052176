package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent  Status = "present"
	StatusLate     Status = "late"
	StatusAbsent   Status = "absent"
	StatusOnLeave  Status = "on_leave"
	StatusSick     Status = "sick"
	StatusVacation Status = "vacation"
	StatusHoliday  Status = "holiday"
)

var validStatuses = []Status{
	StatusPresent, StatusLate, StatusAbsent, StatusOnLeave, StatusSick, StatusVacation, StatusHoliday,
}

func (s Status) IsValid() bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsLeave reports whether the status counts as a leave day in summaries.
// on_leave only counts toward the total.
func (s Status) IsLeave() bool {
	return s == StatusSick || s == StatusVacation || s == StatusHoliday
}

func StatusValues() []string {
	values := make([]string, len(validStatuses))
	for i, s := range validStatuses {
		values[i] = string(s)
	}
	return values
}

// Attendance is one employee's record for one civil day.
type Attendance struct {
	ID            string
	EmployeeID    string
	Date          string  // YYYY-MM-DD in the organisational timezone
	TimeIn        *string // HH:MM:SS
	TimeOut       *string
	BreakStart    *string
	BreakEnd      *string
	TotalHours    *decimal.Decimal
	OvertimeHours *decimal.Decimal
	Status        Status
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Populated by joins on read
	EmployeeName *string
	Department   *string
	Position     *string
}

// SessionState is the lifecycle position of a day record. It is always derived
// from the record and never stored.
type SessionState string

const (
	StateNotClockedIn SessionState = "not_clocked_in"
	StateClockedIn    SessionState = "clocked_in"
	StateOnBreak      SessionState = "on_break"
	StateClockedOut   SessionState = "clocked_out"
)

type Action string

const (
	ActionClockIn    Action = "clock_in"
	ActionClockOut   Action = "clock_out"
	ActionBreakStart Action = "break_start"
	ActionBreakEnd   Action = "break_end"
)

// Capabilities lists the actions currently permitted for a record.
type Capabilities struct {
	CanClockIn    bool `json:"can_clock_in"`
	CanClockOut   bool `json:"can_clock_out"`
	CanStartBreak bool `json:"can_start_break"`
	CanEndBreak   bool `json:"can_end_break"`
}

// Field is one column of a partial update. The zero value leaves the column
// untouched; Set writes a value and Clear writes NULL.
type Field[T any] struct {
	set   bool
	value *T
}

func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: &v}
}

func Clear[T any]() Field[T] {
	return Field[T]{set: true}
}

// SetPtr writes v, or NULL when v is nil.
func SetPtr[T any](v *T) Field[T] {
	if v == nil {
		return Clear[T]()
	}
	return Set(*v)
}

func (f Field[T]) IsSet() bool {
	return f.set
}

// Value returns the value to write, nil meaning NULL.
func (f Field[T]) Value() *T {
	return f.value
}

func (f Field[T]) apply(dst **T) {
	if !f.set {
		return
	}
	if f.value == nil {
		*dst = nil
		return
	}
	v := *f.value
	*dst = &v
}

// RecordPatch is a structured partial update of an attendance record.
type RecordPatch struct {
	TimeIn        Field[string]
	TimeOut       Field[string]
	BreakStart    Field[string]
	BreakEnd      Field[string]
	TotalHours    Field[decimal.Decimal]
	OvertimeHours Field[decimal.Decimal]
	Status        Field[Status]
	Notes         Field[string]
}

func (p RecordPatch) IsEmpty() bool {
	return !p.TimeIn.IsSet() && !p.TimeOut.IsSet() &&
		!p.BreakStart.IsSet() && !p.BreakEnd.IsSet() &&
		!p.TotalHours.IsSet() && !p.OvertimeHours.IsSet() &&
		!p.Status.IsSet() && !p.Notes.IsSet()
}

// Apply returns a copy of a with the patch applied. Status cannot be cleared.
func (p RecordPatch) Apply(a Attendance) Attendance {
	p.TimeIn.apply(&a.TimeIn)
	p.TimeOut.apply(&a.TimeOut)
	p.BreakStart.apply(&a.BreakStart)
	p.BreakEnd.apply(&a.BreakEnd)
	p.TotalHours.apply(&a.TotalHours)
	p.OvertimeHours.apply(&a.OvertimeHours)
	p.Notes.apply(&a.Notes)
	if p.Status.IsSet() && p.Status.Value() != nil {
		a.Status = *p.Status.Value()
	}
	return a
}

package attendance

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/timeutil"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Rules are the organisation-wide inputs of the state machine.
type Rules struct {
	StandardStartTime string          // arrivals strictly after this are late
	StandardWorkHours decimal.Decimal // hours beyond this are overtime
}

// Transition is the decision for one action against one record. A rejected
// transition carries the reason and an empty patch.
type Transition struct {
	Action attendance.Action
	From   attendance.SessionState
	To     attendance.SessionState
	Reason error
	Create bool
	Patch  attendance.RecordPatch
}

// Rejected reports whether the action was refused in the current state.
func (t Transition) Rejected() bool {
	return t.Reason != nil
}

// StateMachine decides attendance transitions. It holds no state of its own:
// every decision is derived from the record passed in.
type StateMachine struct {
	calendar *timeutil.Calendar
	rules    Rules
}

// NewStateMachine returns a state machine using calendar for the working day.
func NewStateMachine(calendar *timeutil.Calendar, rules Rules) *StateMachine {
	return &StateMachine{calendar: calendar, rules: rules}
}

// DeriveState computes the lifecycle state of a day record. A nil record is
// not clocked in.
func DeriveState(rec *attendance.Attendance) attendance.SessionState {
	switch {
	case rec == nil || rec.TimeIn == nil:
		return attendance.StateNotClockedIn
	case rec.TimeOut != nil:
		return attendance.StateClockedOut
	case rec.BreakStart != nil && rec.BreakEnd == nil:
		return attendance.StateOnBreak
	default:
		return attendance.StateClockedIn
	}
}

// CapabilitiesOf lists the actions the transition table accepts for rec.
func CapabilitiesOf(rec *attendance.Attendance) attendance.Capabilities {
	return attendance.Capabilities{
		CanClockIn:    rejectionFor(rec, attendance.ActionClockIn) == nil,
		CanClockOut:   rejectionFor(rec, attendance.ActionClockOut) == nil,
		CanStartBreak: rejectionFor(rec, attendance.ActionBreakStart) == nil,
		CanEndBreak:   rejectionFor(rec, attendance.ActionBreakEnd) == nil,
	}
}

// rejectionFor returns the reason an action is refused in the record's
// current state, or nil if it is accepted.
func rejectionFor(rec *attendance.Attendance, action attendance.Action) error {
	state := DeriveState(rec)

	switch action {
	case attendance.ActionClockIn:
		if state == attendance.StateClockedIn || state == attendance.StateOnBreak {
			return attendance.ErrAlreadyClockedIn
		}
	case attendance.ActionClockOut:
		if state == attendance.StateNotClockedIn || state == attendance.StateClockedOut {
			return attendance.ErrNoActiveClockIn
		}
	case attendance.ActionBreakStart:
		switch state {
		case attendance.StateNotClockedIn, attendance.StateClockedOut:
			return attendance.ErrMustClockInFirst
		case attendance.StateOnBreak:
			return attendance.ErrBreakAlreadyStarted
		}
	case attendance.ActionBreakEnd:
		switch {
		case state == attendance.StateNotClockedIn || state == attendance.StateClockedOut:
			return attendance.ErrMustClockInFirst
		case rec.BreakStart == nil:
			return attendance.ErrNoActiveBreak
		case rec.BreakEnd != nil:
			return attendance.ErrBreakAlreadyEnded
		}
	default:
		return fmt.Errorf("unknown attendance action %q", action)
	}

	return nil
}

// Decide returns the transition for applying action to rec at wall-clock time
// now. Notes, when supplied, overwrite the stored notes.
func (m *StateMachine) Decide(rec *attendance.Attendance, action attendance.Action, now string, notes *string) (Transition, error) {
	t := Transition{
		Action: action,
		From:   DeriveState(rec),
	}
	t.To = t.From

	if reason := rejectionFor(rec, action); reason != nil {
		t.Reason = reason
		return t, nil
	}

	switch action {
	case attendance.ActionClockIn:
		t.Create = rec == nil
		t.Patch = reopenPatch(now)
	case attendance.ActionClockOut:
		patch, err := m.clockOutPatch(*rec, now)
		if err != nil {
			return Transition{}, err
		}
		t.Patch = patch
	case attendance.ActionBreakStart:
		// Only the latest break is kept on the record.
		t.Patch = attendance.RecordPatch{
			BreakStart: attendance.Set(now),
			BreakEnd:   attendance.Clear[string](),
		}
	case attendance.ActionBreakEnd:
		t.Patch = attendance.RecordPatch{
			BreakEnd: attendance.Set(now),
		}
	}

	if notes != nil {
		t.Patch.Notes = attendance.Set(*notes)
	}

	var base attendance.Attendance
	if rec != nil {
		base = *rec
	}
	next := t.Patch.Apply(base)
	t.To = DeriveState(&next)

	return t, nil
}

// reopenPatch starts a fresh session on the day record. A day holds a single
// session, so clocking in again discards the previous session's boundaries.
func reopenPatch(now string) attendance.RecordPatch {
	return attendance.RecordPatch{
		TimeIn:        attendance.Set(now),
		TimeOut:       attendance.Clear[string](),
		BreakStart:    attendance.Clear[string](),
		BreakEnd:      attendance.Clear[string](),
		TotalHours:    attendance.Clear[decimal.Decimal](),
		OvertimeHours: attendance.Clear[decimal.Decimal](),
		Status:        attendance.Set(attendance.StatusPresent),
	}
}

func (m *StateMachine) clockOutPatch(rec attendance.Attendance, now string) (attendance.RecordPatch, error) {
	rec.TimeOut = &now

	total, overtime, err := m.WorkedHours(rec)
	if err != nil {
		return attendance.RecordPatch{}, err
	}

	late, err := timeutil.IsLate(*rec.TimeIn, m.rules.StandardStartTime)
	if err != nil {
		return attendance.RecordPatch{}, fmt.Errorf("failed to evaluate lateness: %w", err)
	}
	status := attendance.StatusPresent
	if late {
		status = attendance.StatusLate
	}

	return attendance.RecordPatch{
		TimeOut:       attendance.Set(now),
		TotalHours:    attendance.Set(total),
		OvertimeHours: attendance.Set(overtime),
		Status:        attendance.Set(status),
	}, nil
}

// WorkedHours computes total and overtime hours for a record with both
// time_in and time_out set. A break is subtracted only when both of its
// bounds are recorded. Totals are floored at zero and rounded to 2 places.
func (m *StateMachine) WorkedHours(rec attendance.Attendance) (total decimal.Decimal, overtime decimal.Decimal, err error) {
	if rec.TimeIn == nil || rec.TimeOut == nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("worked hours need both time_in and time_out")
	}

	worked, err := m.calendar.DurationSeconds(*rec.TimeIn, *rec.TimeOut, rec.Date)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to compute elapsed time: %w", err)
	}

	if rec.BreakStart != nil && rec.BreakEnd != nil {
		breakSeconds, err := m.calendar.DurationSeconds(*rec.BreakStart, *rec.BreakEnd, rec.Date)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to compute break time: %w", err)
		}
		worked -= breakSeconds
	}

	if worked < 0 {
		worked = 0
	}

	hours := decimal.NewFromInt(worked).Div(secondsPerHour)
	extra := decimal.Max(decimal.Zero, hours.Sub(m.rules.StandardWorkHours))

	return hours.Round(2), extra.Round(2), nil
}

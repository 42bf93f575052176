package attendance

import "errors"

// Attendance domain errors
var (
	// State machine rejections. These are reported inside an ActionResult,
	// not returned as errors.
	ErrAlreadyClockedIn    = errors.New("already clocked in, please clock out first")
	ErrNoActiveClockIn     = errors.New("no active clock-in record found, please clock in first")
	ErrMustClockInFirst    = errors.New("you must clock in before starting a break")
	ErrBreakAlreadyStarted = errors.New("break already started, please end the current break first")
	ErrNoActiveBreak       = errors.New("no active break found, please start a break first")
	ErrBreakAlreadyEnded   = errors.New("break already ended")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAttendanceExists   = errors.New("attendance record already exists for this employee and date")
	ErrUnauthorized       = errors.New("unauthorized to access this attendance record")
	ErrInvalidClaims      = errors.New("invalid or missing token claims")
)

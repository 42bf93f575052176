// Package timeutil implements the civil date and wall-clock arithmetic used for
// attendance accounting. All values are interpreted in one fixed organisational
// timezone; dates are "YYYY-MM-DD" and times of day "HH:MM:SS".
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"

	DefaultTimezone = "Asia/Manila"
)

var (
	ErrInvalidDate  = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidClock = errors.New("time must be in HH:MM:SS format")
)

// Clock is the source of the current instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// Calendar resolves "today" and "now" in a fixed location.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

func NewCalendar(clock Clock, loc *time.Location) *Calendar {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: clock, loc: loc}
}

// LoadCalendar builds a Calendar for the named IANA timezone.
func LoadCalendar(clock Clock, timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return NewCalendar(clock, loc), nil
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Instant is the current instant in the calendar's location.
func (c *Calendar) Instant() time.Time {
	return c.clock.Now().In(c.loc)
}

// Today returns the current civil date.
func (c *Calendar) Today() string {
	return c.Instant().Format(DateLayout)
}

// Now returns the current wall-clock time truncated to whole seconds.
func (c *Calendar) Now() string {
	return c.Instant().Format(ClockLayout)
}

// DurationSeconds returns end - start with both times anchored on onDate.
// The result is negative when end is earlier than start.
func (c *Calendar) DurationSeconds(start, end, onDate string) (int64, error) {
	s, err := c.at(onDate, start)
	if err != nil {
		return 0, err
	}
	e, err := c.at(onDate, end)
	if err != nil {
		return 0, err
	}
	return int64(e.Sub(s) / time.Second), nil
}

func (c *Calendar) DurationMinutes(start, end, onDate string) (float64, error) {
	seconds, err := c.DurationSeconds(start, end, onDate)
	if err != nil {
		return 0, err
	}
	return float64(seconds) / 60, nil
}

func (c *Calendar) at(date, clock string) (time.Time, error) {
	if _, ok := IsValidDate(date); !ok {
		return time.Time{}, ErrInvalidDate
	}
	if !IsValidClock(clock) {
		return time.Time{}, ErrInvalidClock
	}
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, c.loc)
}

// AddDays shifts a civil date by n days.
func AddDays(date string, n int) (string, error) {
	d, ok := IsValidDate(date)
	if !ok {
		return "", ErrInvalidDate
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// IsLate reports whether timeIn is strictly after standardStart on the same day.
func IsLate(timeIn, standardStart string) (bool, error) {
	in, err := ClockToSeconds(timeIn)
	if err != nil {
		return false, err
	}
	start, err := ClockToSeconds(standardStart)
	if err != nil {
		return false, err
	}
	return in > start, nil
}

// ClockToSeconds converts "HH:MM:SS" to seconds since midnight.
func ClockToSeconds(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}

// SecondsToClock formats seconds since midnight as "HH:MM:SS", flooring any
// fractional part. A nil input yields nil.
func SecondsToClock(seconds *float64) *string {
	if seconds == nil {
		return nil
	}
	total := int(math.Floor(*seconds))
	if total < 0 {
		total = 0
	}
	s := fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	return &s
}

func IsValidDate(date string) (time.Time, bool) {
	d, err := time.Parse(DateLayout, date)
	return d, err == nil
}

func IsValidClock(clock string) bool {
	_, err := time.Parse(ClockLayout, clock)
	return err == nil
}

// NormalizeClock accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM:SS".
func NormalizeClock(clock string) (string, bool) {
	if t, err := time.Parse(ClockLayout, clock); err == nil {
		return t.Format(ClockLayout), true
	}
	if t, err := time.Parse("15:04", clock); err == nil {
		return t.Format(ClockLayout), true
	}
	return "", false
}

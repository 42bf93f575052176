package timeutil

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manilaCalendar(t *testing.T, now time.Time) *Calendar {
	t.Helper()
	cal, err := LoadCalendar(FixedClock{T: now}, DefaultTimezone)
	require.NoError(t, err)
	return cal
}

func TestCalendar_TodayCrossesUTCMidnight(t *testing.T) {
	// 2024-03-04 16:30 UTC is already 2024-03-05 00:30 in Manila.
	cal := manilaCalendar(t, time.Date(2024, 3, 4, 16, 30, 0, 0, time.UTC))

	assert.Equal(t, "2024-03-05", cal.Today())
	assert.Equal(t, "00:30:00", cal.Now())
}

func TestCalendar_NowTruncatesToSeconds(t *testing.T) {
	cal := manilaCalendar(t, time.Date(2024, 3, 4, 0, 59, 59, 999_000_000, time.UTC))

	assert.Equal(t, "08:59:59", cal.Now())
}

func TestCalendar_DurationMinutes(t *testing.T) {
	cal := manilaCalendar(t, time.Now())

	tests := []struct {
		name  string
		start string
		end   string
		want  float64
	}{
		{"full day", "08:00:00", "17:00:00", 540},
		{"with seconds", "12:00:00", "12:00:30", 0.5},
		{"zero", "09:00:00", "09:00:00", 0},
		{"end before start", "17:00:00", "08:00:00", -540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.DurationMinutes(tt.start, tt.end, "2024-03-04")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendar_DurationRejectsMalformedInput(t *testing.T) {
	cal := manilaCalendar(t, time.Now())

	_, err := cal.DurationSeconds("8am", "17:00:00", "2024-03-04")
	assert.ErrorIs(t, err, ErrInvalidClock)

	_, err = cal.DurationSeconds("08:00:00", "17:00:00", "04/03/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestIsLate(t *testing.T) {
	tests := []struct {
		timeIn string
		want   bool
	}{
		{"08:59:59", false},
		{"09:00:00", false},
		{"09:00:01", true},
		{"09:15:00", true},
	}

	for _, tt := range tests {
		got, err := IsLate(tt.timeIn, "09:00:00")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "IsLate(%q)", tt.timeIn)
	}

	_, err := IsLate("late", "09:00:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestSecondsToClock(t *testing.T) {
	assert.Nil(t, SecondsToClock(nil))

	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{30600, "08:30:00"},
		{30600.9, "08:30:00"},
		{61199, "16:59:59"},
	}

	for _, tt := range tests {
		seconds := tt.seconds
		got := SecondsToClock(&seconds)
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got)
	}
}

func TestClockToSeconds(t *testing.T) {
	got, err := ClockToSeconds("08:30:15")
	require.NoError(t, err)
	assert.Equal(t, 30615, got)

	_, err = ClockToSeconds("25:00:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestNormalizeClock(t *testing.T) {
	got, ok := NormalizeClock("8:05")
	assert.True(t, ok)
	assert.Equal(t, "08:05:00", got)

	got, ok = NormalizeClock("17:30:15")
	assert.True(t, ok)
	assert.Equal(t, "17:30:15", got)

	_, ok = NormalizeClock("5pm")
	assert.False(t, ok)
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2024-03-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)
}

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		period    Period
		wantStart string
	}{
		{PeriodWeek, "2024-03-01"},
		{PeriodMonth, "2024-03-01"},
		{PeriodYear, "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end, err := ResolvePeriod(tt.period, "2024-03-08")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, "2024-03-08", end)
		})
	}

	_, _, err := ResolvePeriod("decade", "2024-03-08")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

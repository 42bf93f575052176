package timeutil

import (
	"errors"
	"time"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

var ErrInvalidPeriod = errors.New("period must be one of: week, month, year")

// ResolvePeriod returns the inclusive date range ending today for a named period.
// week covers the last seven days, month and year start on the first day of the
// current month or year.
func ResolvePeriod(period Period, today string) (start string, end string, err error) {
	d, ok := IsValidDate(today)
	if !ok {
		return "", "", ErrInvalidDate
	}

	switch period {
	case PeriodWeek:
		start = d.AddDate(0, 0, -7).Format(DateLayout)
	case PeriodMonth:
		start = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).Format(DateLayout)
	case PeriodYear:
		start = time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format(DateLayout)
	default:
		return "", "", ErrInvalidPeriod
	}

	return start, today, nil
}

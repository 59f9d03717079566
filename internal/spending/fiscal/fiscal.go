// Package fiscal maps calendar dates onto the April-start fiscal year.
//
// Apr-Jun is Q1, Jul-Sep Q2, Oct-Dec Q3 and Jan-Mar Q4, so Q4 falls in the
// calendar year after the one its fiscal year started in. Month keys stay on
// the calendar year regardless; only quarters are fiscal.
package fiscal

import (
	"errors"
	"time"
)

// ErrInvalidDate is returned for zero or otherwise unusable dates.
var ErrInvalidDate = errors.New("invalid date")

// QuarterOf returns the fiscal quarter (1-4) the date falls in.
func QuarterOf(t time.Time) (int, error) {
	if t.IsZero() {
		return 0, ErrInvalidDate
	}
	switch t.Month() {
	case time.April, time.May, time.June:
		return 1, nil
	case time.July, time.August, time.September:
		return 2, nil
	case time.October, time.November, time.December:
		return 3, nil
	default:
		return 4, nil
	}
}

// MonthKeyOf returns the calendar "YYYY-MM" bucket key for the date.
func MonthKeyOf(t time.Time) (string, error) {
	if t.IsZero() {
		return "", ErrInvalidDate
	}
	return t.Format("2006-01"), nil
}

// Year returns the fiscal year the date belongs to, labeled by the calendar
// year the fiscal year started in (March 2025 is fiscal year 2024).
func Year(t time.Time) (int, error) {
	if t.IsZero() {
		return 0, ErrInvalidDate
	}
	if t.Month() < time.April {
		return t.Year() - 1, nil
	}
	return t.Year(), nil
}

// QuarterRange returns the bounds of the fiscal quarter containing t. The
// start is the first day of the quarter, the end is the first day of the
// following quarter (exclusive), both at midnight UTC.
func QuarterRange(t time.Time) (start, end time.Time, err error) {
	q, err := QuarterOf(t)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	fy, err := Year(t)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	year := fy
	month := time.April + time.Month(3*(q-1))
	if q == 4 {
		year, month = fy+1, time.January
	}
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0), nil
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// Time returns midnight UTC of the date
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// AddMonths adds n calendar months to t, clamping the day to the end of the
// target month (Jan 31 + 1 month = Feb 28/29). The time of day is kept.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + total/12
	month := total%12 + 1
	if month <= 0 {
		month += 12
		year--
	}
	if maxDay := DaysInMonth(year, month); d > maxDay {
		d = maxDay
	}
	return time.Date(year, time.Month(month), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ElapsedPeriods returns how many whole monthly periods have passed between
// start and now. A period completes on its monthly anniversary day, so a
// month only counts once now.Day() reaches start.Day(). Dates are compared
// in UTC and the time of day is ignored. Never negative.
func ElapsedPeriods(start, now time.Time) int {
	sy, sm, sd := start.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	months := (ny-sy)*12 + int(nm) - int(sm)
	if nd < sd {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

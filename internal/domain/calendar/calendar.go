// Package calendar computes calendar-exact differences between dates.
//
// All functions work on the civil date of their arguments in UTC; the
// time-of-day component is ignored.
package calendar

import "time"

const (
	hoursPerDay   = 24
	daysPerYear   = 365.25
	monthsPerYear = 12
)

// Span is a calendar-exact difference broken down into years, months and days.
type Span struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// Date returns midnight UTC of the given civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day of t, keeping its UTC civil date.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Days returns the whole number of days from a to b. It is negative when b
// precedes a.
func Days(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / hoursPerDay)
}

// Between returns the calendar-exact span between a and b, regardless of
// their order.
//
// Day components are subtracted first; a negative result borrows the length
// of the month preceding the later date's month (and the one before that
// when a short February is not enough). Months are subtracted next, borrowing
// a year when negative.
func Between(a, b time.Time) Span {
	from, to := Truncate(a), Truncate(b)
	if to.Before(from) {
		from, to = to, from
	}

	years := to.Year() - from.Year()
	months := int(to.Month()) - int(from.Month())
	days := to.Day() - from.Day()

	prevYear, prevMonth := to.Year(), to.Month()
	for days < 0 {
		prevMonth--
		if prevMonth < time.January {
			prevMonth = time.December
			prevYear--
		}
		days += DaysIn(prevYear, prevMonth)
		months--
	}
	if months < 0 {
		months += monthsPerYear
		years--
	}
	return Span{Years: years, Months: months, Days: days}
}

// AgeAt returns the fractional age in years of someone born on birth at date on.
func AgeAt(birth, on time.Time) float64 {
	return float64(Days(birth, on)) / daysPerYear
}

// Package civil implements calendar dates without a time of day or location.
// Selector evaluation works on these dates so that it never depends on the
// wall clock offset of a particular time.Location.
package civil

import (
	"fmt"
	"time"
)

// Date is a day in the proleptic Gregorian calendar.
// The zero value is not a valid date. Dates are comparable and can be used as map keys.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Never is a date after every date an evaluation will reach.
// It is returned by search functions that cannot find a matching day.
var Never = Date{Year: 1 << 30, Month: time.December, Day: 31}

// New returns the date for year, month and day.
// Out of range values are normalized, e.g. October 32 becomes November 1.
func New(year int, month time.Month, day int) Date {
	d := Date{Year: year, Month: month, Day: day}
	if month >= time.January && month <= time.December && day >= 1 && day <= DaysInMonth(month, year) {
		return d
	}
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Of returns the date of t as seen in t's location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// FromDayNumber returns the date that is n days after 1970-01-01.
func FromDayNumber(n int64) Date {
	return Of(time.Unix(n*secondsPerDay, 0).UTC())
}

// DayNumber returns the number of days since 1970-01-01.
// It ignores leap seconds but respects leap years.
func (d Date) DayNumber() int64 {
	daysBeforeMonth := [...]int64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

	n := daysSinceEpoch(d.Year) + daysBeforeMonth[d.Month-1] + int64(d.Day-1)
	if d.Month > time.February && IsLeapYear(d.Year) {
		n++ // +leap day
	}
	return n - unixEpochDays
}

// AddDays returns the date n days after d. n may be negative.
func (d Date) AddDays(n int) Date {
	if n == 0 {
		return d
	}
	if d.Day+n >= 1 && d.Day+n <= DaysInMonth(d.Month, d.Year) {
		return Date{Year: d.Year, Month: d.Month, Day: d.Day + n}
	}
	return FromDayNumber(d.DayNumber() + int64(n))
}

// DaysUntil returns the number of days from d to o. It is negative if o is before d.
func (d Date) DaysUntil(o Date) int {
	return int(o.DayNumber() - d.DayNumber())
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday.
	w := (d.DayNumber() + 4) % 7
	if w < 0 {
		w += 7
	}
	return time.Weekday(w)
}

// ISOWeek returns the ISO 8601 year and week number in which d occurs.
// Week 1 is the week containing the first Thursday of the year.
func (d Date) ISOWeek() (year, week int) {
	// The Thursday of d's week decides the ISO year.
	offset := int(time.Thursday) - isoWeekdayNumber(d.Weekday())
	thursday := d.AddDays(offset)
	jan1 := Date{Year: thursday.Year, Month: time.January, Day: 1}
	return thursday.Year, jan1.DaysUntil(thursday)/7 + 1
}

// isoWeekdayNumber maps Monday to 1 and Sunday to 7.
func isoWeekdayNumber(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

// Before reports whether d is before o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// After reports whether d is after o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// InRange reports whether d lies within [from, to], both inclusive.
func (d Date) InRange(from, to Date) bool {
	return !d.Before(from) && !to.Before(d)
}

// Min returns the earlier of d and o.
func Min(d, o Date) Date {
	if o.Before(d) {
		return o
	}
	return d
}

// Max returns the later of d and o.
func Max(d, o Date) Date {
	if o.After(d) {
		return o
	}
	return d
}

// In returns midnight at the start of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the instant that is the given number of minutes after the start of d in loc.
// Minutes past 24:00 continue into the following days.
func (d Date) At(minutes int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, minutes, 0, 0, loc)
}

// String returns the date in ISO 8601 format.
func (d Date) String() string {
	if d == Never {
		return "<never>"
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Parse parses a date in ISO 8601 format (2006-01-02).
func Parse(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Of(t), nil
}

const (
	secondsPerDay   = 24 * 60 * 60
	daysPer400Years = 365*400 + 97
	daysPer100Years = 365*100 + 24
	daysPer4Years   = 365*4 + 1

	// absoluteZeroYear is a year divisible by 400 before any date we handle.
	absoluteZeroYear = -292277022399
)

// unixEpochDays is the number of days from the absolute zero year to 1970-01-01.
var unixEpochDays = daysSinceEpoch(1970)

// daysSinceEpoch takes a year and returns the number of days from
// the absolute epoch to the start of that year.
// This is basically (year - zeroYear) * 365, but accounting for leap days.
func daysSinceEpoch(year int) int64 {
	y := uint64(int64(year) - absoluteZeroYear)

	// Add in days from 400-year cycles.
	n := y / 400
	y -= 400 * n
	d := daysPer400Years * n

	// Add in 100-year cycles.
	n = y / 100
	y -= 100 * n
	d += daysPer100Years * n

	// Add in 4-year cycles.
	n = y / 4
	y -= 4 * n
	d += daysPer4Years * n

	// Add in non-leap years.
	n = y
	d += 365 * n

	return int64(d)
}

package civil

import "time"

// IsLeapYear determines if the year is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in a given month for a specific year.
func DaysInMonth(month time.Month, year int) int {
	if month == time.February {
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	if month == time.April || month == time.June || month == time.September || month == time.November {
		return 30
	}
	return 31
}

// LastOfMonth returns the last day of the given month.
func LastOfMonth(year int, month time.Month) Date {
	return Date{Year: year, Month: month, Day: DaysInMonth(month, year)}
}

// ISOWeeksInYear returns the number of ISO 8601 weeks of year, 52 or 53.
// December 28 always falls in the last week.
func ISOWeeksInYear(year int) int {
	_, w := Date{Year: year, Month: time.December, Day: 28}.ISOWeek()
	return w
}

// NthWeekday returns the nth occurrence of weekday in the given month.
// Positive n counts from the first day of the month, negative n from the last
// day (-1 is the last occurrence). ok is false if the month has no such occurrence
// (e.g. a fifth Monday) or n is zero.
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int) (d Date, ok bool) {
	switch {
	case n > 0:
		first := Date{Year: year, Month: month, Day: 1}
		offset := (int(weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (n-1)*7
		if day > DaysInMonth(month, year) {
			return Date{}, false
		}
		return Date{Year: year, Month: month, Day: day}, true
	case n < 0:
		last := LastOfMonth(year, month)
		// Calculate how many days to subtract from the last day to get the last instance of the given weekday.
		offset := (int(last.Weekday()) - int(weekday) + 7) % 7
		day := last.Day - offset + (n+1)*7
		if day < 1 {
			return Date{}, false
		}
		return Date{Year: year, Month: month, Day: day}, true
	}
	return Date{}, false
}

// NthOfMonth returns the 1-based position of d among the days with the same weekday
// in its month, counted from the start (positive) and from the end (negative).
// For the last Monday of a month with four Mondays it returns (4, -1).
func NthOfMonth(d Date) (fromStart, fromEnd int) {
	fromStart = (d.Day-1)/7 + 1
	fromEnd = -((DaysInMonth(d.Month, d.Year)-d.Day)/7 + 1)
	return fromStart, fromEnd
}

// NextWeekday returns the first date on or after d that falls on weekday.
func NextWeekday(d Date, weekday time.Weekday) Date {
	diff := int(weekday) - int(d.Weekday())
	if diff < 0 {
		diff += 7 // Ensure a positive difference
	}
	return d.AddDays(diff)
}

// Easter returns the date of Easter Sunday in the Gregorian calendar,
// computed with the anonymous Gregorian algorithm (Meeus/Jones/Butcher).
func Easter(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Date{Year: year, Month: time.Month(month), Day: day}
}
